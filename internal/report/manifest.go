package report

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

// Manifest archive entries.
const (
	ManifestCSV    = "manifest.csv"
	ManifestHashes = "hashes.sha256.txt"
	objectsDir     = "objects/"
)

// SourceVersion marks a manifest row that references an uploaded artifact version
// rather than an evidence byproduct.
const SourceVersion = "artifact_version"

// ManifestRow is one stored object referenced by an exported inspection.
type ManifestRow struct {
	InspectionID  uuid.UUID
	RunType       domain.RunType
	RiskLevel     domain.RiskLevel
	CUIDetected   bool
	StartedAt     time.Time
	FinishedAt    time.Time
	Source        string
	Artifact      string
	Version       int
	Filename      string
	SHA256        string
	SizeBytes     int64
	ObjectRelPath string
}

// ObjectReader fetches stored bytes by relative path.
type ObjectReader interface {
	Get(ctx context.Context, relPath string) ([]byte, error)
}

var manifestHeader = []string{
	"inspection_id", "run_type", "risk_level", "cui_detected", "started_at", "finished_at",
	"source", "artifact", "version", "filename", "sha256", "size_bytes", "object_relpath",
}

// WriteManifest writes the manifest ZIP to w. When objects is non-nil every
// referenced object is copied under objects/<relpath>, and the first read
// failure aborts the export.
func WriteManifest(ctx context.Context, w io.Writer, rows []ManifestRow, objects ObjectReader) error {
	zw := zip.NewWriter(w)

	mf, err := zw.Create(ManifestCSV)
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	cw := csv.NewWriter(mf)
	if err := cw.Write(manifestHeader); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	for _, r := range rows {
		version := ""
		if r.Version > 0 {
			version = strconv.Itoa(r.Version)
		}
		rec := []string{
			r.InspectionID.String(), r.RunType.String(), r.RiskLevel.String(), strconv.FormatBool(r.CUIDetected),
			formatTime(r.StartedAt), formatTime(r.FinishedAt),
			r.Source, r.Artifact, version, r.Filename, r.SHA256,
			strconv.FormatInt(r.SizeBytes, 10), r.ObjectRelPath,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("manifest: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}

	hf, err := zw.Create(ManifestHashes)
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	var hashes strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&hashes, "%s  %s  %s\n", r.SHA256, r.Filename, r.ObjectRelPath)
	}
	if _, err := io.WriteString(hf, hashes.String()); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}

	if objects != nil {
		seen := make(map[string]struct{}, len(rows))
		for _, r := range rows {
			if _, ok := seen[r.ObjectRelPath]; ok {
				continue
			}
			seen[r.ObjectRelPath] = struct{}{}

			data, err := objects.Get(ctx, r.ObjectRelPath)
			if err != nil {
				return fmt.Errorf("manifest: %w", err)
			}
			of, err := zw.Create(objectsDir + r.ObjectRelPath)
			if err != nil {
				return fmt.Errorf("manifest: %w", err)
			}
			if _, err := of.Write(data); err != nil {
				return fmt.Errorf("manifest: %w", err)
			}
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
