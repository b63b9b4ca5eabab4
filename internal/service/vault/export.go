package vault

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/adapter/objectstore"
	"github.com/genefryaustin-source/cui-inspector/internal/domain"
	"github.com/genefryaustin-source/cui-inspector/internal/report"
	"github.com/genefryaustin-source/cui-inspector/internal/service/access"
)

// ManifestFilename is the evidence filename of a stored export archive.
const ManifestFilename = "evidence_manifest.zip"

// ExportInput selects the inspections of one tenant to export.
type ExportInput struct {
	TenantID       *uuid.UUID
	InspectionIDs  []uuid.UUID
	IncludeObjects bool
}

// ExportResult is a rendered manifest archive and the export run that recorded it.
type ExportResult struct {
	Archive    []byte
	Inspection domain.Inspection
	Rows       int
}

// ExportManifest renders a manifest ZIP of every object referenced by the
// selected inspections. The export is recorded as an export inspection whose
// summary lists the included ids, with the archive attached as evidence.
func (s *Service) ExportManifest(ctx context.Context, actor domain.Principal, input ExportInput) (ExportResult, error) {
	tenantID, err := s.gate.AuthorizeTenant(ctx, actor, access.ActionExport, input.TenantID)
	if err != nil {
		return ExportResult{}, err
	}

	ids := uniqueIDs(input.InspectionIDs)
	if len(ids) == 0 {
		return ExportResult{}, domain.NewValidationError("inspection_ids", "required")
	}

	started := time.Now().UTC()
	inspections, err := s.inspections.ListByIDs(ctx, tenantID, ids)
	if err != nil {
		return ExportResult{}, fmt.Errorf("vault.ExportManifest: %w", err)
	}
	if len(inspections) != len(ids) {
		return ExportResult{}, fmt.Errorf("vault.ExportManifest: inspections: %w", domain.ErrNotFound)
	}

	rows, err := s.manifestRows(ctx, tenantID, inspections)
	if err != nil {
		return ExportResult{}, fmt.Errorf("vault.ExportManifest: %w", err)
	}

	var objects report.ObjectReader
	if input.IncludeObjects {
		objects = s.store
	} else if err := s.checkObjects(ctx, rows); err != nil {
		return ExportResult{}, fmt.Errorf("vault.ExportManifest: %w", err)
	}

	var buf bytes.Buffer
	if err := report.WriteManifest(ctx, &buf, rows, objects); err != nil {
		if errors.Is(err, domain.ErrStorage) {
			s.log.ErrorContext(ctx, "export manifest", slog.String("error", err.Error()))
		}
		return ExportResult{}, fmt.Errorf("vault.ExportManifest: %w", err)
	}
	archive := buf.Bytes()

	var run domain.Inspection
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		run, err = s.saveInspection(ctx, actor, tenantID, SaveInspectionInput{
			RunType: domain.RunTypeExport,
			Summary: &domain.InspectionSummary{
				Filename:  ManifestFilename,
				Documents: len(ids),
				Included:  ids,
				Note:      fmt.Sprintf("%d objects", len(rows)),
			},
			StartedAt:  started,
			FinishedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		ev, _, err := s.attach(ctx, actor, tenantID, AttachInput{
			InspectionID: run.ID,
			Kind:         domain.EvidenceKindManifestZIP,
			Filename:     ManifestFilename,
			Data:         archive,
		})
		if err != nil {
			return err
		}
		return s.audit.Log(ctx, domain.NewAuditEvent(actor, &tenantID, domain.AuditExportManifest, map[string]any{
			"inspection_id":   run.ID.String(),
			"evidence_id":     ev.ID.String(),
			"included":        idStrings(ids),
			"objects":         len(rows),
			"include_objects": input.IncludeObjects,
		}))
	})
	if err != nil {
		return ExportResult{}, fmt.Errorf("vault.ExportManifest: %w", err)
	}

	s.log.InfoContext(ctx, "manifest exported",
		slog.String("tenant_id", tenantID.String()),
		slog.String("inspection_id", run.ID.String()),
		slog.Int("objects", len(rows)),
	)
	return ExportResult{Archive: archive, Inspection: run, Rows: len(rows)}, nil
}

func (s *Service) manifestRows(ctx context.Context, tenantID uuid.UUID, inspections []domain.Inspection) ([]report.ManifestRow, error) {
	var rows []report.ManifestRow
	for _, in := range inspections {
		base := report.ManifestRow{
			InspectionID: in.ID,
			RunType:      in.RunType,
			RiskLevel:    in.RiskLevel,
			CUIDetected:  in.CUIDetected,
			StartedAt:    in.StartedAt,
			FinishedAt:   in.FinishedAt,
		}

		if in.ArtifactVersionID != nil {
			v, err := s.artifacts.GetVersion(ctx, tenantID, *in.ArtifactVersionID)
			if err != nil {
				return nil, fmt.Errorf("artifact version: %w", err)
			}
			a, err := s.artifacts.GetByID(ctx, tenantID, v.ArtifactID)
			if err != nil {
				return nil, fmt.Errorf("artifact: %w", err)
			}
			row := base
			row.Source = report.SourceVersion
			row.Artifact = a.LogicalKey
			row.Version = v.VersionInt
			row.Filename = v.OriginalFilename
			row.SHA256 = v.SHA256
			row.SizeBytes = v.SizeBytes
			row.ObjectRelPath = v.ObjectRelPath
			rows = append(rows, row)
		}

		files, err := s.evidence.ListByInspection(ctx, tenantID, in.ID)
		if err != nil {
			return nil, fmt.Errorf("evidence: %w", err)
		}
		for _, f := range files {
			row := base
			row.Source = f.Kind.String()
			row.Filename = f.Filename
			row.SHA256 = f.SHA256
			row.SizeBytes = f.SizeBytes
			row.ObjectRelPath = f.ObjectRelPath
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (s *Service) checkObjects(ctx context.Context, rows []report.ManifestRow) error {
	for _, r := range rows {
		ok, err := s.store.Exists(ctx, r.ObjectRelPath)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.StorageError{Op: "export", Path: r.ObjectRelPath, Err: objectstore.ErrObjectMissing}
		}
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != uuid.Nil && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
