package report

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

func detectedFindings() domain.Findings {
	return domain.Findings{
		Ruleset:         "Basic",
		RiskLevel:       domain.RiskLevelMedium,
		RiskScore:       32,
		CUIDetected:     true,
		MissingMarkings: true,
		Categories:      []domain.CategoryScore{{Category: "privacy", Confidence: 0.9}},
		PatternsFound:   map[string]int{"SSN": 1},
		DetectedPatterns: []domain.PatternHit{
			{Pattern: "SSN", Category: "privacy", Confidence: 0.9, Excerpt: "SSN: 123-45-6789"},
		},
		Recommendations: []string{"Apply markings.", "Add banner."},
		ComplianceMapping: &domain.ComplianceMapping{
			Frameworks: []domain.FrameworkControls{{Framework: "CMMC_Level_2", Controls: []domain.Control{{ID: "AC.1.001", Title: "Limit access"}}}},
		},
	}
}

var testMeta = Meta{
	Filename:   "memo.txt",
	SHA256:     "ab" + string(bytes.Repeat([]byte("0"), 62)),
	UploadedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
}

func TestBuild_Detected(t *testing.T) {
	t.Parallel()

	files, err := Build(testMeta, detectedFindings(), testMeta.UploadedAt)
	require.NoError(t, err)

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
		assert.True(t, f.Kind.IsValid(), f.Name)
	}
	assert.Equal(t, []string{FileReport, FileFindings, FileMapping, FileSummary, FileRecommendations}, names)

	var doc struct {
		Inspection struct {
			Filename  string `json:"filename"`
			RiskScore int    `json:"risk_score"`
		} `json:"inspection"`
		DetectedPatterns []domain.PatternHit `json:"detected_patterns"`
	}
	require.NoError(t, json.Unmarshal(files[1].Data, &doc))
	assert.Equal(t, "memo.txt", doc.Inspection.Filename)
	assert.Equal(t, 32, doc.Inspection.RiskScore)
	assert.Len(t, doc.DetectedPatterns, 1)
}

func TestBuild_NotDetectedOmitsMapping(t *testing.T) {
	t.Parallel()

	f := domain.Findings{Ruleset: "Basic", RiskLevel: domain.RiskLevelLow, Recommendations: []string{"No indicators."}}
	files, err := Build(testMeta, f, testMeta.UploadedAt)
	require.NoError(t, err)

	for _, file := range files {
		assert.NotEqual(t, FileMapping, file.Name)
	}
	assert.Len(t, files, 4)
}

func TestSummaryCSV(t *testing.T) {
	t.Parallel()

	data, err := SummaryCSV(testMeta, detectedFindings())
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, summaryHeader, rows[0])
	assert.Equal(t, "memo.txt", rows[1][0])
	assert.Equal(t, "true", rows[1][7])
	assert.Equal(t, "privacy", rows[1][8])
	assert.Equal(t, "pattern_hit", rows[2][9])
	assert.Equal(t, "0.9", rows[2][12])
}

func TestRecommendations(t *testing.T) {
	t.Parallel()

	got := string(Recommendations([]string{"First.", "Second."}))
	assert.Contains(t, got, "1. First.\n2. Second.\n")
}

type mapReader map[string][]byte

func (m mapReader) Get(_ context.Context, rel string) ([]byte, error) {
	data, ok := m[rel]
	if !ok {
		return nil, &domain.StorageError{Op: "get", Path: rel, Err: errors.New("missing")}
	}
	return data, nil
}

func manifestRows() []ManifestRow {
	id := uuid.New()
	return []ManifestRow{
		{InspectionID: id, RunType: domain.RunTypeSingle, RiskLevel: domain.RiskLevelHigh, CUIDetected: true,
			Source: SourceVersion, Artifact: "memo.txt", Version: 2, Filename: "memo.txt",
			SHA256: "aa11", SizeBytes: 5, ObjectRelPath: "objects/aa/aa11"},
		{InspectionID: id, RunType: domain.RunTypeSingle, RiskLevel: domain.RiskLevelHigh, CUIDetected: true,
			Source: "report_json", Filename: FileReport,
			SHA256: "bb22", SizeBytes: 3, ObjectRelPath: "objects/bb/bb22"},
	}
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = string(b)
	}
	return out
}

func TestWriteManifest_WithoutObjects(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteManifest(context.Background(), &buf, manifestRows(), nil))

	entries := readZip(t, buf.Bytes())
	assert.Len(t, entries, 2)
	assert.Equal(t,
		"aa11  memo.txt  objects/aa/aa11\nbb22  analysis_report.json  objects/bb/bb22\n",
		entries[ManifestHashes])

	rows, err := csv.NewReader(bytes.NewReader([]byte(entries[ManifestCSV]))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2", rows[1][8])
	assert.Equal(t, "", rows[2][8])
}

func TestWriteManifest_WithObjects(t *testing.T) {
	t.Parallel()

	objects := mapReader{"objects/aa/aa11": []byte("hello"), "objects/bb/bb22": []byte("{}\n")}
	var buf bytes.Buffer
	require.NoError(t, WriteManifest(context.Background(), &buf, manifestRows(), objects))

	entries := readZip(t, buf.Bytes())
	assert.Equal(t, "hello", entries["objects/objects/aa/aa11"])
	assert.Equal(t, "{}\n", entries["objects/objects/bb/bb22"])
}

func TestWriteManifest_MissingObjectFails(t *testing.T) {
	t.Parallel()

	objects := mapReader{"objects/aa/aa11": []byte("hello")}
	err := WriteManifest(context.Background(), io.Discard, manifestRows(), objects)
	assert.ErrorIs(t, err, domain.ErrStorage)
}
