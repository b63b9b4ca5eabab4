// Package report renders the deterministic evidence byproducts of a scan.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

// Byproduct file names.
const (
	FileReport          = "analysis_report.json"
	FileFindings        = "cui_findings.json"
	FileMapping         = "compliance_mapping.json"
	FileSummary         = "analysis_summary.csv"
	FileRecommendations = "recommendations.txt"
)

// maxSummaryPatternRows caps the pattern rows in the CSV summary.
const maxSummaryPatternRows = 200

// Meta identifies the source document of a report.
type Meta struct {
	Filename   string    `json:"filename"`
	SHA256     string    `json:"sha256,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// File is one rendered byproduct ready to be attached as evidence.
type File struct {
	Name string
	Kind domain.EvidenceKind
	Data []byte
}

// Build renders every byproduct for one analyzed document. The mapping file is
// only produced when CUI was detected.
func Build(meta Meta, f domain.Findings, generatedAt time.Time) ([]File, error) {
	reportJSON, err := marshal(struct {
		Meta        Meta            `json:"meta"`
		Analysis    domain.Findings `json:"analysis"`
		GeneratedAt time.Time       `json:"generated_at"`
	}{meta, f, generatedAt.UTC()})
	if err != nil {
		return nil, fmt.Errorf("report: %s: %w", FileReport, err)
	}

	findingsJSON, err := marshal(findingsDoc{
		Inspection: inspectionHeader{
			Filename:    meta.Filename,
			SHA256:      meta.SHA256,
			UploadedAt:  meta.UploadedAt.UTC(),
			Ruleset:     f.Ruleset,
			RiskLevel:   f.RiskLevel,
			RiskScore:   f.RiskScore,
			CUIDetected: f.CUIDetected,
		},
		Signals:           f.Signals,
		Categories:        f.Categories,
		DetectedPatterns:  f.DetectedPatterns,
		Recommendations:   f.Recommendations,
		ComplianceMapping: f.ComplianceMapping,
	})
	if err != nil {
		return nil, fmt.Errorf("report: %s: %w", FileFindings, err)
	}

	summary, err := SummaryCSV(meta, f)
	if err != nil {
		return nil, fmt.Errorf("report: %s: %w", FileSummary, err)
	}

	files := []File{
		{Name: FileReport, Kind: domain.EvidenceKindReportJSON, Data: reportJSON},
		{Name: FileFindings, Kind: domain.EvidenceKindFindingsJSON, Data: findingsJSON},
	}
	if f.CUIDetected && f.ComplianceMapping != nil {
		mapping, err := marshal(f.ComplianceMapping)
		if err != nil {
			return nil, fmt.Errorf("report: %s: %w", FileMapping, err)
		}
		files = append(files, File{Name: FileMapping, Kind: domain.EvidenceKindMappingJSON, Data: mapping})
	}
	files = append(files,
		File{Name: FileSummary, Kind: domain.EvidenceKindSummaryCSV, Data: summary},
		File{Name: FileRecommendations, Kind: domain.EvidenceKindRecommendations, Data: Recommendations(f.Recommendations)},
	)
	return files, nil
}

type inspectionHeader struct {
	Filename    string           `json:"filename"`
	SHA256      string           `json:"sha256,omitempty"`
	UploadedAt  time.Time        `json:"uploaded_at"`
	Ruleset     string           `json:"ruleset"`
	RiskLevel   domain.RiskLevel `json:"risk_level"`
	RiskScore   int              `json:"risk_score"`
	CUIDetected bool             `json:"cui_detected"`
}

type findingsDoc struct {
	Inspection        inspectionHeader          `json:"inspection"`
	Signals           []string                  `json:"signals"`
	Categories        []domain.CategoryScore    `json:"cui_categories"`
	DetectedPatterns  []domain.PatternHit       `json:"detected_patterns"`
	Recommendations   []string                  `json:"recommendations"`
	ComplianceMapping *domain.ComplianceMapping `json:"compliance_mapping,omitempty"`
}

var summaryHeader = []string{
	"filename", "sha256", "uploaded_at", "ruleset", "risk_level", "risk_score",
	"cui_detected", "missing_markings_heuristic", "cui_categories",
	"type", "pattern", "category", "confidence", "excerpt",
}

// SummaryCSV renders one document row followed by up to 200 pattern hit rows.
func SummaryCSV(meta Meta, f domain.Findings) ([]byte, error) {
	cats := make([]string, 0, len(f.Categories))
	for _, c := range f.Categories {
		cats = append(cats, c.Category)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	rows := [][]string{
		summaryHeader,
		{
			meta.Filename, meta.SHA256, meta.UploadedAt.UTC().Format(time.RFC3339),
			f.Ruleset, f.RiskLevel.String(), strconv.Itoa(f.RiskScore),
			strconv.FormatBool(f.CUIDetected), strconv.FormatBool(f.MissingMarkings),
			strings.Join(cats, ";"), "", "", "", "", "",
		},
	}
	for _, p := range f.DetectedPatterns[:min(len(f.DetectedPatterns), maxSummaryPatternRows)] {
		rows = append(rows, []string{
			"", "", "", "", "", "", "", "", "",
			"pattern_hit", p.Pattern, p.Category, strconv.FormatFloat(p.Confidence, 'f', -1, 64), p.Excerpt,
		})
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Recommendations renders a numbered plain text list.
func Recommendations(recs []string) []byte {
	var b strings.Builder
	b.WriteString("CUI Inspector Recommendations\n")
	b.WriteString("=============================\n\n")
	for i, r := range recs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}
	return []byte(b.String())
}

func marshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
