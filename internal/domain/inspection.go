package domain

import (
	"time"

	"github.com/google/uuid"
)

// Inspection is one append-only analysis run. It stores only derived fields,
// never the analyzed text.
type Inspection struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	ArtifactVersionID *uuid.UUID
	RunType           RunType
	Ruleset           string
	StartedAt         time.Time
	FinishedAt        time.Time
	CUIDetected       bool
	RiskLevel         RiskLevel
	RiskScore         int
	Patterns          map[string]int
	Categories        []CategoryScore
	Summary           InspectionSummary
	CreatedBy         *uuid.UUID
	CreatedAt         time.Time
}

// InspectionSummary is the short JSON payload kept next to an inspection.
type InspectionSummary struct {
	Filename        string      `json:"filename,omitempty"`
	MissingMarkings bool        `json:"missing_markings,omitempty"`
	Signals         []string    `json:"signals,omitempty"`
	Counts          TextCounts  `json:"counts"`
	Documents       int         `json:"documents,omitempty"`
	Failed          int         `json:"failed,omitempty"`
	Included        []uuid.UUID `json:"included,omitempty"`
	Note            string      `json:"note,omitempty"`
	Error           string      `json:"error,omitempty"`
}

// SummaryFromFindings extracts the persisted summary of a findings record.
func SummaryFromFindings(filename string, f Findings) InspectionSummary {
	return InspectionSummary{
		Filename:        filename,
		MissingMarkings: f.MissingMarkings,
		Signals:         f.Signals,
		Counts:          f.Counts,
		Error:           f.Error,
	}
}

// TextIndexEntry is a bounded, redacted excerpt used for search.
type TextIndexEntry struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	InspectionID      uuid.UUID
	ArtifactVersionID *uuid.UUID
	Filename          string
	FileExt           string
	Excerpt           string
	WordCount         int
	CharCount         int
	PatternsTotal     int
	Categories        []CategoryScore
	RiskLevel         RiskLevel
	CreatedAt         time.Time
}
