package domain

// Findings is the fixed-schema result of analyzing one text with one ruleset.
type Findings struct {
	Ruleset           string             `json:"ruleset"`
	RiskLevel         RiskLevel          `json:"risk_level"`
	RiskScore         int                `json:"risk_score"`
	CUIDetected       bool               `json:"cui_detected"`
	MissingMarkings   bool               `json:"missing_markings_heuristic"`
	Categories        []CategoryScore    `json:"categories"`
	PatternsFound     map[string]int     `json:"patterns_found"`
	ExplicitMarkings  []PhraseHit        `json:"explicit_markings"`
	ContextHits       []PhraseHit        `json:"context_hits"`
	DetectedPatterns  []PatternHit       `json:"detected_patterns"`
	Hits              []Hit              `json:"hits"`
	KeywordsFound     []string           `json:"keywords_found"`
	Signals           []string           `json:"signals"`
	Recommendations   []string           `json:"recommendations"`
	ComplianceMapping *ComplianceMapping `json:"compliance_mapping,omitempty"`
	Counts            TextCounts         `json:"counts"`
	Error             string             `json:"error,omitempty"`
}

// CategoryScore is the best pattern confidence seen for a category.
type CategoryScore struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// PhraseHit records a matched phrase and a bounded excerpt around it.
type PhraseHit struct {
	Phrase  string `json:"phrase"`
	Excerpt string `json:"excerpt"`
}

// PatternHit records one regular-expression match.
type PatternHit struct {
	Pattern    string  `json:"pattern"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Excerpt    string  `json:"excerpt"`
}

// HitKind classifies an entry of the flattened hit list.
type HitKind string

const (
	HitKindMarking HitKind = "marking"
	HitKindContext HitKind = "context"
	HitKindPattern HitKind = "pattern"
	HitKindAbsence HitKind = "absence"
	HitKindKeyword HitKind = "keyword"
)

// Hit is one traceable signal with a bounded excerpt.
type Hit struct {
	Kind       HitKind `json:"kind"`
	Name       string  `json:"name"`
	Category   string  `json:"category,omitempty"`
	Confidence float64 `json:"confidence"`
	Excerpt    string  `json:"excerpt"`
}

// TextCounts summarizes the analyzed text without retaining it.
type TextCounts struct {
	Characters    int `json:"characters"`
	Words         int `json:"words"`
	PatternsTotal int `json:"patterns_total"`
}

// ComplianceMapping lists controls relevant to a positive detection, per framework.
type ComplianceMapping struct {
	Frameworks []FrameworkControls `json:"frameworks"`
	Notes      string              `json:"notes"`
}

// FrameworkControls is one named framework and its controls.
type FrameworkControls struct {
	Framework string    `json:"framework"`
	Controls  []Control `json:"controls"`
}

// Control is a control id and title pair.
type Control struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ErrorFindings builds the result recorded for a document that could not be analyzed.
func ErrorFindings(ruleset string, err error) Findings {
	return Findings{
		Ruleset:       ruleset,
		RiskLevel:     RiskLevelError,
		PatternsFound: map[string]int{},
		Error:         err.Error(),
	}
}
