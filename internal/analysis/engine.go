// Package analysis turns raw text into a scored, explained CUI verdict.
package analysis

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
	"github.com/genefryaustin-source/cui-inspector/internal/ruleset"
)

const (
	maxExplicitHits = 8
	maxContextHits  = 10
	maxHits         = 40
	contextCap      = 12

	markingConfidence = 0.92
	contextConfidence = 0.80
	absenceConfidence = 0.78
	keywordConfidence = 0.72
)

// rulesetSource resolves rulesets by name.
type rulesetSource interface {
	Get(name string) (*ruleset.Ruleset, error)
	Names() []string
}

// Engine is a pure function of (text, ruleset) packaged with its ruleset source.
type Engine struct {
	rulesets rulesetSource
}

// NewEngine creates an Engine over the given rulesets.
func NewEngine(rulesets rulesetSource) *Engine {
	return &Engine{rulesets: rulesets}
}

// Rulesets lists the names the engine can analyze with.
func (e *Engine) Rulesets() []string {
	return e.rulesets.Names()
}

// Analyze scans text with the named ruleset and builds the full findings record.
// An unknown ruleset is a ConfigurationError. Empty text is not an error.
func (e *Engine) Analyze(text, rulesetName string) (domain.Findings, error) {
	rs, err := e.rulesets.Get(rulesetName)
	if err != nil {
		return domain.Findings{}, err
	}
	return Evaluate(rs, text), nil
}

// Redact replaces pattern matches of the named ruleset in text with markers.
func (e *Engine) Redact(text, rulesetName string) (string, error) {
	rs, err := e.rulesets.Get(rulesetName)
	if err != nil {
		return "", err
	}
	return ruleset.Redact(rs, text), nil
}

// Evaluate scores one scan result.
func Evaluate(rs *ruleset.Ruleset, text string) domain.Findings {
	res := ruleset.Scan(rs, text)

	f := domain.Findings{
		Ruleset:         rs.Name,
		MissingMarkings: res.MissingMarkings,
		PatternsFound:   make(map[string]int, len(res.Patterns)),
		Counts: domain.TextCounts{
			Characters:    utf8.RuneCountInString(text),
			Words:         len(strings.Fields(text)),
			PatternsTotal: res.PatternsTotal(),
		},
	}

	var hits []domain.Hit
	for _, m := range res.Explicit[:min(len(res.Explicit), maxExplicitHits)] {
		f.ExplicitMarkings = append(f.ExplicitMarkings, domain.PhraseHit{Phrase: m.Phrase, Excerpt: m.Excerpt})
		hits = append(hits, domain.Hit{
			Kind: domain.HitKindMarking, Name: "explicit_marking", Category: "Explicitly Marked CUI",
			Confidence: markingConfidence, Excerpt: m.Excerpt,
		})
	}
	for _, m := range res.Context[:min(len(res.Context), maxContextHits)] {
		f.ContextHits = append(f.ContextHits, domain.PhraseHit{Phrase: m.Phrase, Excerpt: m.Excerpt})
		hits = append(hits, domain.Hit{
			Kind: domain.HitKindContext, Name: "handling_context", Category: "Handling / Dissemination",
			Confidence: contextConfidence, Excerpt: m.Excerpt,
		})
	}
	for _, p := range res.Patterns {
		f.PatternsFound[p.Name] = p.Count
		for _, ex := range p.Excerpts {
			f.DetectedPatterns = append(f.DetectedPatterns, domain.PatternHit{
				Pattern: p.Name, Category: p.Category, Confidence: p.Confidence, Excerpt: ex,
			})
			hits = append(hits, domain.Hit{
				Kind: domain.HitKindPattern, Name: p.Name, Category: p.Category,
				Confidence: p.Confidence, Excerpt: ex,
			})
		}
	}
	if res.MissingMarkings {
		hits = append(hits, domain.Hit{
			Kind: domain.HitKindAbsence, Name: "missing_markings", Category: "Missing Markings",
			Confidence: absenceConfidence,
			Excerpt:    "Document contains handling/dissemination indicators without explicit CUI markings.",
		})
	}
	for _, m := range res.Keywords {
		f.KeywordsFound = append(f.KeywordsFound, m.Phrase)
		hits = append(hits, domain.Hit{
			Kind: domain.HitKindKeyword, Name: "keyword_trigger", Category: "Keyword Trigger",
			Confidence: keywordConfidence, Excerpt: m.Excerpt,
		})
	}
	f.Hits = hits[:min(len(hits), maxHits)]

	f.RiskScore = Score(rs.Weights, Signals{
		Explicit:        len(res.Explicit),
		Context:         len(res.Context),
		Patterns:        res.PatternsTotal(),
		Keywords:        len(res.Keywords),
		Categories:      len(res.Categories),
		MissingMarkings: res.MissingMarkings,
	})
	f.RiskLevel = domain.RiskLevelForScore(f.RiskScore)
	f.CUIDetected = len(res.Explicit) > 0 || len(res.Patterns) > 0 || (len(res.Context) > 0 && res.MissingMarkings)
	f.Categories = sortedCategories(res.Categories)
	f.Signals = signals(res)
	f.Recommendations = Recommendations(f.CUIDetected, f.RiskLevel, f.RiskScore, f.MissingMarkings)
	if f.CUIDetected {
		f.ComplianceMapping = ComplianceMapping()
	}
	return f
}

// Signals are the counts that feed the score.
type Signals struct {
	Explicit        int
	Context         int
	Patterns        int
	Keywords        int
	Categories      int
	MissingMarkings bool
}

// Score applies the additive weights and clamps the result to [0,100].
func Score(w ruleset.Weights, s Signals) int {
	score := float64(s.Explicit) * w.ExplicitMarking
	score += float64(min(s.Context, contextCap)) * w.Context
	score += float64(s.Patterns) * w.Pattern
	if s.MissingMarkings {
		score += w.MissingMarkingsBonus
	}
	score += float64(s.Keywords) * w.Keyword
	if s.Categories >= 2 {
		score += w.MultiCategoryBonus
	}
	return int(math.Max(0, math.Min(100, math.Round(score))))
}

func sortedCategories(cats map[string]float64) []domain.CategoryScore {
	out := make([]domain.CategoryScore, 0, len(cats))
	for c, conf := range cats {
		out = append(out, domain.CategoryScore{Category: c, Confidence: math.Round(conf*100) / 100})
	}
	slices.SortFunc(out, func(a, b domain.CategoryScore) int {
		if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return out
}

func signals(res ruleset.Result) []string {
	var out []string
	if len(res.Explicit) > 0 {
		out = append(out, "Explicit CUI context / markings present")
	}
	if len(res.Context) > 0 {
		out = append(out, "Handling/dissemination context present")
	}
	if len(res.Patterns) > 0 {
		out = append(out, "Structured patterns detected")
	}
	if res.MissingMarkings {
		out = append(out, "Missing required markings (heuristic)")
	}
	if len(out) == 0 {
		out = append(out, "No strong indicators detected")
	}
	return out
}
