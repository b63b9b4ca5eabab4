// Package ruleset holds named bundles of detection rules and the pure scan
// that evaluates them against extracted text.
package ruleset

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

// Pattern is a named regular expression with the category it signals.
type Pattern struct {
	Name       string  `yaml:"name"`
	Regex      string  `yaml:"regex"`
	Category   string  `yaml:"category"`
	Confidence float64 `yaml:"confidence"`

	re *regexp.Regexp
}

// Weights are the additive contributions of each signal to the risk score.
type Weights struct {
	ExplicitMarking      float64 `yaml:"explicit_marking"`
	Context              float64 `yaml:"context"`
	Pattern              float64 `yaml:"pattern"`
	Keyword              float64 `yaml:"keyword"`
	MissingMarkingsBonus float64 `yaml:"missing_markings_bonus"`
	MultiCategoryBonus   float64 `yaml:"multi_category_bonus"`
}

// Ruleset is an immutable named bundle of rules. Build one with Compile;
// a Ruleset obtained from a Registry is safe for concurrent use.
type Ruleset struct {
	Name             string    `yaml:"name"`
	Description      string    `yaml:"description"`
	ExplicitMarkings []string  `yaml:"explicit_markings"`
	ContextPhrases   []string  `yaml:"context_phrases"`
	Patterns         []Pattern `yaml:"patterns"`
	Keywords         []string  `yaml:"keywords"`
	Weights          Weights   `yaml:"weights"`

	explicit []phrase
	context  []phrase
	keywords []phrase
}

// phrase is a literal matched case-insensitively against the original text,
// so match offsets stay valid for excerpting.
type phrase struct {
	text string
	re   *regexp.Regexp
}

// Compile validates the ruleset and prepares its matchers.
// Violations are reported as a ConfigurationError.
func (rs *Ruleset) Compile() error {
	if strings.TrimSpace(rs.Name) == "" {
		return &domain.ConfigurationError{Ruleset: rs.Name, Reason: "name is required"}
	}

	seen := make(map[string]struct{}, len(rs.Patterns))
	for i := range rs.Patterns {
		p := &rs.Patterns[i]
		if p.Name == "" {
			return &domain.ConfigurationError{Ruleset: rs.Name, Reason: fmt.Sprintf("pattern %d has no name", i)}
		}
		if _, dup := seen[p.Name]; dup {
			return &domain.ConfigurationError{Ruleset: rs.Name, Reason: fmt.Sprintf("duplicate pattern %q", p.Name)}
		}
		seen[p.Name] = struct{}{}
		if math.IsNaN(p.Confidence) || p.Confidence < 0 || p.Confidence > 1 {
			return &domain.ConfigurationError{Ruleset: rs.Name, Reason: fmt.Sprintf("pattern %q confidence %v outside [0,1]", p.Name, p.Confidence)}
		}
		re, err := regexp.Compile("(?i)" + p.Regex)
		if err != nil {
			return &domain.ConfigurationError{Ruleset: rs.Name, Reason: fmt.Sprintf("pattern %q: %v", p.Name, err)}
		}
		p.re = re
	}
	if err := rs.Weights.validate(); err != nil {
		return &domain.ConfigurationError{Ruleset: rs.Name, Reason: err.Error()}
	}

	rs.explicit = compilePhrases(rs.ExplicitMarkings)
	rs.context = compilePhrases(rs.ContextPhrases)
	rs.keywords = compilePhrases(rs.Keywords)
	return nil
}

// validate requires every weight to be finite and non-negative.
func (w Weights) validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"explicit_marking", w.ExplicitMarking},
		{"context", w.Context},
		{"pattern", w.Pattern},
		{"keyword", w.Keyword},
		{"missing_markings_bonus", w.MissingMarkingsBonus},
		{"multi_category_bonus", w.MultiCategoryBonus},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return fmt.Errorf("weight %s %v must be a finite non-negative number", f.name, f.v)
		}
	}
	return nil
}

func compilePhrases(list []string) []phrase {
	out := make([]phrase, 0, len(list))
	for _, p := range list {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, phrase{text: p, re: regexp.MustCompile("(?i)" + regexp.QuoteMeta(p))})
	}
	return out
}

func mustCompile(rs *Ruleset) *Ruleset {
	if err := rs.Compile(); err != nil {
		panic(err)
	}
	return rs
}
