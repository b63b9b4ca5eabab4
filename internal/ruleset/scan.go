package ruleset

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	excerptPad    = 60
	excerptMax    = 240
	excerptSuffix = "…"

	// MaxPatternExcerpts caps the stored excerpts per pattern.
	MaxPatternExcerpts = 8
)

// PhraseMatch is a phrase found in the text with an excerpt around its first occurrence.
type PhraseMatch struct {
	Phrase  string
	Excerpt string
}

// PatternMatch is a pattern that matched at least once.
type PatternMatch struct {
	Name       string
	Category   string
	Confidence float64
	Count      int
	Excerpts   []string
}

// Result is the raw outcome of scanning one text. It holds only excerpts,
// never the full text.
type Result struct {
	Explicit        []PhraseMatch
	Context         []PhraseMatch
	Patterns        []PatternMatch
	Keywords        []PhraseMatch
	Categories      map[string]float64
	MissingMarkings bool
}

// PatternsTotal is the sum of all pattern match counts.
func (r Result) PatternsTotal() int {
	total := 0
	for _, p := range r.Patterns {
		total += p.Count
	}
	return total
}

// Scan evaluates rs against text. It performs no I/O and keeps no state.
func Scan(rs *Ruleset, text string) Result {
	res := Result{Categories: map[string]float64{}}
	if text == "" {
		return res
	}

	res.Explicit = findPhrases(rs.explicit, text)
	res.Context = findPhrases(rs.context, text)

	for i := range rs.Patterns {
		p := &rs.Patterns[i]
		locs := p.re.FindAllStringIndex(text, -1)
		if len(locs) == 0 {
			continue
		}
		m := PatternMatch{
			Name:       p.Name,
			Category:   p.Category,
			Confidence: p.Confidence,
			Count:      len(locs),
		}
		for _, loc := range locs[:min(len(locs), MaxPatternExcerpts)] {
			m.Excerpts = append(m.Excerpts, Excerpt(text, loc[0], loc[1]))
		}
		res.Patterns = append(res.Patterns, m)

		// A category is only as confident as its best single pattern.
		if p.Category != "" && p.Confidence > res.Categories[p.Category] {
			res.Categories[p.Category] = p.Confidence
		}
	}

	res.MissingMarkings = len(res.Explicit) == 0 && (len(res.Context) > 0 || len(res.Patterns) > 0)
	res.Keywords = findPhrases(rs.keywords, text)
	return res
}

func findPhrases(list []phrase, text string) []PhraseMatch {
	var out []PhraseMatch
	for _, p := range list {
		loc := p.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		out = append(out, PhraseMatch{Phrase: p.text, Excerpt: Excerpt(text, loc[0], loc[1])})
	}
	return out
}

// Excerpt returns the text around [start,end) widened by 60 characters on
// each side, with newlines flattened and the result cut to 240 characters.
func Excerpt(text string, start, end int) string {
	s := start
	for i := 0; i < excerptPad && s > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:s])
		s -= size
	}
	e := end
	for i := 0; i < excerptPad && e < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[e:])
		e += size
	}

	snippet := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text[s:e])
	snippet = strings.TrimSpace(snippet)
	if utf8.RuneCountInString(snippet) > excerptMax {
		runes := []rune(snippet)
		return string(runes[:excerptMax]) + excerptSuffix
	}
	return snippet
}

// Redact replaces every pattern match in text with a [REDACTED:<name>] marker.
// Overlapping matches are resolved in favour of the earliest start.
func Redact(rs *Ruleset, text string) string {
	type span struct {
		start, end int
		name       string
	}
	var spans []span
	for i := range rs.Patterns {
		p := &rs.Patterns[i]
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			spans = append(spans, span{start: loc[0], end: loc[1], name: p.Name})
		}
	}
	if len(spans) == 0 {
		return text
	}
	slices.SortStableFunc(spans, func(a, b span) int { return cmp.Compare(a.start, b.start) })

	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for _, sp := range spans {
		if sp.start < pos {
			continue
		}
		b.WriteString(text[pos:sp.start])
		b.WriteString("[REDACTED:" + sp.name + "]")
		pos = sp.end
	}
	b.WriteString(text[pos:])
	return b.String()
}
