package analysis

import (
	"slices"
	"strconv"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

// Delta is one compared field between two inspections.
type Delta struct {
	Key   string `json:"key"`
	A     string `json:"a"`
	B     string `json:"b"`
	Delta string `json:"delta"`
}

// Compare lists the differences between two stored inspections. Numeric rows
// carry b-a in Delta; other rows carry "changed" or "".
func Compare(a, b domain.Inspection) []Delta {
	rows := []Delta{
		numeric("risk_score", a.RiskScore, b.RiskScore),
		textual("risk_level", a.RiskLevel.String(), b.RiskLevel.String()),
		textual("cui_detected", strconv.FormatBool(a.CUIDetected), strconv.FormatBool(b.CUIDetected)),
		numeric("patterns_total", a.Summary.Counts.PatternsTotal, b.Summary.Counts.PatternsTotal),
	}

	for _, name := range unionKeys(a.Patterns, b.Patterns) {
		rows = append(rows, numeric("pattern:"+name, a.Patterns[name], b.Patterns[name]))
	}

	ca, cb := categoryMap(a.Categories), categoryMap(b.Categories)
	for _, name := range unionKeys(ca, cb) {
		rows = append(rows, Delta{
			Key:   "category:" + name,
			A:     strconv.FormatFloat(ca[name], 'f', 2, 64),
			B:     strconv.FormatFloat(cb[name], 'f', 2, 64),
			Delta: strconv.FormatFloat(cb[name]-ca[name], 'f', 2, 64),
		})
	}
	return rows
}

func numeric(key string, a, b int) Delta {
	return Delta{Key: key, A: strconv.Itoa(a), B: strconv.Itoa(b), Delta: strconv.Itoa(b - a)}
}

func textual(key, a, b string) Delta {
	d := Delta{Key: key, A: a, B: b}
	if a != b {
		d.Delta = "changed"
	}
	return d
}

func categoryMap(cats []domain.CategoryScore) map[string]float64 {
	m := make(map[string]float64, len(cats))
	for _, c := range cats {
		m[c.Category] = c.Confidence
	}
	return m
}

func unionKeys[V any](a, b map[string]V) []string {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}
