package ruleset

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

func TestRegistry_Builtins(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry()
	require.NoError(t, err)

	assert.Equal(t, []string{Basic, DoD}, reg.Names())

	dod, err := reg.Get(DoD)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, dod.Weights.Pattern, 1e-9)
}

func TestRegistry_UnknownIsConfigurationError(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry()
	require.NoError(t, err)

	_, err = reg.Get("Nope")

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "Nope", cfgErr.Ruleset)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRegistry_RejectsDuplicateName(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry(&Ruleset{Name: Basic})

	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRuleset_CompileValidates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rs   Ruleset
	}{
		{name: "missing name", rs: Ruleset{}},
		{name: "bad regex", rs: Ruleset{Name: "x", Patterns: []Pattern{{Name: "p", Regex: "(", Confidence: 0.5}}}},
		{name: "confidence out of range", rs: Ruleset{Name: "x", Patterns: []Pattern{{Name: "p", Regex: "a", Confidence: 1.5}}}},
		{name: "duplicate pattern", rs: Ruleset{Name: "x", Patterns: []Pattern{{Name: "p", Regex: "a"}, {Name: "p", Regex: "b"}}}},
		{name: "NaN confidence", rs: Ruleset{Name: "x", Patterns: []Pattern{{Name: "p", Regex: "a", Confidence: math.NaN()}}}},
		{name: "negative weight", rs: Ruleset{Name: "x", Weights: Weights{Pattern: -18}}},
		{name: "NaN weight", rs: Ruleset{Name: "x", Weights: Weights{Context: math.NaN()}}},
		{name: "infinite weight", rs: Ruleset{Name: "x", Weights: Weights{MultiCategoryBonus: math.Inf(1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rs := tt.rs
			assert.ErrorIs(t, rs.Compile(), domain.ErrConfiguration)
		})
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	src := `
rulesets:
  - name: Export Only
    explicit_markings: ["cui"]
    patterns:
      - name: ECCN
        regex: '\b\d[A-E]\d{3}\b'
        category: "CUI//SP-EXPT (export)"
        confidence: 0.8
    weights:
      explicit_marking: 10
      pattern: 25
`
	sets, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, sets, 1)

	res := Scan(sets[0], "classification 5A002 applies")
	require.Len(t, res.Patterns, 1)
	assert.Equal(t, "ECCN", res.Patterns[0].Name)

	reg, err := NewRegistry(sets...)
	require.NoError(t, err)
	assert.Contains(t, reg.Names(), "Export Only")
}

func TestDecode_NegativeWeightRejected(t *testing.T) {
	t.Parallel()

	_, err := Decode(strings.NewReader("rulesets:\n  - name: x\n    weights:\n      pattern: -18\n"))

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestDecode_UnknownFieldRejected(t *testing.T) {
	t.Parallel()

	_, err := Decode(strings.NewReader("rulesets:\n  - name: x\n    bogus: 1\n"))

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
