package ruleset

// Built-in ruleset names.
const (
	Basic = "Basic"
	DoD   = "DoD / GovCon"
)

func builtins() []*Ruleset {
	return []*Ruleset{
		mustCompile(&Ruleset{
			Name:        Basic,
			Description: "Balanced detection. Email is sensitive, not CUI.",
			ExplicitMarkings: []string{
				"controlled unclassified information",
				"cui",
				"cui//",
				"fouo",
				"for official use only",
			},
			ContextPhrases: []string{
				"improper dissemination",
				"unauthorized sharing",
				"missing markings",
				"do not distribute",
				"distribution statement",
				"export controlled",
				"limited dissemination",
				"need to know",
			},
			Patterns: []Pattern{
				{Name: "SSN", Regex: `\b\d{3}-\d{2}-\d{4}\b`, Category: "CUI//SP-PRIV (privacy)", Confidence: 0.90},
				{Name: "DoD_ID", Regex: `\b\d{10}\b`, Category: "CUI//SP-PRIV (identifier)", Confidence: 0.78},
			},
			Keywords: []string{"itar", "ear", "dfars", "nara cui registry"},
			Weights: Weights{
				ExplicitMarking:      16,
				Context:              6,
				Pattern:              18,
				Keyword:              5,
				MissingMarkingsBonus: 14,
				MultiCategoryBonus:   10,
			},
		}),
		mustCompile(&Ruleset{
			Name:        DoD,
			Description: "Stricter profile for defense contractors.",
			ExplicitMarkings: []string{
				"controlled unclassified information",
				"cui",
				"cui//",
				"fouo",
				"for official use only",
				"distribution statement",
			},
			ContextPhrases: []string{
				"improper handling",
				"improper dissemination",
				"unauthorized sharing",
				"unauthorized disclosure",
				"missing markings",
				"do not distribute",
				"controlled by",
				"need to know",
				"third party",
				"export controlled",
				"dissemination",
				"releasable to",
			},
			Patterns: []Pattern{
				{Name: "SSN", Regex: `\b\d{3}-\d{2}-\d{4}\b`, Category: "CUI//SP-PRIV (privacy)", Confidence: 0.92},
				{Name: "CAGE", Regex: `\b[A-HJ-NP-Z0-9]{5}\b`, Category: "CUI//SP-ORG (org id)", Confidence: 0.70},
				{Name: "ITAR", Regex: `\bITAR\b`, Category: "CUI//SP-EXPT (export)", Confidence: 0.78},
				{Name: "EAR", Regex: `\bEAR\b`, Category: "CUI//SP-EXPT (export)", Confidence: 0.72},
				{Name: "CTI", Regex: `\b(threat indicator|ioc|indicator of compromise)\b`, Category: "CUI//SP-CTI (cyber threat)", Confidence: 0.75},
			},
			Keywords: []string{"itar", "ear", "dfars", "cmmc", "nist 800-171", "nara"},
			Weights: Weights{
				ExplicitMarking:      18,
				Context:              8,
				Pattern:              20,
				Keyword:              6,
				MissingMarkingsBonus: 16,
				MultiCategoryBonus:   12,
			},
		}),
	}
}
