package selector

import "github.com/sells-group/council/internal/catalog"

// defaultFocusPreferences maps each focus to name keywords in preference
// order. Matching decays by rank, so the first keyword carries the most
// weight. Kept as data so scoring is testable independent of table contents.
func defaultFocusPreferences() map[catalog.Focus][]string {
	return map[catalog.Focus][]string{
		catalog.FocusTechnical:  {"coder", "code", "deepseek", "qwen", "starcoder"},
		catalog.FocusBusiness:   {"llama", "mistral", "command", "qwen"},
		catalog.FocusCreative:   {"llama", "mistral", "gemma", "mixtral"},
		catalog.FocusScientific: {"qwen", "deepseek", "phi", "llama"},
		catalog.FocusGeneral:    {"llama", "qwen", "mistral", "gemma"},
	}
}

// defaultFocusSpecializations maps each focus to the specialization tag that
// earns the binary specialization-match credit.
func defaultFocusSpecializations() map[catalog.Focus]catalog.Specialization {
	return map[catalog.Focus]catalog.Specialization{
		catalog.FocusTechnical:  catalog.SpecCoding,
		catalog.FocusBusiness:   catalog.SpecInstruction,
		catalog.FocusCreative:   catalog.SpecInstruction,
		catalog.FocusScientific: catalog.SpecMath,
		catalog.FocusGeneral:    catalog.SpecGeneral,
	}
}

// defaultComplexityFit is the fixed tier-by-complexity fit table. Fast
// models over-perform on simple questions; cloud-scale models are wasted on
// them.
func defaultComplexityFit() map[catalog.Tier]map[catalog.Complexity]float64 {
	return map[catalog.Tier]map[catalog.Complexity]float64{
		catalog.TierFast: {
			catalog.ComplexitySimple:   1.0,
			catalog.ComplexityModerate: 0.7,
			catalog.ComplexityComplex:  0.3,
		},
		catalog.TierLarge: {
			catalog.ComplexitySimple:   0.6,
			catalog.ComplexityModerate: 1.0,
			catalog.ComplexityComplex:  0.9,
		},
		catalog.TierCloud: {
			catalog.ComplexitySimple:   0.3,
			catalog.ComplexityModerate: 0.7,
			catalog.ComplexityComplex:  1.0,
		},
	}
}
