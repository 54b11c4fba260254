package catalog

import "time"

// Tier buckets models by estimated parameter count. The tier governs timeout
// scaling and which complexity levels a model is eligible to answer.
type Tier string

const (
	// TierFast covers small local models that answer quickly.
	TierFast Tier = "fast"
	// TierLarge covers big local models that need generous timeouts.
	TierLarge Tier = "large"
	// TierCloud covers frontier-scale models served remotely.
	TierCloud Tier = "cloud"
)

// Valid returns true if the tier is a known value.
func (t Tier) Valid() bool {
	switch t {
	case TierFast, TierLarge, TierCloud:
		return true
	default:
		return false
	}
}

// Complexity is the caller-declared difficulty class of a question. It drives
// timeout budgets, token expectations, and model-count defaults.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Valid returns true if the complexity is a known value.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex:
		return true
	default:
		return false
	}
}

// Complexities returns all complexity levels in ascending difficulty order.
func Complexities() []Complexity {
	return []Complexity{ComplexitySimple, ComplexityModerate, ComplexityComplex}
}

// Focus steers model selection and synthesis toward a subject area.
type Focus string

const (
	FocusTechnical  Focus = "technical"
	FocusBusiness   Focus = "business"
	FocusCreative   Focus = "creative"
	FocusScientific Focus = "scientific"
	FocusGeneral    Focus = "general"
)

// Valid returns true if the focus is a known value.
func (f Focus) Valid() bool {
	switch f {
	case FocusTechnical, FocusBusiness, FocusCreative, FocusScientific, FocusGeneral:
		return true
	default:
		return false
	}
}

// Specialization tags what a model is tuned for, detected from its name.
type Specialization string

const (
	SpecCoding      Specialization = "coding"
	SpecInstruction Specialization = "instruction-following"
	SpecMath        Specialization = "math"
	SpecVision      Specialization = "vision"
	SpecGeneral     Specialization = "general"
)

// Entry is a raw catalog row as reported by the inference backend.
type Entry struct {
	Name         string    `json:"name"`
	SizeBytes    int64     `json:"size"`
	ModifiedAt   time.Time `json:"modified_at"`
	Family       string    `json:"family,omitempty"`
	Quantization string    `json:"quantization_level,omitempty"`
}

// CapabilityRecord is the typed capability view of a catalog entry. Records
// are rebuilt from the catalog on every request; only the latency history
// behind AvgLatency persists for the process lifetime.
type CapabilityRecord struct {
	Name            string
	SizeBytes       int64
	ParamsB         float64 // estimated parameter count, billions
	Quantization    string
	ContextWindow   int
	Tier            Tier
	Complexities    map[Complexity]bool
	Specializations []Specialization
	AvgLatency      time.Duration
	Reliability     float64 // [0,1]
}

// SupportsComplexity reports whether the record's tier admits the given level.
func (r *CapabilityRecord) SupportsComplexity(c Complexity) bool {
	return r.Complexities[c]
}

// HasSpecialization reports whether the record carries the given tag.
func (r *CapabilityRecord) HasSpecialization(s Specialization) bool {
	for _, have := range r.Specializations {
		if have == s {
			return true
		}
	}
	return false
}

// TierSpec defines one tier's parameter range, timeout scaling, and the
// complexity levels it may serve. Specs are global configuration, immutable
// once loaded.
type TierSpec struct {
	MinParamsB        float64
	MaxParamsB        float64 // 0 = unbounded
	TimeoutMultiplier float64
	Complexities      []Complexity
}

// DefaultTierSpecs returns the built-in tier table.
func DefaultTierSpecs() map[Tier]TierSpec {
	return map[Tier]TierSpec{
		TierFast: {
			MinParamsB:        0,
			MaxParamsB:        14,
			TimeoutMultiplier: 1.0,
			Complexities:      []Complexity{ComplexitySimple, ComplexityModerate},
		},
		TierLarge: {
			MinParamsB:        14,
			MaxParamsB:        200,
			TimeoutMultiplier: 2.5,
			Complexities:      []Complexity{ComplexitySimple, ComplexityModerate, ComplexityComplex},
		},
		TierCloud: {
			MinParamsB:        200,
			MaxParamsB:        0,
			TimeoutMultiplier: 4.0,
			Complexities:      []Complexity{ComplexityModerate, ComplexityComplex},
		},
	}
}
