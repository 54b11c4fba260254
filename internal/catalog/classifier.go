package catalog

import (
	"sort"
	"strings"
	"time"
)

const gib = 1 << 30

// paramBreakpoint maps an on-disk size ceiling to an estimated parameter
// count. Quantized GGUF weights run roughly 0.5-0.7 bytes per parameter, so
// size alone places a model within its family bracket.
type paramBreakpoint struct {
	MaxBytes int64
	ParamsB  float64
}

var defaultParamBreakpoints = []paramBreakpoint{
	{MaxBytes: 1 * gib, ParamsB: 0.5},
	{MaxBytes: 3 * gib, ParamsB: 3},
	{MaxBytes: 6 * gib, ParamsB: 7},
	{MaxBytes: 10 * gib, ParamsB: 13},
	{MaxBytes: 25 * gib, ParamsB: 34},
	{MaxBytes: 45 * gib, ParamsB: 70},
	{MaxBytes: 100 * gib, ParamsB: 180},
	{MaxBytes: 0, ParamsB: 480}, // >=100GB: frontier scale, cloud tier
}

// contextWindowHints maps known name substrings to context window sizes,
// checked in order before the parameter-count fallback.
var contextWindowHints = []struct {
	Substring string
	Window    int
}{
	{"llama3", 8192},
	{"llama2", 4096},
	{"mixtral", 32768},
	{"mistral", 32768},
	{"qwen", 32768},
	{"phi", 16384},
	{"gemma", 8192},
	{"command", 131072},
	{"deepseek", 65536},
}

// reliabilityPriors holds per-family reliability scores observed across runs,
// checked in order. Families absent from the table get defaultReliability.
var reliabilityPriors = []struct {
	Family string
	Score  float64
}{
	{"llama", 0.90},
	{"qwen", 0.88},
	{"mixtral", 0.87},
	{"mistral", 0.87},
	{"gemma", 0.86},
	{"phi", 0.85},
	{"deepseek", 0.85},
}

const defaultReliability = 0.80

// specializationHints maps name substrings to specialization tags, checked in
// order. A model may carry several tags; SpecGeneral is added when nothing
// matches.
var specializationHints = []struct {
	Substring string
	Spec      Specialization
}{
	{"code", SpecCoding},
	{"coder", SpecCoding},
	{"math", SpecMath},
	{"vision", SpecVision},
	{"llava", SpecVision},
	{"instruct", SpecInstruction},
	{"chat", SpecInstruction},
}

// LatencyReader supplies observed latency averages for classification. The
// performance manager's rolling history satisfies this.
type LatencyReader interface {
	// AvgLatency returns the rolling average for the model and true, or
	// zero and false when no observations exist.
	AvgLatency(model string) (time.Duration, bool)
}

// Classifier converts raw catalog entries into capability records. It holds
// only configuration tables; classification itself is pure given the latency
// reader's state.
type Classifier struct {
	tiers       map[Tier]TierSpec
	breakpoints []paramBreakpoint
	latency     LatencyReader
}

// NewClassifier creates a classifier over the given tier table. A nil latency
// reader disables history lookups; every record then gets the size-seeded
// default.
func NewClassifier(tiers map[Tier]TierSpec, latency LatencyReader) *Classifier {
	if tiers == nil {
		tiers = DefaultTierSpecs()
	}
	return &Classifier{
		tiers:       tiers,
		breakpoints: defaultParamBreakpoints,
		latency:     latency,
	}
}

// Classify builds capability records for every catalog entry, sorted by name
// for deterministic output.
func (c *Classifier) Classify(entries []Entry) []CapabilityRecord {
	records := make([]CapabilityRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, c.classifyOne(e))
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records
}

func (c *Classifier) classifyOne(e Entry) CapabilityRecord {
	params := c.estimateParams(e.SizeBytes)
	tier := c.tierFor(params)

	rec := CapabilityRecord{
		Name:            e.Name,
		SizeBytes:       e.SizeBytes,
		ParamsB:         params,
		Quantization:    e.Quantization,
		ContextWindow:   estimateContextWindow(e.Name, params),
		Tier:            tier,
		Complexities:    make(map[Complexity]bool),
		Specializations: detectSpecializations(e.Name),
		Reliability:     reliabilityFor(e.Name, e.Family),
	}

	for _, lvl := range c.tiers[tier].Complexities {
		rec.Complexities[lvl] = true
	}

	if c.latency != nil {
		if avg, ok := c.latency.AvgLatency(e.Name); ok {
			rec.AvgLatency = avg
			return rec
		}
	}
	rec.AvgLatency = defaultLatency(e.SizeBytes)
	return rec
}

func (c *Classifier) estimateParams(sizeBytes int64) float64 {
	for _, bp := range c.breakpoints {
		if bp.MaxBytes == 0 || sizeBytes < bp.MaxBytes {
			return bp.ParamsB
		}
	}
	return c.breakpoints[len(c.breakpoints)-1].ParamsB
}

func (c *Classifier) tierFor(paramsB float64) Tier {
	for _, tier := range []Tier{TierFast, TierLarge, TierCloud} {
		spec := c.tiers[tier]
		if paramsB < spec.MinParamsB {
			continue
		}
		if spec.MaxParamsB == 0 || paramsB < spec.MaxParamsB {
			return tier
		}
	}
	return TierFast
}

func estimateContextWindow(name string, paramsB float64) int {
	lower := strings.ToLower(name)
	for _, hint := range contextWindowHints {
		if strings.Contains(lower, hint.Substring) {
			return hint.Window
		}
	}
	switch {
	case paramsB < 3:
		return 4096
	case paramsB < 14:
		return 8192
	case paramsB < 70:
		return 16384
	default:
		return 32768
	}
}

func detectSpecializations(name string) []Specialization {
	lower := strings.ToLower(name)
	var specs []Specialization
	seen := make(map[Specialization]bool)
	for _, hint := range specializationHints {
		if strings.Contains(lower, hint.Substring) && !seen[hint.Spec] {
			specs = append(specs, hint.Spec)
			seen[hint.Spec] = true
		}
	}
	if len(specs) == 0 {
		specs = append(specs, SpecGeneral)
	}
	return specs
}

func reliabilityFor(name, family string) float64 {
	lower := strings.ToLower(family)
	if lower == "" {
		lower = strings.ToLower(name)
	}
	for _, prior := range reliabilityPriors {
		if strings.Contains(lower, prior.Family) {
			return prior.Score
		}
	}
	return defaultReliability
}

// defaultLatency seeds the latency estimate from on-disk size when no history
// exists. Roughly 400ms per GiB of weights plus fixed prompt overhead.
func defaultLatency(sizeBytes int64) time.Duration {
	gb := float64(sizeBytes) / float64(gib)
	return 2*time.Second + time.Duration(gb*400)*time.Millisecond
}
