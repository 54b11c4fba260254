// Package selector scores and filters classified catalog records into a
// three-model research strategy with a fallback chain.
package selector

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/council/internal/catalog"
)

// ErrNoCompatibleModels is returned when nothing in the catalog both
// supports the requested complexity and fits the timeout budget.
var ErrNoCompatibleModels = eris.New("selector: no compatible models")

// Scoring weights. Focus alignment dominates, then complexity fit,
// performance, and specialization match.
const (
	weightFocus          = 0.40
	weightComplexityFit  = 0.25
	weightPerformance    = 0.20
	weightSpecialization = 0.15
)

// Params controls one selection run.
type Params struct {
	Complexity catalog.Complexity
	Focus      catalog.Focus

	// WantedCount is the number of strategy slots to fill. Zero means 3.
	WantedCount int

	// RequireDiversity prefers unseen tiers, then unseen specializations,
	// over pure score order.
	RequireDiversity bool

	// MaxTimeout drops candidates whose tier-weighted timeout estimate
	// exceeds it. Zero disables the filter.
	MaxTimeout time.Duration

	// RequestedModels, when non-empty, restricts selection to these names.
	// Unknown names are dropped with a warning; if none survive, selection
	// falls back to the full catalog.
	RequestedModels []string
}

// Strategy is the outcome of selection. Primary/Secondary/Tertiary may alias
// the same record when fewer candidates exist; callers must tolerate the
// duplication.
type Strategy struct {
	Primary   *catalog.CapabilityRecord
	Secondary *catalog.CapabilityRecord
	Tertiary  *catalog.CapabilityRecord

	// Fallbacks is the reliability-ordered substitution chain (up to 3).
	Fallbacks []*catalog.CapabilityRecord

	// Rationale explains the choice for the report.
	Rationale string
}

// Models returns the strategy slots in order, including duplicates.
func (s *Strategy) Models() []*catalog.CapabilityRecord {
	return []*catalog.CapabilityRecord{s.Primary, s.Secondary, s.Tertiary}
}

// UniqueModels returns the distinct model names across the slots, in slot order.
func (s *Strategy) UniqueModels() []string {
	var names []string
	seen := make(map[string]bool)
	for _, rec := range s.Models() {
		if rec != nil && !seen[rec.Name] {
			names = append(names, rec.Name)
			seen[rec.Name] = true
		}
	}
	return names
}

// Selector ranks capability records using configurable focus tables and a
// tier-specification table.
type Selector struct {
	tiers       map[catalog.Tier]catalog.TierSpec
	focusPrefs  map[catalog.Focus][]string
	focusSpecs  map[catalog.Focus]catalog.Specialization
	fitTable    map[catalog.Tier]map[catalog.Complexity]float64
}

// New creates a selector. Nil tables fall back to the built-in defaults.
func New(tiers map[catalog.Tier]catalog.TierSpec) *Selector {
	if tiers == nil {
		tiers = catalog.DefaultTierSpecs()
	}
	return &Selector{
		tiers:      tiers,
		focusPrefs: defaultFocusPreferences(),
		focusSpecs: defaultFocusSpecializations(),
		fitTable:   defaultComplexityFit(),
	}
}

// scored pairs a record with its composite score.
type scored struct {
	rec   *catalog.CapabilityRecord
	score float64
}

// Select builds a strategy from the classified catalog, or
// ErrNoCompatibleModels when no candidate survives filtering.
func (s *Selector) Select(records []catalog.CapabilityRecord, p Params) (*Strategy, error) {
	if p.WantedCount <= 0 {
		p.WantedCount = 3
	}
	if p.Focus == "" {
		p.Focus = catalog.FocusGeneral
	}

	pool := s.applyRequestedModels(records, p.RequestedModels)

	// Filter by complexity support and timeout budget.
	var candidates []*catalog.CapabilityRecord
	for i := range pool {
		rec := &pool[i]
		if !rec.SupportsComplexity(p.Complexity) {
			continue
		}
		if p.MaxTimeout > 0 && s.estimatedTimeout(rec) > p.MaxTimeout {
			continue
		}
		candidates = append(candidates, rec)
	}
	if len(candidates) == 0 {
		return nil, eris.Wrapf(ErrNoCompatibleModels,
			"complexity %s, %d catalog entries", p.Complexity, len(records))
	}

	ranked := make([]scored, 0, len(candidates))
	for _, rec := range candidates {
		ranked = append(ranked, scored{rec: rec, score: s.score(rec, p, candidates)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	chosen := pickDiverse(ranked, p.WantedCount, p.RequireDiversity)

	strategy := &Strategy{
		Primary:   chosen[0],
		Secondary: chosen[min(1, len(chosen)-1)],
		Tertiary:  chosen[min(2, len(chosen)-1)],
	}
	strategy.Fallbacks = fallbackChain(ranked, chosen)
	strategy.Rationale = s.rationale(strategy, p, len(candidates))

	zap.L().Debug("model strategy selected",
		zap.Strings("models", strategy.UniqueModels()),
		zap.String("complexity", string(p.Complexity)),
		zap.String("focus", string(p.Focus)),
	)
	return strategy, nil
}

// applyRequestedModels restricts the pool to caller-named models, dropping
// unknown names with a warning. An all-invalid list falls back to the full
// catalog so automatic selection can proceed.
func (s *Selector) applyRequestedModels(records []catalog.CapabilityRecord, requested []string) []catalog.CapabilityRecord {
	if len(requested) == 0 {
		return records
	}

	known := make(map[string]bool, len(records))
	for _, rec := range records {
		known[rec.Name] = true
	}

	want := make(map[string]bool)
	for _, name := range requested {
		if known[name] {
			want[name] = true
			continue
		}
		zap.L().Warn("requested model not in catalog, dropping",
			zap.String("model", name))
	}
	if len(want) == 0 {
		zap.L().Warn("no requested models found, falling back to automatic selection",
			zap.Strings("requested", requested))
		return records
	}

	var filtered []catalog.CapabilityRecord
	for _, rec := range records {
		if want[rec.Name] {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// estimatedTimeout is the tier-weighted latency estimate used for the
// MaxTimeout filter.
func (s *Selector) estimatedTimeout(rec *catalog.CapabilityRecord) time.Duration {
	mult := s.tiers[rec.Tier].TimeoutMultiplier
	if mult <= 0 {
		mult = 1
	}
	return time.Duration(float64(rec.AvgLatency) * mult)
}

// score blends focus alignment (40%), complexity fit (25%), performance
// (20%), and specialization match (15%).
func (s *Selector) score(rec *catalog.CapabilityRecord, p Params, pool []*catalog.CapabilityRecord) float64 {
	focus := s.focusAlignment(rec, p.Focus)
	fit := s.complexityFit(rec, p.Complexity)
	perf := s.performance(rec, pool)
	spec := s.specializationMatch(rec, p.Focus)

	return focus*weightFocus + fit*weightComplexityFit + perf*weightPerformance + spec*weightSpecialization
}

// focusAlignment does a rank-decaying keyword match of the model name
// against the focus preference list: the first listed keyword is worth the
// most, each subsequent one less. No match scores the neutral default.
func (s *Selector) focusAlignment(rec *catalog.CapabilityRecord, focus catalog.Focus) float64 {
	prefs := s.focusPrefs[focus]
	lower := strings.ToLower(rec.Name)
	for rank, keyword := range prefs {
		if strings.Contains(lower, keyword) {
			return 1.0 - 0.15*float64(rank)
		}
	}
	return 0.3
}

func (s *Selector) complexityFit(rec *catalog.CapabilityRecord, level catalog.Complexity) float64 {
	if byLevel, ok := s.fitTable[rec.Tier]; ok {
		if fit, ok := byLevel[level]; ok {
			return fit
		}
	}
	return 0.5
}

// performance normalizes latency against the candidate pool and blends it
// with the reliability prior.
func (s *Selector) performance(rec *catalog.CapabilityRecord, pool []*catalog.CapabilityRecord) float64 {
	var slowest time.Duration
	for _, other := range pool {
		if other.AvgLatency > slowest {
			slowest = other.AvgLatency
		}
	}
	speed := 1.0
	if slowest > 0 {
		speed = 1.0 - float64(rec.AvgLatency)/float64(slowest)*0.8
	}
	return 0.6*speed + 0.4*rec.Reliability
}

func (s *Selector) specializationMatch(rec *catalog.CapabilityRecord, focus catalog.Focus) float64 {
	wanted, ok := s.focusSpecs[focus]
	if !ok {
		return 0.5
	}
	if rec.HasSpecialization(wanted) {
		return 1.0
	}
	return 0.0
}

// pickDiverse greedily fills wanted slots. With diversity on it prefers
// unseen tiers first, then unseen specialization tags, and falls back to
// pure rank once diversity options are exhausted. When fewer candidates
// exist than slots, the last pick is duplicated.
func pickDiverse(ranked []scored, wanted int, diversity bool) []*catalog.CapabilityRecord {
	var chosen []*catalog.CapabilityRecord
	taken := make(map[string]bool)
	seenTiers := make(map[catalog.Tier]bool)
	seenSpecs := make(map[catalog.Specialization]bool)

	takeAt := func(idx int) {
		rec := ranked[idx].rec
		chosen = append(chosen, rec)
		taken[rec.Name] = true
		seenTiers[rec.Tier] = true
		for _, sp := range rec.Specializations {
			seenSpecs[sp] = true
		}
	}

	for len(chosen) < wanted {
		idx := -1
		if diversity {
			// Pass 1: highest-ranked candidate in an unseen tier.
			for i, sc := range ranked {
				if !taken[sc.rec.Name] && !seenTiers[sc.rec.Tier] {
					idx = i
					break
				}
			}
			// Pass 2: highest-ranked candidate with an unseen specialization.
			if idx < 0 {
				for i, sc := range ranked {
					if taken[sc.rec.Name] {
						continue
					}
					for _, sp := range sc.rec.Specializations {
						if !seenSpecs[sp] {
							idx = i
							break
						}
					}
					if idx >= 0 {
						break
					}
				}
			}
		}
		// Pure rank fallback.
		if idx < 0 {
			for i, sc := range ranked {
				if !taken[sc.rec.Name] {
					idx = i
					break
				}
			}
		}
		if idx < 0 {
			// Candidates exhausted: duplicate the last pick intentionally.
			chosen = append(chosen, chosen[len(chosen)-1])
			continue
		}
		takeAt(idx)
	}

	return chosen
}

// fallbackChain orders the unchosen candidates by reliability and keeps the
// top three.
func fallbackChain(ranked []scored, chosen []*catalog.CapabilityRecord) []*catalog.CapabilityRecord {
	used := make(map[string]bool)
	for _, rec := range chosen {
		used[rec.Name] = true
	}

	var rest []*catalog.CapabilityRecord
	for _, sc := range ranked {
		if !used[sc.rec.Name] {
			rest = append(rest, sc.rec)
			used[sc.rec.Name] = true
		}
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].Reliability > rest[j].Reliability })

	if len(rest) > 3 {
		rest = rest[:3]
	}
	return rest
}

// rationale names the chosen models, their sizes, and the tier spread.
func (s *Selector) rationale(strategy *Strategy, p Params, candidates int) string {
	tierCount := make(map[catalog.Tier]int)
	var parts []string
	seen := make(map[string]bool)
	for _, rec := range strategy.Models() {
		if rec == nil || seen[rec.Name] {
			continue
		}
		seen[rec.Name] = true
		tierCount[rec.Tier]++
		parts = append(parts, fmt.Sprintf("%s (%.1fB, %s)", rec.Name, rec.ParamsB, rec.Tier))
	}

	var tiers []string
	for _, t := range []catalog.Tier{catalog.TierFast, catalog.TierLarge, catalog.TierCloud} {
		if n := tierCount[t]; n > 0 {
			tiers = append(tiers, fmt.Sprintf("%d %s", n, t))
		}
	}

	return fmt.Sprintf("Selected %s from %d compatible candidates for %s/%s research; tier spread: %s.",
		strings.Join(parts, ", "), candidates, p.Complexity, p.Focus, strings.Join(tiers, ", "))
}
