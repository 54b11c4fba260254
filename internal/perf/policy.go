// Package perf supplies timeout, concurrency, and cache policy per
// complexity level, plus the rolling latency history and report cache shared
// across requests. A Manager instance is owned by the engine and injected
// into the selector and executor; there is no package-level state.
package perf

import (
	"time"

	"github.com/sells-group/council/internal/catalog"
	"github.com/sells-group/council/internal/resilience"
)

// Policy bundles the execution limits for one complexity level.
type Policy struct {
	// BaseTimeout is the per-model timeout before tier multipliers.
	BaseTimeout time.Duration
	// MaxTimeout caps the tier-multiplied per-model timeout.
	MaxTimeout time.Duration

	// MaxParallel bounds concurrent model calls admitted at this level.
	MaxParallel int
	// QueueLimit bounds callers allowed to wait for admission; beyond it new
	// work is rejected outright.
	QueueLimit int

	// CacheTTL and CacheSize configure the report cache for this level.
	CacheTTL  time.Duration
	CacheSize int

	// MaxTokens is the generation budget passed to the backend.
	MaxTokens int

	// MinResponseChars and MaxResponseChars bound the expected response
	// length used by confidence scoring.
	MinResponseChars int
	MaxResponseChars int

	// Retry is the backend retry policy at this level.
	Retry resilience.RetryConfig

	// WarnInflight logs a resource warning once this many calls are in
	// flight. Zero disables the warning.
	WarnInflight int
}

// DefaultPolicies returns the built-in per-complexity policy table.
func DefaultPolicies() map[catalog.Complexity]Policy {
	return map[catalog.Complexity]Policy{
		catalog.ComplexitySimple: {
			BaseTimeout:      30 * time.Second,
			MaxTimeout:       60 * time.Second,
			MaxParallel:      4,
			QueueLimit:       8,
			CacheTTL:         5 * time.Minute,
			CacheSize:        128,
			MaxTokens:        1024,
			MinResponseChars: 80,
			MaxResponseChars: 1500,
			Retry:            resilience.DefaultRetryConfig(),
			WarnInflight:     3,
		},
		catalog.ComplexityModerate: {
			BaseTimeout:      60 * time.Second,
			MaxTimeout:       180 * time.Second,
			MaxParallel:      3,
			QueueLimit:       6,
			CacheTTL:         10 * time.Minute,
			CacheSize:        64,
			MaxTokens:        2048,
			MinResponseChars: 300,
			MaxResponseChars: 4000,
			Retry:            resilience.DefaultRetryConfig(),
			WarnInflight:     2,
		},
		catalog.ComplexityComplex: {
			BaseTimeout:      120 * time.Second,
			MaxTimeout:       300 * time.Second,
			MaxParallel:      2,
			QueueLimit:       4,
			CacheTTL:         15 * time.Minute,
			CacheSize:        32,
			MaxTokens:        4096,
			MinResponseChars: 800,
			MaxResponseChars: 10000,
			Retry:            resilience.DefaultRetryConfig(),
			WarnInflight:     2,
		},
	}
}

// PerModelTimeout computes the effective timeout for one model:
// min(base × tier multiplier, max), or the override when set.
func (p Policy) PerModelTimeout(tierMultiplier float64, override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	scaled := time.Duration(float64(p.BaseTimeout) * tierMultiplier)
	if scaled > p.MaxTimeout {
		return p.MaxTimeout
	}
	return scaled
}
