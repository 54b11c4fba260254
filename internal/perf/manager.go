package perf

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/council/internal/catalog"
	"github.com/sells-group/council/internal/report"
)

// Manager owns the mutable cross-request state: per-complexity admission
// slots, the report cache, and the rolling latency history. One instance is
// created by the engine and shared by reference; never a hidden singleton.
type Manager struct {
	policies map[catalog.Complexity]Policy
	history  *LatencyHistory
	cache    *reportCache

	mu       sync.Mutex
	inflight map[catalog.Complexity]int
	queued   map[catalog.Complexity]int
}

// NewManager creates a manager over the given policy table; nil uses
// DefaultPolicies.
func NewManager(policies map[catalog.Complexity]Policy) *Manager {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &Manager{
		policies: policies,
		history:  NewLatencyHistory(),
		cache:    newReportCache(policies),
		inflight: make(map[catalog.Complexity]int),
		queued:   make(map[catalog.Complexity]int),
	}
}

// Policy returns the policy for the complexity level. Unknown levels get the
// moderate policy.
func (m *Manager) Policy(level catalog.Complexity) Policy {
	if p, ok := m.policies[level]; ok {
		return p
	}
	return m.policies[catalog.ComplexityModerate]
}

// History exposes the rolling latency history for the classifier and executor.
func (m *Manager) History() *LatencyHistory {
	return m.history
}

// CanExecute performs admission control for one research request at the
// given level. It returns false with a reason once both the concurrency
// limit and the queue allowance are exhausted; otherwise it reserves a slot
// that must be released with Release.
func (m *Manager) CanExecute(level catalog.Complexity) (bool, string) {
	pol := m.Policy(level)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inflight[level] < pol.MaxParallel {
		m.inflight[level]++
		if pol.WarnInflight > 0 && m.inflight[level] >= pol.WarnInflight {
			zap.L().Warn("approaching concurrency limit",
				zap.String("complexity", string(level)),
				zap.Int("inflight", m.inflight[level]),
				zap.Int("max", pol.MaxParallel),
			)
		}
		return true, ""
	}

	if m.queued[level] < pol.QueueLimit {
		// Queue slots still count as admitted work; the executor's own
		// timeouts bound how long they run behind the limit.
		m.queued[level]++
		m.inflight[level]++
		return true, ""
	}

	return false, "concurrency and queue limits reached for complexity " + string(level)
}

// Release returns a slot reserved by CanExecute.
func (m *Manager) Release(level catalog.Complexity) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inflight[level] > 0 {
		m.inflight[level]--
	}
	if m.queued[level] > 0 {
		m.queued[level]--
	}
}

// Inflight reports admitted work at the level, for observability.
func (m *Manager) Inflight(level catalog.Complexity) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inflight[level]
}

// CachedReport returns a previously synthesized report for the key, if the
// TTL has not lapsed.
func (m *Manager) CachedReport(level catalog.Complexity, key string) (*report.ResearchReport, bool) {
	return m.cache.get(level, key)
}

// StoreReport caches a synthesized report under the key.
func (m *Manager) StoreReport(level catalog.Complexity, key string, r *report.ResearchReport) {
	m.cache.add(level, key, r)
}
