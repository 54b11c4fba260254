package perf

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/council/internal/catalog"
	"github.com/sells-group/council/internal/report"
)

func TestPolicy_PerModelTimeout(t *testing.T) {
	pol := Policy{BaseTimeout: 30 * time.Second, MaxTimeout: 60 * time.Second}

	assert.Equal(t, 30*time.Second, pol.PerModelTimeout(1.0, 0))
	// Tier multiplier scales, capped by the max.
	assert.Equal(t, 60*time.Second, pol.PerModelTimeout(2.5, 0))
	// Explicit override wins.
	assert.Equal(t, 5*time.Second, pol.PerModelTimeout(2.5, 5*time.Second))
}

func TestManager_AdmissionControl(t *testing.T) {
	policies := DefaultPolicies()
	pol := policies[catalog.ComplexityComplex]
	pol.MaxParallel = 1
	pol.QueueLimit = 1
	policies[catalog.ComplexityComplex] = pol

	m := NewManager(policies)
	level := catalog.ComplexityComplex

	okFirst, _ := m.CanExecute(level)
	require.True(t, okFirst)
	okQueued, _ := m.CanExecute(level)
	require.True(t, okQueued, "one queue slot available")

	rejected, reason := m.CanExecute(level)
	assert.False(t, rejected)
	assert.Contains(t, reason, "complex")

	m.Release(level)
	okAgain, _ := m.CanExecute(level)
	assert.True(t, okAgain, "released slot admits new work")

	m.Release(level)
	m.Release(level)
	assert.Zero(t, m.Inflight(level))
}

func TestManager_AdmissionIsolatedPerComplexity(t *testing.T) {
	policies := DefaultPolicies()
	pol := policies[catalog.ComplexitySimple]
	pol.MaxParallel = 1
	pol.QueueLimit = 0
	policies[catalog.ComplexitySimple] = pol

	m := NewManager(policies)

	ok, _ := m.CanExecute(catalog.ComplexitySimple)
	require.True(t, ok)
	blocked, _ := m.CanExecute(catalog.ComplexitySimple)
	require.False(t, blocked)

	// Other levels are unaffected.
	ok, _ = m.CanExecute(catalog.ComplexityModerate)
	assert.True(t, ok)
}

func TestLatencyHistory_RollingWindow(t *testing.T) {
	h := NewLatencyHistory()

	_, found := h.AvgLatency("m")
	assert.False(t, found)

	h.Record("m", 2*time.Second)
	h.Record("m", 4*time.Second)
	avg, found := h.AvgLatency("m")
	require.True(t, found)
	assert.Equal(t, 3*time.Second, avg)

	// Window evicts the oldest beyond capacity.
	for i := 0; i < historyWindow; i++ {
		h.Record("m", 10*time.Second)
	}
	avg, _ = h.AvgLatency("m")
	assert.Equal(t, 10*time.Second, avg)
}

func TestLatencyHistory_ConcurrentAppendSafe(t *testing.T) {
	h := NewLatencyHistory()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h.Record("shared", time.Second)
				h.AvgLatency("shared")
			}
		}()
	}
	wg.Wait()

	avg, found := h.AvgLatency("shared")
	require.True(t, found)
	assert.Equal(t, time.Second, avg)
}

func TestCacheKey_NormalizesQuestionAndModelOrder(t *testing.T) {
	a := CacheKey("What is  Go? ", []string{"b", "a"}, catalog.ComplexitySimple, catalog.FocusGeneral)
	b := CacheKey("what is go?", []string{"a", "b"}, catalog.ComplexitySimple, catalog.FocusGeneral)
	assert.Equal(t, a, b)

	c := CacheKey("what is go?", []string{"a", "b"}, catalog.ComplexityModerate, catalog.FocusGeneral)
	assert.NotEqual(t, a, c, "complexity is part of the key")
}

func TestManager_ReportCacheRoundtrip(t *testing.T) {
	m := NewManager(nil)
	key := CacheKey("q", []string{"a"}, catalog.ComplexitySimple, catalog.FocusGeneral)

	_, hit := m.CachedReport(catalog.ComplexitySimple, key)
	assert.False(t, hit)

	stored := &report.ResearchReport{ID: "r-1", Question: "q"}
	m.StoreReport(catalog.ComplexitySimple, key, stored)

	got, hit := m.CachedReport(catalog.ComplexitySimple, key)
	require.True(t, hit)
	assert.Equal(t, "r-1", got.ID)

	// Keys are scoped by complexity level.
	_, hit = m.CachedReport(catalog.ComplexityModerate, key)
	assert.False(t, hit)
}
