package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/council/internal/catalog"
	"github.com/sells-group/council/internal/resilience"
	"github.com/sells-group/council/internal/selector"
)

type fakeBackend struct {
	mu       sync.Mutex
	requests []GenRequest
	delay    time.Duration
	handler  func(req GenRequest) (string, error)
}

func (f *fakeBackend) Generate(ctx context.Context, req GenRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.handler(req)
}

func (f *fakeBackend) seen() []GenRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]GenRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

type recordedLatency struct {
	mu      sync.Mutex
	records map[string]time.Duration
}

func (r *recordedLatency) Record(model string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.records == nil {
		r.records = make(map[string]time.Duration)
	}
	r.records[model] = d
}

func fastRecord(name string, paramsB float64) *catalog.CapabilityRecord {
	return &catalog.CapabilityRecord{
		Name:    name,
		ParamsB: paramsB,
		Tier:    catalog.TierFast,
		Complexities: map[catalog.Complexity]bool{
			catalog.ComplexitySimple:   true,
			catalog.ComplexityModerate: true,
		},
		Specializations: []catalog.Specialization{catalog.SpecGeneral},
		AvgLatency:      time.Second,
		Reliability:     0.9,
	}
}

func strategyOf(recs ...*catalog.CapabilityRecord) *selector.Strategy {
	s := &selector.Strategy{Primary: recs[0], Secondary: recs[0], Tertiary: recs[0]}
	if len(recs) > 1 {
		s.Secondary = recs[1]
	}
	if len(recs) > 2 {
		s.Tertiary = recs[2]
	}
	return s
}

func testLimits() Limits {
	return Limits{
		BaseTimeout:      time.Second,
		MaxTimeout:       2 * time.Second,
		MaxTokens:        512,
		MinResponseChars: 50,
		MaxResponseChars: 2000,
		Retry:            resilience.RetryConfig{MaxAttempts: 1},
	}
}

const goodResponse = "Go is a statically typed language because it checks types at compile time. " +
	"Therefore it catches many mistakes early, for example misused interfaces."

func TestExecute_Parallel_PreservesStrategyOrder(t *testing.T) {
	backend := &fakeBackend{handler: func(req GenRequest) (string, error) {
		if req.Model == "b:7b" {
			time.Sleep(20 * time.Millisecond) // finish last
		}
		return goodResponse, nil
	}}
	e := New(backend, nil, nil)

	strategy := strategyOf(fastRecord("a:7b", 7), fastRecord("b:7b", 7), fastRecord("c:7b", 7))
	outcomes := e.Execute(context.Background(), strategy, "question", Params{
		Complexity: catalog.ComplexitySimple,
		Parallel:   true,
		Limits:     testLimits(),
	})

	require.Len(t, outcomes, 3)
	assert.Equal(t, "a:7b", outcomes[0].Model)
	assert.Equal(t, "b:7b", outcomes[1].Model)
	assert.Equal(t, "c:7b", outcomes[2].Model)
	for _, o := range outcomes {
		assert.True(t, o.Succeeded())
		assert.Greater(t, o.Confidence, 0.0)
		assert.Equal(t, len(goodResponse)/4, o.TokenCount)
	}
}

func TestExecute_Parallel_FailureIsolation(t *testing.T) {
	backend := &fakeBackend{handler: func(req GenRequest) (string, error) {
		if req.Model == "bad:7b" {
			return "", errors.New("model exploded")
		}
		return goodResponse, nil
	}}
	e := New(backend, nil, nil)

	strategy := strategyOf(fastRecord("good:7b", 7), fastRecord("bad:7b", 7), fastRecord("also-good:7b", 7))
	outcomes := e.Execute(context.Background(), strategy, "question", Params{
		Parallel: true,
		Limits:   testLimits(),
	})

	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].Succeeded())
	assert.False(t, outcomes[1].Succeeded())
	assert.True(t, outcomes[2].Succeeded())
	assert.ErrorContains(t, outcomes[1].Err, "bad:7b")
}

func TestExecute_Sequential_ContinuesAfterFailure(t *testing.T) {
	backend := &fakeBackend{handler: func(req GenRequest) (string, error) {
		if req.Model == "bad:7b" {
			return "", errors.New("boom")
		}
		return goodResponse, nil
	}}
	e := New(backend, nil, nil)

	strategy := strategyOf(fastRecord("bad:7b", 7), fastRecord("ok:7b", 7), fastRecord("ok2:7b", 7))
	outcomes := e.Execute(context.Background(), strategy, "question", Params{Limits: testLimits()})

	require.Len(t, outcomes, 3)
	assert.False(t, outcomes[0].Succeeded())
	assert.True(t, outcomes[1].Succeeded())
	assert.True(t, outcomes[2].Succeeded())
}

func TestExecute_Sequential_EarlyExit(t *testing.T) {
	backend := &fakeBackend{handler: func(req GenRequest) (string, error) {
		return goodResponse, nil
	}}
	e := New(backend, nil, nil)

	strategy := strategyOf(fastRecord("a:7b", 7), fastRecord("b:7b", 7), fastRecord("c:7b", 7))
	outcomes := e.Execute(context.Background(), strategy, "question", Params{
		EarlyExitConfidence: 0.2,
		Limits:              testLimits(),
	})

	assert.Len(t, outcomes, 1, "high-confidence first outcome should stop the run")
}

func TestExecute_TimeoutBecomesErrorOutcome(t *testing.T) {
	backend := &fakeBackend{
		delay:   100 * time.Millisecond,
		handler: func(req GenRequest) (string, error) { return goodResponse, nil },
	}
	e := New(backend, nil, nil)

	limits := testLimits()
	strategy := strategyOf(fastRecord("slow:7b", 7))
	outcomes := e.Execute(context.Background(), strategy, "question", Params{
		PerModelTimeout: 10 * time.Millisecond,
		Limits:          limits,
	})

	require.Len(t, outcomes, 3)
	for _, o := range outcomes {
		assert.False(t, o.Succeeded())
		assert.ErrorContains(t, o.Err, "timed out")
	}
}

func TestDivergenceHeuristic_SmallModels(t *testing.T) {
	backend := &fakeBackend{handler: func(req GenRequest) (string, error) {
		return goodResponse, nil
	}}
	e := New(backend, nil, nil)

	strategy := strategyOf(fastRecord("tiny:3b", 3), fastRecord("tiny2:3b", 3), fastRecord("tiny3:3b", 3))
	e.Execute(context.Background(), strategy, "base question", Params{
		Temperature: 0.7,
		Limits:      testLimits(),
	})

	reqs := backend.seen()
	require.Len(t, reqs, 3)

	for _, req := range reqs {
		assert.InDelta(t, 0.7*1.3, req.Temperature, 1e-9, "small models get amplified temperature")
	}
	// Temperature amplification is capped.
	backend2 := &fakeBackend{handler: func(req GenRequest) (string, error) { return goodResponse, nil }}
	e2 := New(backend2, nil, nil)
	e2.Execute(context.Background(), strategyOf(fastRecord("tiny:3b", 3)), "q", Params{
		Temperature: 1.1,
		Limits:      testLimits(),
	})
	assert.Equal(t, 1.2, backend2.seen()[0].Temperature)

	// Position-derived seeds differ; later positions get the contrarian variant.
	assert.NotEqual(t, reqs[0].Seed, reqs[1].Seed)
	assert.Equal(t, "base question", reqs[0].Prompt)
	assert.Contains(t, reqs[1].Prompt, "contrarian")
	assert.Contains(t, reqs[1].Prompt, "base question")
}

func TestDivergenceHeuristic_SkipsLargeModels(t *testing.T) {
	backend := &fakeBackend{handler: func(req GenRequest) (string, error) {
		return goodResponse, nil
	}}
	e := New(backend, nil, nil)

	big := fastRecord("big:70b", 70)
	big.Tier = catalog.TierLarge
	e.Execute(context.Background(), strategyOf(big, big, big), "question", Params{
		Temperature: 0.7,
		Limits:      testLimits(),
	})

	for _, req := range backend.seen() {
		assert.Equal(t, 0.7, req.Temperature)
		assert.Zero(t, req.Seed)
		assert.Equal(t, "question", req.Prompt)
	}
}

func TestExecute_RecordsLatency(t *testing.T) {
	backend := &fakeBackend{handler: func(req GenRequest) (string, error) {
		return goodResponse, nil
	}}
	recorder := &recordedLatency{}
	e := New(backend, nil, recorder)

	e.Execute(context.Background(), strategyOf(fastRecord("a:7b", 7)), "q", Params{Limits: testLimits()})

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	assert.Contains(t, recorder.records, "a:7b")
}

func TestScoreConfidence_Bounds(t *testing.T) {
	rec := fastRecord("m:7b", 7)
	limits := testLimits()

	// Pathologically short response gets halved and floored.
	low := scoreConfidence("no", "question", rec, limits)
	assert.GreaterOrEqual(t, low, confidenceFloor)
	assert.Less(t, low, 0.4)

	full := scoreConfidence(goodResponse, "Why is Go statically typed?", rec, limits)
	assert.Greater(t, full, low)
	assert.LessOrEqual(t, full, confidenceCeiling)
}

func TestScoreConfidence_TruncationHalves(t *testing.T) {
	rec := fastRecord("m:7b", 7)
	limits := testLimits()

	complete := "This answer is a complete sentence that ends properly, with enough length to fit."
	truncated := "This answer is a complete sentence that ends improperly because it was cut mid"

	assert.Greater(t,
		scoreConfidence(complete, "question", rec, limits),
		scoreConfidence(truncated, "question", rec, limits))
}
