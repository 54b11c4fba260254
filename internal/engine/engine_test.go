package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/council/internal/catalog"
	"github.com/sells-group/council/internal/perf"
	"github.com/sells-group/council/pkg/ollama"
)

const gib = int64(1) << 30

type fakeClient struct {
	mu        sync.Mutex
	models    []ollama.Model
	answers   map[string]string
	errs      map[string]error
	listErr   error
	listCalls int
	genCalls  int
}

func (f *fakeClient) ListModels(ctx context.Context) ([]ollama.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.models, nil
}

func (f *fakeClient) Generate(ctx context.Context, req ollama.GenerateRequest) (*ollama.GenerateResponse, error) {
	f.mu.Lock()
	f.genCalls++
	answer, errv := f.answers[req.Model], f.errs[req.Model]
	f.mu.Unlock()

	if errv != nil {
		return nil, errv
	}
	return &ollama.GenerateResponse{Model: req.Model, Response: answer, Done: true}, nil
}

func threeModels() []ollama.Model {
	return []ollama.Model{
		{Name: "llama3.2:3b", Size: 2 * gib, Details: ollama.ModelDetails{Family: "llama"}},
		{Name: "qwen2.5-coder:7b", Size: 5 * gib, Details: ollama.ModelDetails{Family: "qwen"}},
		{Name: "llama3.1:70b", Size: 40 * gib, Details: ollama.ModelDetails{Family: "llama"}},
	}
}

func sampleAnswers() map[string]string {
	return map[string]string{
		"llama3.2:3b":      "Caching helps because repeated lookups avoid recomputation. Therefore latency drops and throughput improves when the cache stays warm.",
		"qwen2.5-coder:7b": "Use caching for hot paths because recomputation is wasteful. However, invalidation must be handled carefully so stale data never leaks.",
		"llama3.1:70b":     "Caching reduces repeated work because results are reused. Consequently systems respond faster, although memory use grows with cache size.",
	}
}

func newTestEngine(client *fakeClient) *Engine {
	return New(client, perf.NewManager(perf.DefaultPolicies()))
}

func TestResearchHappyPath(t *testing.T) {
	client := &fakeClient{models: threeModels(), answers: sampleAnswers()}
	eng := newTestEngine(client)

	rep, err := eng.Research(context.Background(), Request{
		Question:   "Why does caching improve performance?",
		Complexity: catalog.ComplexitySimple,
	})
	require.NoError(t, err)
	require.NotNil(t, rep)

	assert.NotEmpty(t, rep.ID)
	assert.Equal(t, "simple", rep.Complexity)
	assert.Equal(t, "general", rep.Focus)
	assert.Len(t, rep.ModelsUsed, len(rep.Responses))
	assert.NotEmpty(t, rep.Responses)
	assert.Empty(t, rep.Errors)
	assert.GreaterOrEqual(t, rep.Analysis.ConfidenceScore, 0.0)
	assert.LessOrEqual(t, rep.Analysis.ConfidenceScore, 1.0)

	// Metadata was not requested.
	assert.Nil(t, rep.Performance)
	assert.Empty(t, rep.Analysis.ModelSelectionReasoning)
}

func TestResearchMetadata(t *testing.T) {
	client := &fakeClient{models: threeModels(), answers: sampleAnswers()}
	eng := newTestEngine(client)

	rep, err := eng.Research(context.Background(), Request{
		Question:        "Why does caching improve performance?",
		Complexity:      catalog.ComplexitySimple,
		IncludeMetadata: true,
	})
	require.NoError(t, err)
	require.NotNil(t, rep.Performance)
	assert.Equal(t, len(rep.Responses), rep.Performance.SuccessfulResponses+rep.Performance.FailedResponses)
	assert.NotEmpty(t, rep.Analysis.ModelSelectionReasoning)
}

func TestResearchValidation(t *testing.T) {
	eng := newTestEngine(&fakeClient{models: threeModels(), answers: sampleAnswers()})

	cases := []struct {
		name  string
		req   Request
		field string
	}{
		{"empty question", Request{Question: "   "}, "question"},
		{"bad complexity", Request{Question: "q", Complexity: "impossible"}, "complexity"},
		{"bad focus", Request{Question: "q", Focus: "sports"}, "focus"},
		{"timeout too small", Request{Question: "q", Timeout: time.Second}, "timeout"},
		{"timeout too large", Request{Question: "q", Timeout: time.Hour}, "timeout"},
		{"temperature out of range", Request{Question: "q", Temperature: 3.5}, "temperature"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := eng.Research(context.Background(), tc.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestResearchAllModelsFailed(t *testing.T) {
	failure := errors.New("connection refused")
	client := &fakeClient{
		models: threeModels(),
		errs: map[string]error{
			"llama3.2:3b":      failure,
			"qwen2.5-coder:7b": failure,
			"llama3.1:70b":     failure,
		},
	}
	eng := newTestEngine(client)

	_, err := eng.Research(context.Background(), Request{
		Question:   "Why does caching improve performance?",
		Complexity: catalog.ComplexitySimple,
	})

	var allFailed *AllModelsFailedError
	require.ErrorAs(t, err, &allFailed)
	for _, model := range []string{"llama3.2:3b", "qwen2.5-coder:7b", "llama3.1:70b"} {
		assert.Contains(t, err.Error(), model)
	}
	assert.Contains(t, err.Error(), "connection refused")
}

func TestResearchPartialFailureSurvives(t *testing.T) {
	client := &fakeClient{
		models:  threeModels(),
		answers: sampleAnswers(),
		errs:    map[string]error{"llama3.1:70b": errors.New("model is loading")},
	}
	eng := newTestEngine(client)

	rep, err := eng.Research(context.Background(), Request{
		Question:   "Why does caching improve performance?",
		Complexity: catalog.ComplexitySimple,
	})
	require.NoError(t, err)
	require.NotEmpty(t, rep.Errors)
	assert.Contains(t, rep.Errors[0], "llama3.1:70b")
}

func TestResearchNoCompatibleModels(t *testing.T) {
	// Only fast-tier models on hand; they never admit complex questions.
	client := &fakeClient{
		models: []ollama.Model{
			{Name: "llama3.2:3b", Size: 2 * gib, Details: ollama.ModelDetails{Family: "llama"}},
		},
		answers: sampleAnswers(),
	}
	eng := newTestEngine(client)

	_, err := eng.Research(context.Background(), Request{
		Question:   "Design a distributed consensus protocol.",
		Complexity: catalog.ComplexityComplex,
	})
	require.ErrorIs(t, err, ErrNoCompatibleModels)
}

func TestResearchListModelsError(t *testing.T) {
	client := &fakeClient{listErr: errors.New("backend unreachable")}
	eng := newTestEngine(client)

	_, err := eng.Research(context.Background(), Request{Question: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list models")
}

func TestResearchAdmissionRejected(t *testing.T) {
	policies := perf.DefaultPolicies()
	p := policies[catalog.ComplexitySimple]
	p.MaxParallel = 0
	p.QueueLimit = 0
	policies[catalog.ComplexitySimple] = p

	client := &fakeClient{models: threeModels(), answers: sampleAnswers()}
	eng := New(client, perf.NewManager(policies))

	_, err := eng.Research(context.Background(), Request{
		Question:   "q",
		Complexity: catalog.ComplexitySimple,
	})
	var adm *AdmissionError
	require.ErrorAs(t, err, &adm)
}

func TestResearchCacheHit(t *testing.T) {
	client := &fakeClient{models: threeModels(), answers: sampleAnswers()}
	eng := newTestEngine(client)
	req := Request{
		Question:   "Why does caching improve performance?",
		Complexity: catalog.ComplexitySimple,
	}

	first, err := eng.Research(context.Background(), req)
	require.NoError(t, err)
	callsAfterFirst := client.genCalls

	second, err := eng.Research(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, callsAfterFirst, client.genCalls)
}

func TestResearchCacheKeyedByComplexity(t *testing.T) {
	client := &fakeClient{models: threeModels(), answers: sampleAnswers()}
	eng := newTestEngine(client)

	first, err := eng.Research(context.Background(), Request{
		Question:   "Why does caching improve performance?",
		Complexity: catalog.ComplexitySimple,
	})
	require.NoError(t, err)

	second, err := eng.Research(context.Background(), Request{
		Question:   "Why does caching improve performance?",
		Complexity: catalog.ComplexityModerate,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestResearchParallelSequentialSameAnalysis(t *testing.T) {
	req := Request{
		Question:   "Why does caching improve performance?",
		Complexity: catalog.ComplexitySimple,
	}

	parallel, err := newTestEngine(&fakeClient{models: threeModels(), answers: sampleAnswers()}).
		Research(context.Background(), req)
	require.NoError(t, err)

	seqReq := req
	seqReq.Sequential = true
	sequential, err := newTestEngine(&fakeClient{models: threeModels(), answers: sampleAnswers()}).
		Research(context.Background(), seqReq)
	require.NoError(t, err)

	assert.Equal(t, parallel.Analysis.ConvergentThemes, sequential.Analysis.ConvergentThemes)
	assert.Equal(t, parallel.Analysis.DivergentPerspectives, sequential.Analysis.DivergentPerspectives)
	assert.Equal(t, parallel.Analysis.ReasoningStyles, sequential.Analysis.ReasoningStyles)
	assert.Equal(t, parallel.Analysis.Synthesis, sequential.Analysis.Synthesis)
	assert.Equal(t, parallel.Analysis.ConfidenceScore, sequential.Analysis.ConfidenceScore)
}

func TestResearchRequestedModels(t *testing.T) {
	client := &fakeClient{models: threeModels(), answers: sampleAnswers()}
	eng := newTestEngine(client)

	rep, err := eng.Research(context.Background(), Request{
		Question:   "Why does caching improve performance?",
		Complexity: catalog.ComplexitySimple,
		Models:     []string{"llama3.2:3b"},
	})
	require.NoError(t, err)
	for _, used := range rep.ModelsUsed {
		assert.Equal(t, "llama3.2:3b", used)
	}
}
