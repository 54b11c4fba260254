// Package engine orchestrates one research request end to end: capability
// classification, model selection, fan-out execution, comparative analysis,
// and report assembly, under the admission and cache policy of a perf
// Manager.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/council/internal/analyzer"
	"github.com/sells-group/council/internal/catalog"
	"github.com/sells-group/council/internal/executor"
	"github.com/sells-group/council/internal/perf"
	"github.com/sells-group/council/internal/report"
	"github.com/sells-group/council/internal/selector"
	"github.com/sells-group/council/pkg/ollama"
)

// Engine runs research requests. Safe for concurrent use; all mutable state
// lives in the Manager.
type Engine struct {
	backend  ollama.Client
	manager  *perf.Manager
	classify *catalog.Classifier
	selector *selector.Selector
	executor *executor.Executor
	analyzer *analyzer.Analyzer

	newID func() string
}

// New wires an engine over the given backend and policy manager using the
// default tier table.
func New(backend ollama.Client, manager *perf.Manager) *Engine {
	return NewWithTiers(backend, manager, catalog.DefaultTierSpecs())
}

// NewWithTiers wires an engine with a custom tier table.
func NewWithTiers(backend ollama.Client, manager *perf.Manager, tiers map[catalog.Tier]catalog.TierSpec) *Engine {
	return &Engine{
		backend:  backend,
		manager:  manager,
		classify: catalog.NewClassifier(tiers, manager.History()),
		selector: selector.New(tiers),
		executor: executor.New(backendAdapter{client: backend}, tiers, manager.History()),
		analyzer: analyzer.New(),
		newID:    uuid.NewString,
	}
}

// Research answers one question by querying a selected set of models and
// comparing their responses. Per-model failures are absorbed into the
// report; the returned error is terminal (validation, admission, selection,
// backend catalog, or all models failed).
func (e *Engine) Research(ctx context.Context, req Request) (*report.ResearchReport, error) {
	req.normalize()
	if err := req.validate(); err != nil {
		return nil, err
	}

	key := perf.CacheKey(req.Question, req.Models, req.Complexity, req.Focus)
	if cached, ok := e.manager.CachedReport(req.Complexity, key); ok {
		zap.L().Debug("engine: report cache hit",
			zap.String("complexity", string(req.Complexity)))
		return cached, nil
	}

	admitted, reason := e.manager.CanExecute(req.Complexity)
	if !admitted {
		return nil, &AdmissionError{Reason: reason}
	}
	defer e.manager.Release(req.Complexity)

	started := time.Now()
	zap.L().Info("engine: research started",
		zap.String("complexity", string(req.Complexity)),
		zap.String("focus", string(req.Focus)),
		zap.Bool("sequential", req.Sequential))

	strategy, err := e.selectModels(ctx, req)
	if err != nil {
		return nil, err
	}

	policy := e.manager.Policy(req.Complexity)
	outcomes := e.executor.Execute(ctx, strategy, req.Question, executor.Params{
		Complexity:          req.Complexity,
		Temperature:         req.Temperature,
		Parallel:            !req.Sequential,
		PerModelTimeout:     req.Timeout,
		EarlyExitConfidence: req.EarlyExitConfidence,
		Limits: executor.Limits{
			BaseTimeout:      policy.BaseTimeout,
			MaxTimeout:       policy.MaxTimeout,
			MaxTokens:        policy.MaxTokens,
			MinResponseChars: policy.MinResponseChars,
			MaxResponseChars: policy.MaxResponseChars,
			Retry:            policy.Retry,
		},
	})

	if allFailed(outcomes) {
		return nil, &AllModelsFailedError{Reasons: failureReasons(outcomes)}
	}

	analysis, err := e.analyzer.Analyze(req.Question, outcomes, req.Focus, req.Complexity)
	if err != nil {
		return nil, eris.Wrap(err, "engine: analyze responses")
	}

	rep := report.Format(report.Input{
		ID:              e.newID(),
		Question:        req.Question,
		Focus:           req.Focus,
		Complexity:      req.Complexity,
		Outcomes:        outcomes,
		Analysis:        analysis,
		Rationale:       strategy.Rationale,
		TotalTime:       time.Since(started),
		IncludeMetadata: req.IncludeMetadata,
	})
	e.manager.StoreReport(req.Complexity, key, rep)

	zap.L().Info("engine: research finished",
		zap.String("id", rep.ID),
		zap.Int("responses", len(rep.Responses)),
		zap.Int("failures", len(rep.Errors)),
		zap.Duration("elapsed", time.Since(started)))
	return rep, nil
}

func (e *Engine) selectModels(ctx context.Context, req Request) (*selector.Strategy, error) {
	models, err := e.backend.ListModels(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "engine: list models")
	}

	entries := make([]catalog.Entry, 0, len(models))
	for _, m := range models {
		entries = append(entries, catalog.Entry{
			Name:         m.Name,
			SizeBytes:    m.Size,
			ModifiedAt:   m.ModifiedAt,
			Family:       m.Details.Family,
			Quantization: m.Details.QuantizationLevel,
		})
	}
	records := e.classify.Classify(entries)

	return e.selector.Select(records, selector.Params{
		Complexity:       req.Complexity,
		Focus:            req.Focus,
		RequireDiversity: true,
		MaxTimeout:       req.Timeout,
		RequestedModels:  req.Models,
	})
}

func failureReasons(outcomes []executor.Outcome) map[string]string {
	reasons := make(map[string]string)
	for _, o := range outcomes {
		if o.Err != nil {
			reasons[o.Model] = o.Err.Error()
		}
	}
	return reasons
}

func allFailed(outcomes []executor.Outcome) bool {
	for _, o := range outcomes {
		if o.Succeeded() {
			return false
		}
	}
	return len(outcomes) > 0
}

// backendAdapter narrows the ollama client to the executor's Backend.
type backendAdapter struct {
	client ollama.Client
}

func (b backendAdapter) Generate(ctx context.Context, req executor.GenRequest) (string, error) {
	resp, err := b.client.Generate(ctx, ollama.GenerateRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		Options: &ollama.Options{
			Temperature: req.Temperature,
			Seed:        req.Seed,
			NumPredict:  req.MaxTokens,
		},
	})
	if err != nil {
		return "", err
	}
	return resp.Response, nil
}
