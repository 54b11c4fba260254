// Package executor runs a selection strategy's prompts against the inference
// backend, in parallel or sequentially, with per-tier adaptive timeouts and
// per-model failure isolation.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/council/internal/catalog"
	"github.com/sells-group/council/internal/resilience"
	"github.com/sells-group/council/internal/selector"
)

// smallModelParamsB is the parameter threshold below which the divergence
// heuristic perturbs temperature, seed, and prompt. Tunable; the amplified
// settings counter near-duplicate output from small models.
const smallModelParamsB = 8.0

const (
	divergenceTempFactor = 1.3
	divergenceTempCap    = 1.2
	divergenceSeedBase   = 42
)

// GenRequest is the executor's view of one generation call.
type GenRequest struct {
	Model       string
	Prompt      string
	Temperature float64
	Seed        int64
	MaxTokens   int
}

// Backend executes a single prompt against one model. The only blocking
// operation in the engine; implementations must honor ctx.
type Backend interface {
	Generate(ctx context.Context, req GenRequest) (string, error)
}

// LatencyRecorder receives observed call latencies. The performance
// manager's rolling history satisfies this.
type LatencyRecorder interface {
	Record(model string, d time.Duration)
}

// Outcome is the result of one model call. Outcomes are independent: one
// model's failure never invalidates its siblings.
type Outcome struct {
	Model      string
	Response   string
	Elapsed    time.Duration
	TokenCount int
	Confidence float64
	Err        error
}

// Succeeded reports whether the call produced a usable response.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Limits carries the per-complexity execution policy, resolved by the
// caller from the performance manager.
type Limits struct {
	BaseTimeout      time.Duration
	MaxTimeout       time.Duration
	MaxTokens        int
	MinResponseChars int
	MaxResponseChars int
	Retry            resilience.RetryConfig
}

// Params controls one execution run.
type Params struct {
	Complexity  catalog.Complexity
	Temperature float64
	Parallel    bool

	// PerModelTimeout overrides the tier-adaptive timeout when positive.
	PerModelTimeout time.Duration

	// EarlyExitConfidence, when positive, lets sequential mode stop once an
	// outcome reaches this confidence. Ignored in parallel mode.
	EarlyExitConfidence float64

	Limits Limits
}

// Executor issues generation calls for a strategy. It never returns an
// error: every per-model failure becomes an error-tagged outcome, and the
// at-least-one-success rule is enforced by the caller.
type Executor struct {
	backend Backend
	tiers   map[catalog.Tier]catalog.TierSpec
	latency LatencyRecorder
}

// New creates an executor. A nil tier table uses the defaults; a nil
// recorder disables history updates.
func New(backend Backend, tiers map[catalog.Tier]catalog.TierSpec, latency LatencyRecorder) *Executor {
	if tiers == nil {
		tiers = catalog.DefaultTierSpecs()
	}
	return &Executor{backend: backend, tiers: tiers, latency: latency}
}

// Execute runs the strategy's three slots against the prompt. Results are
// returned in strategy order regardless of completion order.
func (e *Executor) Execute(ctx context.Context, strategy *selector.Strategy, prompt string, p Params) []Outcome {
	slots := strategy.Models()
	if p.Parallel {
		return e.runParallel(ctx, slots, prompt, p)
	}
	return e.runSequential(ctx, slots, prompt, p)
}

func (e *Executor) runParallel(ctx context.Context, slots []*catalog.CapabilityRecord, prompt string, p Params) []Outcome {
	outcomes := make([]Outcome, len(slots))

	// Join-all: every slot settles before returning; a failed sibling never
	// cancels the rest, so the group context is deliberately unused.
	g := new(errgroup.Group)
	for i, rec := range slots {
		g.Go(func() error {
			outcomes[i] = e.callOne(ctx, rec, prompt, i, p)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (e *Executor) runSequential(ctx context.Context, slots []*catalog.CapabilityRecord, prompt string, p Params) []Outcome {
	var outcomes []Outcome
	for i, rec := range slots {
		outcome := e.callOne(ctx, rec, prompt, i, p)
		outcomes = append(outcomes, outcome)

		if p.EarlyExitConfidence > 0 && outcome.Succeeded() && outcome.Confidence >= p.EarlyExitConfidence {
			zap.L().Info("early exit on sufficient confidence",
				zap.String("model", rec.Name),
				zap.Float64("confidence", outcome.Confidence),
			)
			break
		}
	}
	return outcomes
}

// callOne executes a single slot with its own timeout. Expiry abandons this
// call only.
func (e *Executor) callOne(ctx context.Context, rec *catalog.CapabilityRecord, prompt string, position int, p Params) Outcome {
	if rec == nil {
		return Outcome{Err: eris.New("executor: empty strategy slot")}
	}

	req := e.buildRequest(rec, prompt, position, p)
	timeout := e.timeoutFor(rec, p)

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	text, err := resilience.DoVal(callCtx, p.Limits.Retry, func(ctx context.Context) (string, error) {
		return e.backend.Generate(ctx, req)
	})
	elapsed := time.Since(start)

	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			err = eris.Wrapf(err, "executor: model %s timed out after %s", rec.Name, timeout)
		} else {
			err = eris.Wrapf(err, "executor: model %s failed", rec.Name)
		}
		zap.L().Warn("model call failed",
			zap.String("model", rec.Name),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return Outcome{Model: rec.Name, Elapsed: elapsed, Err: err}
	}

	if e.latency != nil {
		e.latency.Record(rec.Name, elapsed)
	}

	return Outcome{
		Model:      rec.Name,
		Response:   text,
		Elapsed:    elapsed,
		TokenCount: estimateTokens(text),
		Confidence: scoreConfidence(text, prompt, rec, p.Limits),
	}
}

// timeoutFor applies the tier multiplier to the base timeout, capped at the
// policy maximum, unless the caller overrode it.
func (e *Executor) timeoutFor(rec *catalog.CapabilityRecord, p Params) time.Duration {
	if p.PerModelTimeout > 0 {
		return p.PerModelTimeout
	}
	mult := e.tiers[rec.Tier].TimeoutMultiplier
	if mult <= 0 {
		mult = 1
	}
	scaled := time.Duration(float64(p.Limits.BaseTimeout) * mult)
	if p.Limits.MaxTimeout > 0 && scaled > p.Limits.MaxTimeout {
		return p.Limits.MaxTimeout
	}
	return scaled
}

// buildRequest assembles the generation request, applying the small-model
// divergence heuristic: amplified temperature, a batch-position seed, and a
// contrarian prompt variant for later positions.
func (e *Executor) buildRequest(rec *catalog.CapabilityRecord, prompt string, position int, p Params) GenRequest {
	req := GenRequest{
		Model:       rec.Name,
		Prompt:      prompt,
		Temperature: p.Temperature,
		MaxTokens:   p.Limits.MaxTokens,
	}

	if rec.ParamsB < smallModelParamsB {
		amplified := p.Temperature * divergenceTempFactor
		if amplified > divergenceTempCap {
			amplified = divergenceTempCap
		}
		req.Temperature = amplified
		req.Seed = divergenceSeedBase + int64(position)*7919
		if position > 0 {
			req.Prompt = fmt.Sprintf(
				"%s\n\nTake a contrarian or alternative angle: emphasize considerations the obvious answer overlooks.",
				prompt,
			)
		}
	}

	return req
}

// estimateTokens approximates the token count at four characters per token.
func estimateTokens(text string) int {
	return len(text) / 4
}
