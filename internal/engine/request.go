package engine

import (
	"strings"
	"time"

	"github.com/sells-group/council/internal/catalog"
)

const (
	minTimeoutOverride = 10 * time.Second
	maxTimeoutOverride = 600 * time.Second
	maxQuestionChars   = 8000
	defaultTemperature = 0.7
)

// Request is one research question plus its execution knobs. Zero values
// mean "use defaults": moderate complexity, general focus, parallel
// execution, temperature 0.7, policy-derived timeouts.
type Request struct {
	Question   string
	Complexity catalog.Complexity
	Focus      catalog.Focus

	// Models pins the candidate pool to specific model names. Unknown names
	// are dropped with a warning; an all-unknown list falls back to the full
	// catalog.
	Models []string

	// Sequential switches from concurrent fan-out to one-at-a-time
	// execution.
	Sequential bool

	// Temperature overrides the sampling temperature. Zero means default.
	Temperature float64

	// Timeout overrides the per-model timeout. Zero means the policy table
	// decides.
	Timeout time.Duration

	// EarlyExitConfidence stops a sequential run once a response scores at
	// or above this value. Zero disables early exit.
	EarlyExitConfidence float64

	// IncludeMetadata adds performance figures and selection reasoning to
	// the report.
	IncludeMetadata bool
}

func (r *Request) normalize() {
	r.Question = strings.TrimSpace(r.Question)
	if r.Complexity == "" {
		r.Complexity = catalog.ComplexityModerate
	}
	if r.Focus == "" {
		r.Focus = catalog.FocusGeneral
	}
	if r.Temperature == 0 {
		r.Temperature = defaultTemperature
	}
}

func (r *Request) validate() error {
	if r.Question == "" {
		return &ValidationError{Field: "question", Reason: "must not be empty"}
	}
	if len(r.Question) > maxQuestionChars {
		return &ValidationError{Field: "question", Reason: "exceeds maximum length"}
	}
	if !r.Complexity.Valid() {
		return &ValidationError{Field: "complexity", Reason: "unknown level " + string(r.Complexity)}
	}
	if !r.Focus.Valid() {
		return &ValidationError{Field: "focus", Reason: "unknown focus " + string(r.Focus)}
	}
	if r.Temperature < 0 || r.Temperature > 2 {
		return &ValidationError{Field: "temperature", Reason: "must be between 0 and 2"}
	}
	if r.Timeout != 0 && (r.Timeout < minTimeoutOverride || r.Timeout > maxTimeoutOverride) {
		return &ValidationError{Field: "timeout", Reason: "must be between 10s and 600s"}
	}
	if r.EarlyExitConfidence < 0 || r.EarlyExitConfidence > 1 {
		return &ValidationError{Field: "early_exit_confidence", Reason: "must be between 0 and 1"}
	}
	return nil
}
