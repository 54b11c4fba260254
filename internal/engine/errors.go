package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/council/internal/selector"
)

// The request-terminal error kinds. Per-model failures are never surfaced
// here; they live inside the report as error-tagged responses.

// ErrNoCompatibleModels aliases the selector's terminal error so callers
// can match it without importing the selector.
var ErrNoCompatibleModels = selector.ErrNoCompatibleModels

// ValidationError reports a malformed request, raised before any model call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("engine: invalid request: %s: %s", e.Field, e.Reason)
}

// AdmissionError reports that concurrency or queue limits rejected the
// request outright.
type AdmissionError struct {
	Reason string
}

func (e *AdmissionError) Error() string {
	return "engine: request rejected: " + e.Reason
}

// AllModelsFailedError is raised when every selected model errored. It
// carries every per-model reason so nothing is silently dropped.
type AllModelsFailedError struct {
	Reasons map[string]string
}

func (e *AllModelsFailedError) Error() string {
	models := make([]string, 0, len(e.Reasons))
	for m := range e.Reasons {
		models = append(models, m)
	}
	// Deterministic message ordering.
	sort.Strings(models)

	parts := make([]string, 0, len(models))
	for _, m := range models {
		parts = append(parts, m+": "+e.Reasons[m])
	}
	return fmt.Sprintf("engine: all %d selected models failed: %s", len(models), strings.Join(parts, "; "))
}
