package perf

import (
	"sync"
	"time"
)

// historyWindow is the number of recent observations kept per model.
const historyWindow = 20

// LatencyHistory keeps a rolling window of observed call latencies per model.
// Writers race benignly (last-writer-wins); the structure itself is safe for
// concurrent use. Entries live for the process lifetime.
type LatencyHistory struct {
	mu      sync.RWMutex
	samples map[string][]time.Duration
}

// NewLatencyHistory creates an empty history.
func NewLatencyHistory() *LatencyHistory {
	return &LatencyHistory{samples: make(map[string][]time.Duration)}
}

// Record appends an observation for the model, evicting the oldest once the
// window is full.
func (h *LatencyHistory) Record(model string, d time.Duration) {
	if model == "" || d <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	window := append(h.samples[model], d)
	if len(window) > historyWindow {
		window = window[len(window)-historyWindow:]
	}
	h.samples[model] = window
}

// AvgLatency returns the rolling average for the model and true, or zero and
// false when no observations exist. Satisfies catalog.LatencyReader.
func (h *LatencyHistory) AvgLatency(model string) (time.Duration, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	window := h.samples[model]
	if len(window) == 0 {
		return 0, false
	}
	var total time.Duration
	for _, d := range window {
		total += d
	}
	return total / time.Duration(len(window)), true
}

// Models returns the names with at least one observation.
func (h *LatencyHistory) Models() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.samples))
	for name := range h.samples {
		names = append(names, name)
	}
	return names
}
