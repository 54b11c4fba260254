// Package report defines the caller-facing research report contract and the
// thin formatter that maps internal results onto it.
package report

import (
	"time"

	"github.com/sells-group/council/internal/analyzer"
	"github.com/sells-group/council/internal/catalog"
	"github.com/sells-group/council/internal/executor"
)

// ResearchReport is the public result shape. Invariants: successes plus
// failures equals len(Responses); ConfidenceScore is in [0,1]; a report only
// exists when at least one outcome succeeded.
type ResearchReport struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"`
	Focus      string    `json:"focus"`
	Complexity string    `json:"complexity"`
	Timestamp  time.Time `json:"timestamp"`

	ModelsUsed []string        `json:"models_used"`
	Responses  []ModelResponse `json:"responses"`
	Analysis   Analysis        `json:"analysis"`

	// Performance is omitted unless metadata was requested.
	Performance *Performance `json:"performance,omitempty"`

	// Errors lists per-model failure descriptions for partial failures.
	Errors []string `json:"errors,omitempty"`
}

// ModelResponse is one model's outcome.
type ModelResponse struct {
	Model          string  `json:"model"`
	Response       string  `json:"response"`
	ResponseTimeMS int64   `json:"response_time_ms"`
	TokenCount     int     `json:"token_count"`
	Confidence     float64 `json:"confidence"`
	Error          string  `json:"error,omitempty"`
}

// Analysis is the comparative result section.
type Analysis struct {
	ConvergentThemes        []Theme       `json:"convergent_themes"`
	DivergentPerspectives   []Perspective `json:"divergent_perspectives"`
	ReasoningStyles         []Style       `json:"reasoning_styles"`
	Synthesis               string        `json:"synthesis"`
	Recommendations         []string      `json:"recommendations"`
	ConfidenceScore         float64       `json:"confidence_score"`
	ModelSelectionReasoning string        `json:"model_selection_reasoning,omitempty"`
}

// Theme is a convergent concept across responses.
type Theme struct {
	Theme            string   `json:"theme"`
	SupportingModels []string `json:"supporting_models"`
	Evidence         []string `json:"evidence,omitempty"`
	Confidence       float64  `json:"confidence"`
}

// Perspective is one divergent item.
type Perspective struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Models      []string `json:"models"`
}

// Style is one model's reasoning-style classification.
type Style struct {
	Model           string   `json:"model"`
	Style           string   `json:"style"`
	Characteristics []string `json:"characteristics,omitempty"`
	Depth           string   `json:"depth"`
	Confidence      float64  `json:"confidence"`
}

// Performance aggregates request-level timing.
type Performance struct {
	TotalTimeMS           int64 `json:"total_time_ms"`
	SuccessfulResponses   int   `json:"successful_responses"`
	FailedResponses       int   `json:"failed_responses"`
	AverageResponseTimeMS int64 `json:"average_response_time_ms"`
}

// Input carries everything the formatter needs.
type Input struct {
	ID              string
	Question        string
	Focus           catalog.Focus
	Complexity      catalog.Complexity
	Outcomes        []executor.Outcome
	Analysis        *analyzer.Analysis
	Rationale       string
	TotalTime       time.Duration
	IncludeMetadata bool
}

// Format maps internal results to the public report shape.
func Format(in Input) *ResearchReport {
	r := &ResearchReport{
		ID:         in.ID,
		Question:   in.Question,
		Focus:      string(in.Focus),
		Complexity: string(in.Complexity),
		Timestamp:  time.Now().UTC(),
	}

	var successes, failures int
	var totalElapsed time.Duration
	for _, o := range in.Outcomes {
		resp := ModelResponse{
			Model:          o.Model,
			Response:       o.Response,
			ResponseTimeMS: o.Elapsed.Milliseconds(),
			TokenCount:     o.TokenCount,
			Confidence:     o.Confidence,
		}
		if o.Err != nil {
			resp.Error = o.Err.Error()
			failures++
			r.Errors = append(r.Errors, o.Model+": "+o.Err.Error())
		} else {
			successes++
		}
		totalElapsed += o.Elapsed
		r.ModelsUsed = append(r.ModelsUsed, o.Model)
		r.Responses = append(r.Responses, resp)
	}

	r.Analysis = formatAnalysis(in.Analysis)
	if in.IncludeMetadata {
		r.Analysis.ModelSelectionReasoning = in.Rationale

		perf := &Performance{
			TotalTimeMS:         in.TotalTime.Milliseconds(),
			SuccessfulResponses: successes,
			FailedResponses:     failures,
		}
		if len(in.Outcomes) > 0 {
			perf.AverageResponseTimeMS = (totalElapsed / time.Duration(len(in.Outcomes))).Milliseconds()
		}
		r.Performance = perf
	}

	return r
}

func formatAnalysis(a *analyzer.Analysis) Analysis {
	out := Analysis{
		ConvergentThemes:      []Theme{},
		DivergentPerspectives: []Perspective{},
		ReasoningStyles:       []Style{},
	}
	if a == nil {
		return out
	}

	for _, t := range a.Themes {
		out.ConvergentThemes = append(out.ConvergentThemes, Theme{
			Theme:            t.Label,
			SupportingModels: t.Models,
			Evidence:         t.Evidence,
			Confidence:       t.Confidence,
		})
	}
	for _, p := range a.Perspectives {
		out.DivergentPerspectives = append(out.DivergentPerspectives, Perspective{
			Type:        string(p.Kind),
			Description: p.Description,
			Models:      p.Models,
		})
	}
	for _, s := range a.Styles {
		out.ReasoningStyles = append(out.ReasoningStyles, Style{
			Model:           s.Model,
			Style:           s.Style,
			Characteristics: s.Characteristics,
			Depth:           s.Depth,
			Confidence:      s.Confidence,
		})
	}
	out.Synthesis = a.Synthesis
	out.Recommendations = a.Recommendations
	out.ConfidenceScore = a.Confidence
	return out
}
