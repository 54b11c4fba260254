// Package analyzer extracts convergent and divergent signal across model
// responses, classifies reasoning styles, and synthesizes the comparative
// narrative with recommendations and an aggregate confidence score.
package analyzer

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/council/internal/catalog"
	"github.com/sells-group/council/internal/executor"
)

// ErrNoSuccessfulOutcomes guards the hard rule that analysis never runs on
// an all-failed outcome set; the engine turns that case into a terminal
// error before reaching the analyzer.
var ErrNoSuccessfulOutcomes = eris.New("analyzer: no successful outcomes to analyze")

// ThemeCluster is a concept independently present in multiple responses.
type ThemeCluster struct {
	Label      string
	Models     []string
	Evidence   []string
	Confidence float64 // fraction of responding models touching the concept
}

// PerspectiveKind classifies a divergent perspective.
type PerspectiveKind string

const (
	PerspectiveDisagreement   PerspectiveKind = "disagreement"
	PerspectiveUniqueApproach PerspectiveKind = "unique_approach"
	PerspectiveEmphasisSkew   PerspectiveKind = "emphasis_skew"
)

// Perspective is a disagreement, unique approach, or emphasis skew found in
// a minority of responses.
type Perspective struct {
	Kind        PerspectiveKind
	Description string
	Models      []string
}

// ReasoningStyle is the coarse rhetorical classification of one response.
type ReasoningStyle struct {
	Model           string
	Style           string
	Characteristics []string
	Depth           string
	Confidence      float64
}

// Analysis is the full comparative result for one question.
type Analysis struct {
	Themes          []ThemeCluster
	Perspectives    []Perspective
	Styles          []ReasoningStyle
	Synthesis       string
	Recommendations []string
	Confidence      float64
}

// maxPerspectives caps reported divergent items.
const maxPerspectives = 10

// maxThemes caps reported convergent themes.
const maxThemes = 8

// Analyzer holds the heuristic tables. Zero-configuration construction uses
// the built-in defaults.
type Analyzer struct {
	stopwords    map[string]bool
	themeLabels  map[string]string
	antonyms     [][2]string
	categories   map[string][]string
	styles       map[string][]string
}

// New creates an analyzer with the default tables.
func New() *Analyzer {
	return &Analyzer{
		stopwords:   defaultStopwords(),
		themeLabels: defaultThemeLabels(),
		antonyms:    defaultAntonymPairs(),
		categories:  defaultCategoryVocabulary(),
		styles:      defaultStyleVocabularies(),
	}
}

// Analyze builds the comparative analysis over the successful outcomes.
// Failed outcomes are ignored here except for the confidence penalty; zero
// successes is an error the caller should have prevented.
func (a *Analyzer) Analyze(question string, outcomes []executor.Outcome, focus catalog.Focus, complexity catalog.Complexity) (*Analysis, error) {
	successes := successful(outcomes)
	if len(successes) == 0 {
		return nil, ErrNoSuccessfulOutcomes
	}

	themes := a.clusterThemes(successes)
	perspectives := a.findPerspectives(successes)
	styles := a.classifyStyles(successes)

	analysis := &Analysis{
		Themes:       themes,
		Perspectives: perspectives,
		Styles:       styles,
		Confidence:   aggregateConfidence(outcomes, themes),
	}
	analysis.Synthesis = a.synthesize(question, analysis, successes, focus)
	analysis.Recommendations = a.recommend(analysis, outcomes, complexity)

	zap.L().Debug("analysis complete",
		zap.Int("themes", len(themes)),
		zap.Int("perspectives", len(perspectives)),
		zap.Float64("confidence", analysis.Confidence),
	)
	return analysis, nil
}

func successful(outcomes []executor.Outcome) []executor.Outcome {
	var ok []executor.Outcome
	for _, o := range outcomes {
		if o.Succeeded() && strings.TrimSpace(o.Response) != "" {
			ok = append(ok, o)
		}
	}
	return ok
}

// aggregateConfidence blends the mean outcome confidence with a convergence
// bonus (0.1 per theme, capped at 0.3) and a 0.1 penalty per failed
// outcome, clamped to [0,1]. A heuristic, not a calibrated probability.
func aggregateConfidence(outcomes []executor.Outcome, themes []ThemeCluster) float64 {
	var sum float64
	var successes, failures int
	for _, o := range outcomes {
		if o.Succeeded() {
			sum += o.Confidence
			successes++
		} else {
			failures++
		}
	}
	if successes == 0 {
		return 0
	}

	score := sum / float64(successes)

	bonus := 0.1 * float64(len(themes))
	if bonus > 0.3 {
		bonus = 0.3
	}
	score += bonus
	score -= 0.1 * float64(failures)

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// dominantStyle returns the most frequent non-balanced style, or "balanced".
func dominantStyle(styles []ReasoningStyle) string {
	counts := make(map[string]int)
	for _, s := range styles {
		counts[s.Style]++
	}

	best, bestN := "balanced", 0
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if name != "balanced" && counts[name] > bestN {
			best, bestN = name, counts[name]
		}
	}
	return best
}
