package executor

import (
	"strings"

	"github.com/sells-group/council/internal/catalog"
)

// Confidence scoring is a heuristic blend, not a calibrated probability.
// The structure (size prior, length fit, language credit, reliability
// multiplier, truncation halving, clamp) is preserved for report
// compatibility.
const (
	confidenceFloor   = 0.10
	confidenceCeiling = 0.95

	// truncatedChars marks a response as pathologically short.
	truncatedChars = 40
)

// connectiveMarkers is evidentiary/connective language that earns a small
// credit: responses that reason tend to use it.
var connectiveMarkers = []string{
	"because",
	"therefore",
	"however",
	"for example",
	"in contrast",
	"as a result",
	"evidence",
	"research",
	"studies",
	"specifically",
}

// scoreConfidence estimates outcome confidence in [0.10, 0.95].
func scoreConfidence(response, question string, rec *catalog.CapabilityRecord, limits Limits) float64 {
	score := sizePrior(rec.ParamsB)
	score += lengthFit(len(response), limits)
	score += languageCredit(response)
	score += overlapCredit(response, question)

	score *= rec.Reliability

	if len(response) < truncatedChars || looksTruncated(response) {
		score /= 2
	}

	if score < confidenceFloor {
		return confidenceFloor
	}
	if score > confidenceCeiling {
		return confidenceCeiling
	}
	return score
}

// sizePrior maps parameter count to a base confidence in [0.40, 0.65].
func sizePrior(paramsB float64) float64 {
	frac := paramsB / 70
	if frac > 1 {
		frac = 1
	}
	return 0.40 + 0.25*frac
}

// lengthFit rewards responses within the expected range for the complexity
// level, scales the credit down for short ones, and trims it for rambling
// ones.
func lengthFit(chars int, limits Limits) float64 {
	minChars, maxChars := limits.MinResponseChars, limits.MaxResponseChars
	if minChars <= 0 || maxChars <= 0 {
		return 0
	}
	switch {
	case chars >= minChars && chars <= maxChars:
		return 0.15
	case chars < minChars:
		return 0.15 * float64(chars) / float64(minChars)
	default:
		return 0.05
	}
}

// languageCredit adds 0.02 per connective marker present, capped at 0.10.
func languageCredit(response string) float64 {
	lower := strings.ToLower(response)
	credit := 0.0
	for _, marker := range connectiveMarkers {
		if strings.Contains(lower, marker) {
			credit += 0.02
		}
	}
	if credit > 0.10 {
		credit = 0.10
	}
	return credit
}

// overlapCredit rewards lexical overlap with the question, up to 0.10.
func overlapCredit(response, question string) float64 {
	respLower := strings.ToLower(response)
	terms := strings.Fields(strings.ToLower(question))

	var considered, present int
	for _, term := range terms {
		term = strings.Trim(term, "?.,!:;\"'")
		if len(term) < 4 {
			continue // skip stop-word-length terms
		}
		considered++
		if strings.Contains(respLower, term) {
			present++
		}
	}
	if considered == 0 {
		return 0
	}
	return 0.10 * float64(present) / float64(considered)
}

// looksTruncated reports whether the response ends mid-sentence.
func looksTruncated(response string) bool {
	trimmed := strings.TrimRight(response, " \n\t")
	if trimmed == "" {
		return true
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?', ')', '"', '\'', '`', ']', '}', ':':
		return false
	default:
		return true
	}
}
