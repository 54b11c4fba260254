package analyzer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sells-group/council/internal/executor"
)

// stepPattern detects enumerated step-by-step structure.
var stepPattern = regexp.MustCompile(`(?m)^\s*(?:\d+[.)]\s|step\s+\d+|first,|second,|third,)`)

// findPerspectives extracts disagreements, unique approaches, and emphasis
// skews, capped at maxPerspectives.
func (a *Analyzer) findPerspectives(successes []executor.Outcome) []Perspective {
	responses := dedupeByModel(successes)

	var perspectives []Perspective
	perspectives = append(perspectives, a.antonymDisagreements(responses)...)
	if p := uniqueApproach(responses); p != nil {
		perspectives = append(perspectives, *p)
	}
	perspectives = append(perspectives, a.emphasisSkews(responses)...)

	if len(perspectives) > maxPerspectives {
		perspectives = perspectives[:maxPerspectives]
	}
	return perspectives
}

// modelResponse pairs one model with its (merged) lowercase response text.
type modelResponse struct {
	model string
	text  string
}

func dedupeByModel(successes []executor.Outcome) []modelResponse {
	merged := make(map[string]string)
	for _, o := range successes {
		merged[o.Model] += " " + strings.ToLower(o.Response)
	}

	models := make([]string, 0, len(merged))
	for m := range merged {
		models = append(models, m)
	}
	sort.Strings(models)

	out := make([]modelResponse, 0, len(models))
	for _, m := range models {
		out = append(out, modelResponse{model: m, text: merged[m]})
	}
	return out
}

// antonymDisagreements reports a disagreement whenever some models lean on
// one side of an antonym pair and others on the opposite side.
func (a *Analyzer) antonymDisagreements(responses []modelResponse) []Perspective {
	var perspectives []Perspective
	for _, pair := range a.antonyms {
		var sideA, sideB []string
		for _, r := range responses {
			hasA := containsWord(r.text, pair[0])
			hasB := containsWord(r.text, pair[1])
			switch {
			case hasA && !hasB:
				sideA = append(sideA, r.model)
			case hasB && !hasA:
				sideB = append(sideB, r.model)
			}
		}
		if len(sideA) > 0 && len(sideB) > 0 {
			perspectives = append(perspectives, Perspective{
				Kind: PerspectiveDisagreement,
				Description: fmt.Sprintf("Models disagree along %q vs %q: %s lean %q while %s lean %q.",
					pair[0], pair[1],
					strings.Join(sideA, ", "), pair[0],
					strings.Join(sideB, ", "), pair[1]),
				Models: append(sideA, sideB...),
			})
		}
	}
	return perspectives
}

// containsWord matches the needle at word boundaries; multi-word needles use
// plain containment.
func containsWord(haystack, needle string) bool {
	if strings.Contains(needle, " ") {
		return strings.Contains(haystack, needle)
	}
	for start := 0; ; {
		idx := strings.Index(haystack[start:], needle)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(needle)
		beforeOK := idx == 0 || !isWordChar(haystack[idx-1])
		afterOK := end == len(haystack) || !isWordChar(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		start = idx + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// uniqueApproach flags a lone step-by-step responder among prose answers.
func uniqueApproach(responses []modelResponse) *Perspective {
	if len(responses) < 2 {
		return nil
	}
	var steppers []string
	for _, r := range responses {
		if stepPattern.MatchString(r.text) {
			steppers = append(steppers, r.model)
		}
	}
	if len(steppers) != 1 {
		return nil
	}
	return &Perspective{
		Kind: PerspectiveUniqueApproach,
		Description: fmt.Sprintf("%s alone structured its answer as explicit step-by-step guidance while the others answered in prose.",
			steppers[0]),
		Models: steppers,
	}
}

// emphasisSkews reports categories that some but not all models emphasize.
// A model emphasizes a category when at least two of its vocabulary terms
// appear.
func (a *Analyzer) emphasisSkews(responses []modelResponse) []Perspective {
	if len(responses) < 2 {
		return nil
	}

	categories := make([]string, 0, len(a.categories))
	for cat := range a.categories {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var perspectives []Perspective
	for _, cat := range categories {
		var emphasizing []string
		for _, r := range responses {
			hits := 0
			for _, term := range a.categories[cat] {
				if strings.Contains(r.text, term) {
					hits++
				}
			}
			if hits >= 2 {
				emphasizing = append(emphasizing, r.model)
			}
		}
		if len(emphasizing) > 0 && len(emphasizing) < len(responses) {
			perspectives = append(perspectives, Perspective{
				Kind: PerspectiveEmphasisSkew,
				Description: fmt.Sprintf("Only %s emphasize %s considerations.",
					strings.Join(emphasizing, ", "), cat),
				Models: emphasizing,
			})
		}
	}
	return perspectives
}
