package analyzer

import (
	"sort"
	"strings"

	"github.com/sells-group/council/internal/executor"
)

// classifyStyles pattern-matches each response against the four style
// vocabularies, defaulting to "balanced" when nothing dominates.
func (a *Analyzer) classifyStyles(successes []executor.Outcome) []ReasoningStyle {
	seen := make(map[string]bool)
	var styles []ReasoningStyle
	for _, o := range successes {
		if seen[o.Model] {
			continue
		}
		seen[o.Model] = true
		styles = append(styles, a.classifyOne(o))
	}
	sort.Slice(styles, func(i, j int) bool { return styles[i].Model < styles[j].Model })
	return styles
}

func (a *Analyzer) classifyOne(o executor.Outcome) ReasoningStyle {
	lower := strings.ToLower(o.Response)

	names := make([]string, 0, len(a.styles))
	for name := range a.styles {
		names = append(names, name)
	}
	sort.Strings(names)

	hits := make(map[string]int)
	total := 0
	for _, name := range names {
		for _, term := range a.styles[name] {
			if strings.Contains(lower, term) {
				hits[name]++
				total++
			}
		}
	}

	style, best := "balanced", 0
	for _, name := range names {
		if hits[name] > best {
			style, best = name, hits[name]
		}
	}

	confidence := 0.5
	if total > 0 && best > 0 {
		confidence = float64(best) / float64(total)
		if confidence < 0.5 {
			style = "balanced"
			confidence = 0.5
		}
	}

	return ReasoningStyle{
		Model:           o.Model,
		Style:           style,
		Characteristics: characteristics(lower),
		Depth:           depthOf(lower),
		Confidence:      confidence,
	}
}

// characteristics collects coarse rhetorical tags.
func characteristics(lower string) []string {
	var tags []string
	if stepPattern.MatchString(lower) {
		tags = append(tags, "structured")
	}
	if strings.Contains(lower, "for example") || strings.Contains(lower, "e.g.") {
		tags = append(tags, "uses examples")
	}
	if strings.Contains(lower, "however") || strings.Contains(lower, "on the other hand") {
		tags = append(tags, "weighs alternatives")
	}
	if strings.Contains(lower, "research") || strings.Contains(lower, "studies") || strings.Contains(lower, "evidence") {
		tags = append(tags, "cites evidence")
	}
	if strings.Contains(lower, "caveat") || strings.Contains(lower, "depends on") {
		tags = append(tags, "hedges")
	}
	return tags
}

// depthOf derives a depth tag from length and connective density.
func depthOf(lower string) string {
	connectives := 0
	for _, marker := range connectiveMarkers {
		connectives += strings.Count(lower, marker)
	}

	switch {
	case len(lower) > 1500 && connectives >= 4:
		return "deep"
	case len(lower) > 400 && connectives >= 1:
		return "moderate"
	default:
		return "surface"
	}
}
