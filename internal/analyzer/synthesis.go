package analyzer

import (
	"fmt"
	"strings"

	"github.com/sells-group/council/internal/catalog"
	"github.com/sells-group/council/internal/executor"
)

// synthesize renders the templated comparative narrative: convergent themes
// with support ratios, up to five divergences, a focus-specific paragraph,
// and a closing quality statement.
func (a *Analyzer) synthesize(question string, analysis *Analysis, successes []executor.Outcome, focus catalog.Focus) string {
	responders := countModels(successes)
	var b strings.Builder

	fmt.Fprintf(&b, "Comparative analysis of %d independent model responses to: %s\n\n", responders, question)

	if len(analysis.Themes) > 0 {
		b.WriteString("Convergent findings: ")
		var parts []string
		for i, theme := range analysis.Themes {
			if i >= 3 {
				break
			}
			parts = append(parts, fmt.Sprintf("%s (%d/%d models)", theme.Label, len(theme.Models), responders))
		}
		b.WriteString(strings.Join(parts, "; "))
		b.WriteString(".\n\n")
	} else {
		b.WriteString("The responses share little common ground; no convergent theme met the agreement threshold. Treat any single answer with caution.\n\n")
	}

	if len(analysis.Perspectives) > 0 {
		b.WriteString("Divergences:\n")
		for i, p := range analysis.Perspectives {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "- %s\n", p.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString(focusParagraph(focus, analysis))
	b.WriteString("\n\n")
	b.WriteString(qualityStatement(analysis, responders))

	return b.String()
}

func countModels(successes []executor.Outcome) int {
	seen := make(map[string]bool)
	for _, o := range successes {
		seen[o.Model] = true
	}
	return len(seen)
}

// focusParagraph is one fixed generator per focus value.
func focusParagraph(focus catalog.Focus, analysis *Analysis) string {
	style := dominantStyle(analysis.Styles)
	switch focus {
	case catalog.FocusTechnical:
		return fmt.Sprintf("From a technical standpoint, weight the convergent findings most heavily: independent models agreeing on implementation details is a stronger signal than any single model's depth. The dominant reasoning style here is %s.", style)
	case catalog.FocusBusiness:
		return fmt.Sprintf("For business decisions, treat the convergent themes as the defensible core of a recommendation and the divergences as the risk register. Responses leaned %s in style.", style)
	case catalog.FocusCreative:
		return fmt.Sprintf("For creative work, the divergent perspectives are the most valuable output; convergent themes indicate conventional ground already well covered. The responses leaned %s.", style)
	case catalog.FocusScientific:
		return fmt.Sprintf("Under a scientific lens, the convergent themes are hypotheses corroborated by independent sources, not verified facts; the divergences mark where further evidence is needed. Dominant style: %s.", style)
	default:
		return fmt.Sprintf("Overall, the convergent themes represent the consensus view and the divergences mark the open questions. Dominant reasoning style: %s.", style)
	}
}

// qualityStatement closes with the aggregate confidence and a qualitative
// read of consensus and diversity, including explicit limitation text when
// the signal is weak.
func qualityStatement(analysis *Analysis, responders int) string {
	consensus := "weak"
	switch {
	case len(analysis.Themes) >= 3:
		consensus = "strong"
	case len(analysis.Themes) >= 1:
		consensus = "moderate"
	}

	diversity := "low"
	switch {
	case len(analysis.Perspectives) > 3:
		diversity = "high"
	case len(analysis.Perspectives) >= 1:
		diversity = "moderate"
	}

	stmt := fmt.Sprintf("Aggregate confidence %.2f across %d responders; consensus is %s and perspective diversity is %s.",
		analysis.Confidence, responders, consensus, diversity)

	if consensus == "weak" || analysis.Confidence < 0.4 {
		stmt += " Limitation: the agreement signal across models is thin, so this report reflects individual model output more than independent corroboration."
	}
	return stmt
}

// recommend applies the rule-based recommendation set.
func (a *Analyzer) recommend(analysis *Analysis, outcomes []executor.Outcome, complexity catalog.Complexity) []string {
	var recs []string

	if len(analysis.Themes) > 0 {
		var labels []string
		for i, t := range analysis.Themes {
			if i >= 3 {
				break
			}
			labels = append(labels, t.Label)
		}
		recs = append(recs, fmt.Sprintf("Anchor any decision on the convergent findings: %s.", strings.Join(labels, ", ")))
	}

	if len(analysis.Perspectives) > 3 {
		recs = append(recs, "Models diverge substantially; prototype more than one approach before committing.")
	}

	if style := dominantStyle(analysis.Styles); style != "balanced" {
		recs = append(recs, fmt.Sprintf("Responses lean %s; seek a complementary perspective before finalizing.", style))
	}

	if complexity == catalog.ComplexityComplex {
		recs = append(recs, "Decompose the question into narrower sub-questions and research each independently.")
	}

	var sum float64
	var successes int
	for _, o := range outcomes {
		if o.Succeeded() {
			sum += o.Confidence
			successes++
		}
	}
	if successes > 0 && sum/float64(successes) < 0.7 {
		recs = append(recs, "Mean response confidence is low; validate key claims against independent sources.")
	}

	if len(recs) == 0 {
		recs = append(recs, "The responses agree broadly at high confidence; the consensus answer is safe to act on.")
	}
	return recs
}
