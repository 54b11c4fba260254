package analyzer

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"

	"github.com/sells-group/council/internal/executor"
)

const (
	minKeywordLen    = 4
	maxEvidence      = 5
	sharedPrefixLen  = 5
	maxEditDistance  = 2
)

// termSet is the distinct candidate keywords/phrases extracted from one
// response.
type termSet map[string]bool

// cluster accumulates a concept across models while grouping runs.
type cluster struct {
	seed    string
	members map[string]bool
	models  map[string]bool
}

// clusterThemes tokenizes each successful response into unigrams and 2-3
// word windows, groups near-identical terms across models, and keeps the
// concepts touched by at least half the responders (minimum two).
func (a *Analyzer) clusterThemes(successes []executor.Outcome) []ThemeCluster {
	if len(successes) < 2 {
		return nil
	}

	perModel := make(map[string]termSet, len(successes))
	for _, o := range successes {
		// Duplicate strategy slots merge into one response set per model.
		if existing, ok := perModel[o.Model]; ok {
			for term := range a.extractTerms(o.Response) {
				existing[term] = true
			}
			continue
		}
		perModel[o.Model] = a.extractTerms(o.Response)
	}
	responders := len(perModel)

	// Deterministic term walk: sorted models, sorted terms.
	models := make([]string, 0, responders)
	for m := range perModel {
		models = append(models, m)
	}
	sort.Strings(models)

	var clusters []*cluster
	for _, model := range models {
		terms := make([]string, 0, len(perModel[model]))
		for t := range perModel[model] {
			terms = append(terms, t)
		}
		sort.Strings(terms)

		for _, term := range terms {
			c := findCluster(clusters, term)
			if c == nil {
				c = &cluster{
					seed:    term,
					members: map[string]bool{term: true},
					models:  map[string]bool{},
				}
				clusters = append(clusters, c)
			}
			c.members[term] = true
			c.models[model] = true
		}
	}

	needed := (responders + 1) / 2
	if needed < 2 {
		needed = 2
	}

	var themes []ThemeCluster
	for _, c := range clusters {
		if len(c.models) < needed {
			continue
		}
		themes = append(themes, ThemeCluster{
			Label:      a.labelFor(c),
			Models:     sortedKeys(c.models),
			Evidence:   collectEvidence(successes, c),
			Confidence: float64(len(c.models)) / float64(responders),
		})
	}

	sort.SliceStable(themes, func(i, j int) bool {
		if themes[i].Confidence != themes[j].Confidence {
			return themes[i].Confidence > themes[j].Confidence
		}
		return themes[i].Label < themes[j].Label
	})
	if len(themes) > maxThemes {
		themes = themes[:maxThemes]
	}
	return themes
}

// findCluster matches a term to an existing cluster by shared prefix or
// bounded edit distance against the cluster seed.
func findCluster(clusters []*cluster, term string) *cluster {
	for _, c := range clusters {
		if sameConcept(c.seed, term) {
			return c
		}
	}
	return nil
}

func sameConcept(a, b string) bool {
	if a == b {
		return true
	}
	if prefixLen(a, b) >= sharedPrefixLen {
		return true
	}
	// Edit distance only meaningfully compares similar-length terms.
	if abs(len(a)-len(b)) > maxEditDistance {
		return false
	}
	return levenshtein.Distance(a, b, nil) <= maxEditDistance
}

func prefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

// extractTerms yields stop-word-filtered unigrams plus 2-3 word windows of
// consecutive non-stop-words.
func (a *Analyzer) extractTerms(response string) termSet {
	tokens := tokenize(response)
	terms := make(termSet)

	for i, tok := range tokens {
		if a.stopwords[tok] || len(tok) < minKeywordLen {
			continue
		}
		terms[tok] = true

		// 2- and 3-word windows starting here, all content words.
		for width := 2; width <= 3; width++ {
			if i+width > len(tokens) {
				break
			}
			ok := true
			for _, w := range tokens[i : i+width] {
				if a.stopwords[w] || len(w) < 3 {
					ok = false
					break
				}
			}
			if ok {
				terms[strings.Join(tokens[i:i+width], " ")] = true
			}
		}
	}
	return terms
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-'
	})
}

// labelFor maps the cluster to a curated label when any member term has a
// dictionary entry, preferring longer (more specific) members; otherwise it
// capitalizes the seed.
func (a *Analyzer) labelFor(c *cluster) string {
	members := make([]string, 0, len(c.members))
	for m := range c.members {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool {
		if len(members[i]) != len(members[j]) {
			return len(members[i]) > len(members[j])
		}
		return members[i] < members[j]
	})

	for _, m := range members {
		if label, ok := a.themeLabels[m]; ok {
			return label
		}
	}
	return capitalize(c.seed)
}

// collectEvidence gathers up to maxEvidence sentences mentioning any member
// term, at most two per model.
func collectEvidence(successes []executor.Outcome, c *cluster) []string {
	var evidence []string
	for _, o := range successes {
		perModel := 0
		for _, sentence := range splitSentences(o.Response) {
			if perModel >= 2 || len(evidence) >= maxEvidence {
				break
			}
			lower := strings.ToLower(sentence)
			for member := range c.members {
				if strings.Contains(lower, member) {
					evidence = append(evidence, strings.TrimSpace(sentence))
					perModel++
					break
				}
			}
		}
		if len(evidence) >= maxEvidence {
			break
		}
	}
	return evidence
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(current.String()); len(s) > 1 {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); len(s) > 1 {
		sentences = append(sentences, s)
	}
	return sentences
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
