package analyzer

// Heuristic vocabularies live here as plain data so the clustering and
// classification logic stays testable independent of table contents, and so
// deployments can override them wholesale.

// defaultStopwords are excluded from theme keyword extraction.
func defaultStopwords() map[string]bool {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "when",
		"at", "by", "for", "with", "about", "against", "between", "into",
		"through", "during", "before", "after", "above", "below", "from",
		"up", "down", "in", "out", "on", "off", "over", "under", "again",
		"further", "once", "here", "there", "all", "any", "both", "each",
		"few", "more", "most", "other", "some", "such", "only", "own",
		"same", "so", "than", "too", "very", "can", "will", "just", "should",
		"could", "would", "may", "might", "must", "shall", "of", "to", "is",
		"are", "was", "were", "be", "been", "being", "have", "has", "had",
		"do", "does", "did", "doing", "it", "its", "this", "that", "these",
		"those", "they", "them", "their", "what", "which", "who", "whom",
		"you", "your", "yours", "not", "no", "nor", "as", "also", "however",
		"therefore", "because", "while", "where", "why", "how",
	}
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// defaultThemeLabels maps extracted seed keywords to human-readable theme
// labels. Seeds without an entry get a capitalized fallback.
func defaultThemeLabels() map[string]string {
	return map[string]string{
		"performance":      "Performance considerations",
		"scalability":      "Scalability",
		"security":         "Security implications",
		"maintainability":  "Maintainability",
		"complexity":       "Complexity tradeoffs",
		"cost":             "Cost factors",
		"testing":          "Testing strategy",
		"architecture":     "Architectural approach",
		"modular monolith": "Modular monolith architecture",
		"microservices":    "Microservices architecture",
		"typed":            "Static typing",
		"types":            "Type system",
		"typescript":       "TypeScript language",
		"concurrency":      "Concurrency model",
		"tradeoff":         "Tradeoff analysis",
		"tradeoffs":        "Tradeoff analysis",
		"reliability":      "Reliability",
		"latency":          "Latency",
		"tooling":          "Tooling and ecosystem",
		"migration":        "Migration path",
	}
}

// defaultAntonymPairs marks direct disagreement when some models lean one
// way and others the opposite.
func defaultAntonymPairs() [][2]string {
	return [][2]string{
		{"yes", "no"},
		{"should", "should not"},
		{"increase", "decrease"},
		{"faster", "slower"},
		{"better", "worse"},
		{"recommend", "avoid"},
		{"advantage", "disadvantage"},
		{"simple", "complicated"},
		{"safe", "risky"},
		{"scales", "bottleneck"},
	}
}

// defaultCategoryVocabulary detects emphasis skew across broad concern
// categories.
func defaultCategoryVocabulary() map[string][]string {
	return map[string][]string{
		"technical": {"implementation", "code", "algorithm", "architecture", "performance", "api", "database", "latency"},
		"business":  {"cost", "revenue", "market", "customer", "budget", "stakeholder", "roi", "deadline"},
		"ethical":   {"privacy", "bias", "fairness", "consent", "transparency", "harm", "responsibility"},
		"practical": {"steps", "tools", "example", "workflow", "setup", "install", "configure", "migrate"},
	}
}

// defaultStyleVocabularies classify a response's rhetorical approach.
func defaultStyleVocabularies() map[string][]string {
	return map[string][]string{
		"analytical":  {"analyze", "compare", "evaluate", "systematic", "structured", "weigh", "criteria", "tradeoff", "measure"},
		"creative":    {"imagine", "novel", "unconventional", "metaphor", "brainstorm", "reframe", "what if", "surprising"},
		"practical":   {"in practice", "step", "tool", "example", "implement", "concretely", "workflow", "start by"},
		"theoretical": {"in theory", "principle", "concept", "abstract", "framework", "formally", "model", "paradigm"},
	}
}

// connectiveMarkers measure reasoning density for depth classification.
var connectiveMarkers = []string{
	"because", "therefore", "however", "consequently", "for example",
	"in contrast", "as a result", "on the other hand", "this means",
}
