package perf

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/sells-group/council/internal/catalog"
	"github.com/sells-group/council/internal/report"
)

// reportCache wraps one expirable LRU per complexity level, since TTLs
// differ by level.
type reportCache struct {
	byLevel map[catalog.Complexity]*expirable.LRU[string, *report.ResearchReport]
}

func newReportCache(policies map[catalog.Complexity]Policy) *reportCache {
	byLevel := make(map[catalog.Complexity]*expirable.LRU[string, *report.ResearchReport], len(policies))
	for level, pol := range policies {
		size := pol.CacheSize
		if size <= 0 {
			size = 32
		}
		byLevel[level] = expirable.NewLRU[string, *report.ResearchReport](size, nil, pol.CacheTTL)
	}
	return &reportCache{byLevel: byLevel}
}

func (c *reportCache) get(level catalog.Complexity, key string) (*report.ResearchReport, bool) {
	lru, ok := c.byLevel[level]
	if !ok {
		return nil, false
	}
	return lru.Get(key)
}

func (c *reportCache) add(level catalog.Complexity, key string, r *report.ResearchReport) {
	if lru, ok := c.byLevel[level]; ok {
		lru.Add(key, r)
	}
}

// CacheKey derives the cache key for a request: a digest of the normalized
// question, the sorted model set, the complexity, and the focus.
func CacheKey(question string, models []string, complexity catalog.Complexity, focus catalog.Focus) string {
	sorted := make([]string, len(models))
	copy(sorted, models)
	sort.Strings(sorted)

	h := sha256.New()
	h.Write([]byte(normalizeQuestion(question)))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(sorted, ",")))
	h.Write([]byte{0})
	h.Write([]byte(complexity))
	h.Write([]byte{0})
	h.Write([]byte(focus))
	return hex.EncodeToString(h.Sum(nil))
}

// normalizeQuestion lowercases and collapses whitespace so trivially
// reworded duplicates share a cache slot.
func normalizeQuestion(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
