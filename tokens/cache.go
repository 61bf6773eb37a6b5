package tokens

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/xxh3"
)

// DefaultCacheSize is the number of distinct texts a CachingEstimator remembers.
const DefaultCacheSize = 4096

// CacheStats reports CachingEstimator counters.
type CacheStats struct {
	Hits   int64
	Misses int64
}

type cacheKey struct {
	hash   uint64
	length int
}

// CachingEstimator memoizes another Estimator. Prompt trees are rebuilt on
// every turn from mostly identical text, so repeated counts are common.
// Failed estimates are not cached.
type CachingEstimator struct {
	next    Estimator
	entries *lru.Cache[cacheKey, int]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachingEstimator wraps next with an LRU cache of the given size.
// A size <= 0 uses DefaultCacheSize.
func NewCachingEstimator(next Estimator, size int) *CachingEstimator {
	if size <= 0 {
		size = DefaultCacheSize
	}
	// lru.New only fails for non-positive sizes.
	entries, _ := lru.New[cacheKey, int](size)
	return &CachingEstimator{next: next, entries: entries}
}

// Estimate returns the cached count for text or asks the wrapped estimator.
func (c *CachingEstimator) Estimate(text string) (int, error) {
	key := cacheKey{hash: xxh3.HashString(text), length: len(text)}
	if n, ok := c.entries.Get(key); ok {
		c.hits.Add(1)
		return n, nil
	}
	c.misses.Add(1)

	n, err := c.next.Estimate(text)
	if err != nil {
		return 0, err
	}
	c.entries.Add(key, n)
	return n, nil
}

// TruncateTokens delegates to the wrapped estimator when it can cut at
// token boundaries.
func (c *CachingEstimator) TruncateTokens(text string, maxTokens int) (string, error) {
	if t, ok := c.next.(TokenTruncator); ok {
		return t.TruncateTokens(text, maxTokens)
	}
	return "", ErrNoTokenTruncation
}

// CanTruncateTokens reports whether TruncateTokens is backed by the wrapped
// estimator.
func (c *CachingEstimator) CanTruncateTokens() bool {
	_, ok := c.next.(TokenTruncator)
	return ok
}

// Stats returns hit and miss counters.
func (c *CachingEstimator) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Len returns the number of cached entries.
func (c *CachingEstimator) Len() int {
	return c.entries.Len()
}
