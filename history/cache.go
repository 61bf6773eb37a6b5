package history

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/xxh3"
)

// DefaultCacheSize is the number of summaries a MemoryCache keeps.
const DefaultCacheSize = 128

// Cache stores summary turns by the range of turns they replace. It is
// shared across renders; implementations must be safe for concurrent use.
type Cache interface {
	Get(key uint64) (Turn, bool)
	Add(key uint64, summary Turn)
}

// RangeKey identifies a range of turns by their IDs.
func RangeKey(turns []Turn) uint64 {
	ids := make([]string, len(turns))
	for i, t := range turns {
		ids[i] = t.ID
	}
	return xxh3.HashString(strings.Join(ids, "\x00"))
}

// MemoryCache is an in-process LRU Cache.
type MemoryCache struct {
	entries *lru.Cache[uint64, Turn]
}

// NewMemoryCache creates a cache holding up to size summaries. A size <= 0
// uses DefaultCacheSize.
func NewMemoryCache(size int) *MemoryCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	// lru.New only fails for non-positive sizes.
	entries, _ := lru.New[uint64, Turn](size)
	return &MemoryCache{entries: entries}
}

// Get returns the summary stored under key.
func (c *MemoryCache) Get(key uint64) (Turn, bool) {
	return c.entries.Get(key)
}

// Add stores a summary under key.
func (c *MemoryCache) Add(key uint64, summary Turn) {
	c.entries.Add(key, summary)
}

// Len returns the number of stored summaries.
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}
