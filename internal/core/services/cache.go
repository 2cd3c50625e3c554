package services

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
)

// searchCacheMaxSize bounds the number of cached result sets.
const searchCacheMaxSize = 100

// SearchCache is a bounded in-memory cache for search result sets.
// When full, the earliest-inserted entry is evicted. All access goes
// through the mutex; invalidation clears everything at once.
type SearchCache struct {
	mu      sync.Mutex
	entries map[string][]*domain.SearchResult
	order   []string
	maxSize int
}

func NewSearchCache() *SearchCache {
	return &SearchCache{
		entries: make(map[string][]*domain.SearchResult),
		maxSize: searchCacheMaxSize,
	}
}

// cacheKey derives the lookup key from the query parameters.
func cacheKey(query string, topK int, useRecencyBoost bool) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%d|%t", query, topK, useRecencyBoost)))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached result set for key, if present.
func (c *SearchCache) Get(key string) ([]*domain.SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	results, ok := c.entries[key]
	return results, ok
}

// Put stores a result set, evicting the oldest entry when at capacity.
func (c *SearchCache) Put(key string, results []*domain.SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = results
		return
	}

	if len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = results
	c.order = append(c.order, key)
}

// InvalidateAll drops every cached result set. Called whenever the active
// document or chunk sets change.
func (c *SearchCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]*domain.SearchResult)
	c.order = nil
}

// Len returns the number of cached result sets.
func (c *SearchCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
