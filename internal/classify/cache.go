// Package classify provides the category suggestion collaborator and a
// TTL-cached wrapper around it.
package classify

import (
	"sync"
	"time"
)

// Cache is the caching capability a cached suggester needs: get, and set
// with an explicit TTL. It is injected rather than reached for globally so
// tests can substitute their own.
type Cache interface {
	Get(key string) (int, bool)
	SetWithTTL(key string, categoryID int, ttl time.Duration)
}

type cacheEntry struct {
	expiry     time.Time
	categoryID int
}

// MemoryCache is a thread-safe in-process Cache with lazy expiry.
type MemoryCache struct {
	entries map[string]cacheEntry
	mu      sync.RWMutex
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]cacheEntry)}
}

// Get returns the cached category id if present and not expired.
func (c *MemoryCache) Get(key string) (int, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists || time.Now().After(entry.expiry) {
		return 0, false
	}
	return entry.categoryID, true
}

// SetWithTTL stores a category id until the TTL elapses.
func (c *MemoryCache) SetWithTTL(key string, categoryID int, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		categoryID: categoryID,
		expiry:     time.Now().Add(ttl),
	}

	// Opportunistic sweep keeps the map from growing unbounded without a
	// background goroutine.
	if len(c.entries) > 4096 {
		now := time.Now()
		for k, e := range c.entries {
			if now.After(e.expiry) {
				delete(c.entries, k)
			}
		}
	}
}
