package settings

import (
	"sync"
	"time"
)

// SettingsCache is an in-memory TTL cache for the enabled rule id list.
// There is exactly one entry, so no LRU bookkeeping is needed; the cache
// exists to keep per-record validation from hitting the settings table.
// Thread-safe implementation using sync.RWMutex.
type SettingsCache struct {
	mu         sync.RWMutex
	ruleIDs    []string
	insertedAt time.Time
	cached     bool
	ttl        time.Duration
	hits       uint64
	misses     uint64
}

// NewSettingsCache creates a new SettingsCache with the specified TTL
func NewSettingsCache(ttl time.Duration) *SettingsCache {
	return &SettingsCache{ttl: ttl}
}

// Get retrieves the cached enabled rule ids.
// Returns nil, false if nothing is cached or the entry has expired.
func (c *SettingsCache) Get() ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.cached || time.Since(c.insertedAt) > c.ttl {
		c.misses++
		c.cached = false
		c.ruleIDs = nil
		return nil, false
	}

	c.hits++
	// Copy so callers cannot mutate the cached slice.
	out := make([]string, len(c.ruleIDs))
	copy(out, c.ruleIDs)
	return out, true
}

// Set stores the enabled rule ids
func (c *SettingsCache) Set(ruleIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]string, len(ruleIDs))
	copy(stored, ruleIDs)
	c.ruleIDs = stored
	c.insertedAt = time.Now()
	c.cached = true
}

// Invalidate drops the cached entry
func (c *SettingsCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cached = false
	c.ruleIDs = nil
}

// CacheStats represents cache statistics
type CacheStats struct {
	Cached bool
	Hits   uint64
	Misses uint64
}

// Stats returns cache statistics
func (c *SettingsCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return CacheStats{
		Cached: c.cached,
		Hits:   c.hits,
		Misses: c.misses,
	}
}
