// Package resultcache provides a bounded, TTL-based store for tool
// invocation results, keyed by tool name plus canonicalized arguments.
package resultcache

import (
	"sync"
	"time"
)

// DefaultMaxEntries bounds the cache when no limit is configured.
const DefaultMaxEntries = 1000

// DefaultTTL asks Put to apply the cache's configured TTL.
const DefaultTTL time.Duration = -1

type entry struct {
	value      interface{}
	insertedAt time.Time
	expiresAt  time.Time
}

// Cache is a thread-safe bounded cache with lazy TTL expiry. Eviction is
// FIFO by insertion, not LRU by access: reads never update bookkeeping,
// which keeps Get cheap under concurrent load.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	order      []string
	maxEntries int
	defaultTTL time.Duration
}

// New creates a cache holding at most maxEntries entries, with ttl used
// for entries inserted without an explicit TTL.
func New(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		entries:    make(map[string]entry),
		maxEntries: maxEntries,
		defaultTTL: ttl,
	}
}

// Get retrieves a value. A miss is silent; an entry past its expiry is
// removed and treated as a miss.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	now := time.Now()
	if !now.Before(e.expiresAt) {
		c.mu.Lock()
		if current, ok := c.entries[key]; ok && !now.Before(current.expiresAt) {
			c.remove(key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

// Put inserts or overwrites an entry. When at capacity it evicts the
// least-recently-inserted entry first; exactly enough to admit the new
// one. A negative ttl (use DefaultTTL) applies the cache default; a ttl
// of zero inserts an already-expired entry, so the next Get is a miss.
// Overwriting refreshes the entry's insertion position.
func (c *Cache) Put(key string, value interface{}, ttl time.Duration) {
	if ttl < 0 {
		ttl = c.defaultTTL
	}
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.removeFromOrder(key)
	} else if len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}

	c.entries[key] = entry{
		value:      value,
		insertedAt: now,
		expiresAt:  now.Add(ttl),
	}
	c.order = append(c.order, key)
}

// Invalidate removes an entry, used when a tool is known to have
// produced a stale result.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.remove(key)
}

// Purge removes every expired entry and returns how many were dropped.
// Complements the lazy expiry in Get so keys that are never read again
// do not pin memory.
func (c *Cache) Purge() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	kept := c.order[:0]
	for _, key := range c.order {
		e, ok := c.entries[key]
		if !ok {
			continue
		}
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
			continue
		}
		kept = append(kept, key)
	}
	c.order = kept
	return removed
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
	c.order = nil
}

// Len returns the current number of entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// remove deletes an entry and its order slot. Caller holds the lock.
func (c *Cache) remove(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	c.removeFromOrder(key)
}

func (c *Cache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// evictOldest drops the oldest-inserted live entry. Caller holds the lock.
func (c *Cache) evictOldest() {
	for len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		if _, ok := c.entries[oldest]; ok {
			delete(c.entries, oldest)
			return
		}
	}
}
