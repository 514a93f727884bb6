package cache

import (
	"sync"
	"time"
)

type memoryEntry struct {
	value  string
	stored time.Time
}

// InMemoryCache is a thread-safe in-memory cache with TTL support.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryCache creates an in-memory cache. A ttl of zero or less keeps
// entries forever.
func NewInMemoryCache(ttl time.Duration) *InMemoryCache {
	if ttl < 0 {
		ttl = 0
	}
	return &InMemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *InMemoryCache) expired(e memoryEntry) bool {
	return c.ttl > 0 && c.now().Sub(e.stored) > c.ttl
}

// Get returns the value for key unless it is missing or expired.
func (c *InMemoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if c.expired(e) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return "", false
	}
	return e.value, true
}

// Set stores a value in the cache.
func (c *InMemoryCache) Set(key string, value string) error {
	c.mu.Lock()
	c.entries[key] = memoryEntry{value: value, stored: c.now()}
	c.mu.Unlock()
	return nil
}

// Len returns the number of entries, expired ones included.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *InMemoryCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
}

// Entries returns all live entries.
func (c *InMemoryCache) Entries() (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.entries))
	for k, e := range c.entries {
		if !c.expired(e) {
			out[k] = e.value
		}
	}
	return out, nil
}

var (
	_ TranslationCache = (*InMemoryCache)(nil)
	_ Lister           = (*InMemoryCache)(nil)
)
