package catalog

import (
	"sync"
	"time"

	"coffeeshop/internal/models"
)

type cacheEntry struct {
	product   models.Product
	expiresAt time.Time
}

// Cache is a read-through TTL cache over durable product lookups, keyed by
// base catalog name. Entries are never invalidated by writes; callers must
// tolerate staleness within the TTL window.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *Cache) Get(name string) (models.Product, bool) {
	c.mu.RLock()
	entry, ok := c.entries[name]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		return models.Product{}, false
	}
	return entry.product, true
}

func (c *Cache) Set(name string, product models.Product) {
	c.mu.Lock()
	c.entries[name] = cacheEntry{
		product:   product,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}
