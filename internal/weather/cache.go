package weather

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a TTL map safe for concurrent use.
type Cache[V any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	clock clockwork.Clock
	m     map[string]cacheEntry[V]
}

func NewCache[V any](ttl time.Duration, clock clockwork.Clock) *Cache[V] {
	return &Cache[V]{
		ttl:   ttl,
		clock: clock,
		m:     make(map[string]cacheEntry[V]),
	}
}

// Get returns a live entry. Expired entries are removed.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.m[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.clock.Now().Before(entry.expiresAt) {
		delete(c.m, key)
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Set stores value under key and drops every other expired entry, so keys
// that are never read again do not pile up.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	for k, entry := range c.m {
		if !now.Before(entry.expiresAt) {
			delete(c.m, k)
		}
	}
	c.m[key] = cacheEntry[V]{value: value, expiresAt: now.Add(c.ttl)}
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
