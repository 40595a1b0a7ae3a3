package tablestore

import (
	"sync"
	"time"
)

// TTLCache is the read cache layered over the table backend. One
// instance is constructed at process start and injected; entries are
// invalidated explicitly after every successful write to their table.
type TTLCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	value    interface{}
	loadedAt time.Time
}

func NewTTLCache(ttl time.Duration) *TTLCache {
	return &TTLCache{
		ttl:     ttl,
		entries: map[string]cacheEntry{},
		now:     time.Now,
	}
}

// Get returns the cached value for key, calling loader on a miss or an
// expired entry. Loader errors are not cached.
func (c *TTLCache) Get(key string, loader func() (interface{}, error)) (interface{}, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Sub(e.loadedAt) < c.ttl {
		c.mu.Unlock()
		return e.value, nil
	}
	c.mu.Unlock()

	v, err := loader()
	if err != nil {
		return nil, err
	}
	c.Put(key, v)
	return v, nil
}

func (c *TTLCache) Put(key string, v interface{}) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: v, loadedAt: c.now()}
	c.mu.Unlock()
}

func (c *TTLCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
