package dedupe

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is a development-only in-memory cache.
// WARNING: not suitable for production — state is lost on restart and
// does not work across multiple instances.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]time.Time // key -> expiry

	// now is swapped in tests to control the clock.
	now func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (c *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiry, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	if c.now().After(expiry) {
		delete(c.entries, key)
		return false, nil
	}
	return true, nil
}

func (c *MemoryCache) Mark(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = c.now().Add(c.ttl)
	return nil
}

func (c *MemoryCache) Clear(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
