package cache

import (
	"context"
	"sync"
	"time"

	"dispatch-nav-service/internal/domain"
)

type memoryEntry struct {
	route     *domain.Route
	expiresAt time.Time
}

// MemoryRouteCache is a process-local route cache used when no Redis address
// is configured. Expired entries are evicted lazily on read and swept when
// the map grows past a soft cap.
type MemoryRouteCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

const memorySweepThreshold = 256

func NewMemoryRouteCache() *MemoryRouteCache {
	return &MemoryRouteCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryRouteCache) Get(ctx context.Context, key string) (*domain.Route, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}

	return entry.route, true, nil
}

func (c *MemoryRouteCache) Put(ctx context.Context, key string, route *domain.Route, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= memorySweepThreshold {
		now := c.now()
		for k, e := range c.entries {
			if now.After(e.expiresAt) {
				delete(c.entries, k)
			}
		}
	}

	c.entries[key] = memoryEntry{route: route, expiresAt: c.now().Add(ttl)}
	return nil
}
