package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dispatch-nav-service/internal/domain"
	"dispatch-nav-service/internal/platform/obs"
)

// RedisRouteCache is a Redis-backed cache for fetched routes, shared across
// server instances. Entries are stored as JSON under the fetch signature and
// expire via Redis TTL.
type RedisRouteCache struct {
	Client *redis.Client
	Prefix string
}

func NewRedisRouteCache(client *redis.Client) *RedisRouteCache {
	return &RedisRouteCache{Client: client, Prefix: "route:"}
}

// Fetch a cached route by signature.
func (c *RedisRouteCache) Get(ctx context.Context, key string) (_ *domain.Route, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	if c.Client == nil {
		return nil, false, errors.New("route cache: redis client is nil")
	}
	if key == "" {
		return nil, false, errors.New("get route cache: key must not be empty")
	}

	payload, err := c.Client.Get(ctx, c.Prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get route cache: %w", err)
	}

	var route domain.Route
	if err := json.Unmarshal(payload, &route); err != nil {
		// A malformed entry is treated as a miss; the next Put repairs it.
		return nil, false, nil
	}

	return &route, true, nil
}

// Store a route under its signature for at most ttl.
func (c *RedisRouteCache) Put(ctx context.Context, key string, route *domain.Route, ttl time.Duration) error {
	if c.Client == nil {
		return errors.New("route cache: redis client is nil")
	}
	if key == "" {
		return errors.New("put route cache: key must not be empty")
	}
	if route == nil {
		return errors.New("put route cache: route must not be nil")
	}

	payload, err := json.Marshal(route)
	if err != nil {
		return fmt.Errorf("put route cache: marshal route: %w", err)
	}

	if err := c.Client.Set(ctx, c.Prefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("put route cache: %w", err)
	}

	return nil
}
