package ports

import (
	"context"
	"time"

	"dispatch-nav-service/internal/domain"
)

// Port: bounded-lifetime memoization of fetched routes, keyed by the exact
// input coordinate signature. Only the route fetcher writes to it; entries
// expire by age (last write wins).
type RouteCache interface {
	// Get returns the cached route for key, or ok=false on miss/expiry.
	Get(ctx context.Context, key string) (route *domain.Route, ok bool, err error)
	// Put stores route under key for at most ttl.
	Put(ctx context.Context, key string, route *domain.Route, ttl time.Duration) error
}
