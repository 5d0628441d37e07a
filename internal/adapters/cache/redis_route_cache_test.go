package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"dispatch-nav-service/internal/domain"
)

func testRoute() *domain.Route {
	return &domain.Route{
		Legs: []domain.Leg{{
			OriginName:      "จุดเริ่มต้น",
			DestinationName: "จุดหมายที่ 1",
			DistanceMeters:  1200,
			DurationSeconds: 180,
			PathEnd:         1,
			TargetWaypoint:  0,
		}},
		Path: []domain.Coordinate{
			{Lat: 13.7563, Lon: 100.5018},
			{Lat: 13.7460, Lon: 100.5350},
		},
		DistanceMeters:  1200,
		DurationSeconds: 180,
		VisitOrder:      map[int]int{0: 1},
	}
}

func newRedisCache(t *testing.T) (*RedisRouteCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisRouteCache(client), mr
}

func TestRedisRouteCachePutGet(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedisCache(t)

	if _, ok, err := c.Get(ctx, "sig"); err != nil || ok {
		t.Fatalf("empty cache: ok=%t err=%v, want miss", ok, err)
	}

	if err := c.Put(ctx, "sig", testRoute(), 30*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	route, ok, err := c.Get(ctx, "sig")
	if err != nil || !ok {
		t.Fatalf("ok=%t err=%v, want hit", ok, err)
	}
	if len(route.Legs) != 1 || route.Legs[0].DestinationName != "จุดหมายที่ 1" {
		t.Errorf("round-tripped route legs = %+v", route.Legs)
	}
	if route.VisitOrder[0] != 1 {
		t.Errorf("visit order lost: %v", route.VisitOrder)
	}
}

func TestRedisRouteCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)

	if err := c.Put(ctx, "sig", testRoute(), 30*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mr.FastForward(31 * time.Second)

	if _, ok, err := c.Get(ctx, "sig"); err != nil || ok {
		t.Fatalf("ok=%t err=%v, want expired miss", ok, err)
	}
}

func TestRedisRouteCacheMalformedEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)

	mr.Set("route:sig", "{not json")

	if _, ok, err := c.Get(ctx, "sig"); err != nil || ok {
		t.Fatalf("ok=%t err=%v, want silent miss", ok, err)
	}
}

func TestRedisRouteCacheValidation(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedisCache(t)

	if err := c.Put(ctx, "", testRoute(), time.Second); err == nil {
		t.Error("expected error for empty key")
	}
	if err := c.Put(ctx, "sig", nil, time.Second); err == nil {
		t.Error("expected error for nil route")
	}
	if _, _, err := c.Get(ctx, ""); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestMemoryRouteCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryRouteCache()

	current := time.Now()
	c.now = func() time.Time { return current }

	if err := c.Put(ctx, "sig", testRoute(), 30*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "sig"); !ok {
		t.Fatal("expected hit before expiry")
	}

	current = current.Add(31 * time.Second)
	if _, ok, _ := c.Get(ctx, "sig"); ok {
		t.Fatal("expected miss after expiry")
	}
}
