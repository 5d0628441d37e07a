package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"dispatch-nav-service/internal/config"
	"dispatch-nav-service/internal/domain"
	"dispatch-nav-service/internal/geo"
	"dispatch-nav-service/internal/ports"
)

// FetchInput is the full tuple a route derivation depends on.
type FetchInput struct {
	Start           *domain.Coordinate
	OriginalStart   *domain.Coordinate
	Waypoints       []*domain.Coordinate
	Completed       map[int]struct{}
	LocationNames   map[string]string
	TripType        domain.TripType
	TravelMode      domain.TravelMode
	Navigating      bool
	CurrentLegIndex int
	Reroute         bool
}

// activeWaypoints filters empty slots, keeping original indices. While
// navigating, waypoints already completed are dropped so a refetch never
// routes back to a finished stop.
func (in FetchInput) activeWaypoints() []domain.IndexedWaypoint {
	active := make([]domain.IndexedWaypoint, 0, len(in.Waypoints))
	for i, w := range in.Waypoints {
		if w == nil {
			continue
		}
		if in.Navigating {
			if _, done := in.Completed[i]; done {
				continue
			}
		}
		active = append(active, domain.IndexedWaypoint{Index: i, Point: *w})
	}
	return active
}

// coordinates builds the ordered list sent to the optimizer: start, active
// waypoints, and for round trips the original start captured at
// navigation-start time (not the live position) closing the loop.
func (in FetchInput) coordinates(active []domain.IndexedWaypoint) []domain.Coordinate {
	coords := make([]domain.Coordinate, 0, len(active)+2)
	coords = append(coords, *in.Start)
	for _, w := range active {
		coords = append(coords, w.Point)
	}
	if in.TripType == domain.TripRoundTrip {
		closing := in.Start
		if in.OriginalStart != nil {
			closing = in.OriginalStart
		}
		coords = append(coords, *closing)
	}
	return coords
}

// Signature identifies the exact fetch: every coordinate at fixed precision
// plus the navigating tag. Cache entries and in-flight requests key on it.
func (in FetchInput) Signature() string {
	active := in.activeWaypoints()
	if in.Start == nil || len(active) == 0 {
		return ""
	}

	var b strings.Builder
	for _, c := range in.coordinates(active) {
		b.WriteString(c.Key())
		b.WriteByte(';')
	}
	fmt.Fprintf(&b, "mode=%s|nav=%t", in.TravelMode, in.Navigating)
	return b.String()
}

// guardSignature identifies the fetch shape without the live start point:
// waypoints, trip type, navigating flag and leg index. Used by the
// barely-moved skip guard.
func (in FetchInput) guardSignature() string {
	var b strings.Builder
	for i, w := range in.Waypoints {
		if w == nil {
			fmt.Fprintf(&b, "%d:-;", i)
			continue
		}
		fmt.Fprintf(&b, "%d:%s;", i, w.Key())
	}
	fmt.Fprintf(&b, "trip=%s|mode=%s|nav=%t|leg=%d", in.TripType, in.TravelMode, in.Navigating, in.CurrentLegIndex)
	return b.String()
}

// RouteFetcher turns a fetch input into a normalized Route via the external
// trip-optimization service.
//
// It coordinates:
//   - Waypoint filtering and round-trip closure
//   - Visit-order and leg-target reconstruction after optimization
//   - Path flattening with step offset bookkeeping
//   - Signature-keyed caching and in-flight deduplication
//   - The barely-moved skip guard
//
// The fetcher is safe for concurrent use but holds per-trip guard state, so
// each navigation session owns its own instance (provider and cache are
// shared).
type RouteFetcher struct {
	provider ports.RouteProvider
	cache    ports.RouteCache
	cfg      config.NavConfig
	group    singleflight.Group

	mu           sync.Mutex
	lastGuardSig string
	lastStart    *domain.Coordinate
	lastRoute    *domain.Route
}

func NewRouteFetcher(provider ports.RouteProvider, cache ports.RouteCache, cfg config.NavConfig) *RouteFetcher {
	return &RouteFetcher{provider: provider, cache: cache, cfg: cfg}
}

// Fetch produces a Route for the input or fails with ErrInvalidInput /
// RoutingError. A previous successful route is never partially overwritten;
// on failure the caller keeps whatever it had.
func (f *RouteFetcher) Fetch(ctx context.Context, in FetchInput) (*domain.Route, error) {
	active := in.activeWaypoints()
	if in.Start == nil || len(active) == 0 {
		return nil, ErrInvalidInput
	}

	// Barely-moved guard: same shape, previous success, under the movement
	// threshold while not navigating - reuse the last route outright.
	guardSig := in.guardSignature()
	if !in.Reroute && !in.Navigating {
		f.mu.Lock()
		if f.lastRoute != nil && f.lastGuardSig == guardSig && f.lastStart != nil &&
			geo.HaversineMeters(*f.lastStart, *in.Start) < f.cfg.MinMoveMeters {
			route := f.lastRoute
			f.mu.Unlock()
			return route, nil
		}
		f.mu.Unlock()
	}

	sig := in.Signature()
	if !in.Reroute && f.cache != nil {
		if route, ok, err := f.cache.Get(ctx, sig); err != nil {
			log.Printf("route cache read failed: %v", err)
		} else if ok {
			f.remember(guardSig, in.Start, route)
			return route, nil
		}
	}

	v, err, _ := f.group.Do(sig, func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, f.cfg.FetchTimeout())
		defer cancel()

		trip, err := f.provider.Trip(ctx, ports.TripRequest{
			Coordinates:      in.coordinates(active),
			Mode:             in.TravelMode,
			FixedDestination: in.TripType == domain.TripRoundTrip,
		})
		if err != nil {
			return nil, &RoutingError{Err: err}
		}

		route, err := buildRoute(trip, active, in)
		if err != nil {
			return nil, &RoutingError{Err: err}
		}

		if f.cache != nil {
			if err := f.cache.Put(ctx, sig, route, f.cfg.CacheTTL()); err != nil {
				log.Printf("route cache write failed: %v", err)
			}
		}

		return route, nil
	})
	if err != nil {
		return nil, err
	}

	route := v.(*domain.Route)
	f.remember(guardSig, in.Start, route)
	return route, nil
}

func (f *RouteFetcher) remember(guardSig string, start *domain.Coordinate, route *domain.Route) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastGuardSig = guardSig
	startCopy := *start
	f.lastStart = &startCopy
	f.lastRoute = route
}

// buildRoute normalizes a provider trip into a domain Route: reconstructs
// the original-index visit order, tags each leg with the waypoint it
// arrives at, flattens step geometry into one path and records offsets.
func buildRoute(trip *ports.TripResult, active []domain.IndexedWaypoint, in FetchInput) (*domain.Route, error) {
	inputCount := len(active) + 1
	if in.TripType == domain.TripRoundTrip {
		inputCount++
	}
	if len(trip.VisitOrder) != inputCount {
		return nil, fmt.Errorf(
			"visit order has %d entries for %d input coordinates",
			len(trip.VisitOrder), inputCount,
		)
	}
	if len(trip.Legs) != inputCount-1 {
		return nil, fmt.Errorf(
			"trip has %d legs for %d input coordinates",
			len(trip.Legs), inputCount,
		)
	}

	// Input position -> assigned visit position, and its inverse.
	inputByVisit := make([]int, inputCount)
	for i := range inputByVisit {
		inputByVisit[i] = -1
	}
	for input, visit := range trip.VisitOrder {
		if visit < 0 || visit >= inputCount || inputByVisit[visit] != -1 {
			return nil, fmt.Errorf("optimizer visit order is not a permutation")
		}
		inputByVisit[visit] = input
	}
	if inputByVisit[0] != 0 {
		return nil, fmt.Errorf("optimizer moved the fixed origin to visit position %d", trip.VisitOrder[0])
	}

	// Original waypoint index -> 1-based visit sequence.
	visitOrder := make(map[int]int, len(active))
	for inputPos, w := range active {
		visitOrder[w.Index] = trip.VisitOrder[inputPos+1]
	}

	// Resolve an input position to its display key and original index.
	keyAt := func(input int) (key string, origIdx int) {
		if input == 0 || input == inputCount-1 && in.TripType == domain.TripRoundTrip {
			return "start", -1
		}
		orig := active[input-1].Index
		return fmt.Sprintf("waypoint-%d", orig), orig
	}

	nameFor := func(key string, origIdx int) string {
		if name, ok := in.LocationNames[key]; ok && name != "" {
			return name
		}
		if key == "start" {
			return "จุดเริ่มต้น"
		}
		return fmt.Sprintf("จุดหมายที่ %d", origIdx+1)
	}

	var path []domain.Coordinate
	legs := make([]domain.Leg, 0, len(trip.Legs))

	for li, tl := range trip.Legs {
		originInput := inputByVisit[li]
		targetInput := inputByVisit[li+1]

		originKey, originIdx := keyAt(originInput)
		targetKey, targetIdx := keyAt(targetInput)

		steps := make([]domain.Step, 0, len(tl.Steps))

		for _, ts := range tl.Steps {
			g := ts.Geometry
			start := len(path)
			// Collapse the duplicate shared point at step boundaries.
			if len(g) > 0 && len(path) > 0 && path[len(path)-1] == g[0] {
				start = len(path) - 1
				g = g[1:]
			}
			path = append(path, g...)

			end := len(path) - 1
			if end < start {
				end = start
			}

			steps = append(steps, domain.Step{
				Maneuver:        ts.Maneuver,
				RoadName:        ts.RoadName,
				Lanes:           ts.Lanes,
				Geometry:        ts.Geometry,
				DistanceMeters:  ts.DistanceMeters,
				DurationSeconds: ts.DurationSeconds,
				PathStart:       start,
				PathEnd:         end,
			})
		}

		legStart := len(path) - 1
		if len(steps) > 0 {
			legStart = steps[0].PathStart
		}
		if legStart < 0 {
			legStart = 0
		}
		legEnd := len(path) - 1
		if legEnd < 0 {
			legEnd = 0
		}

		legs = append(legs, domain.Leg{
			OriginName:      nameFor(originKey, originIdx),
			DestinationName: nameFor(targetKey, targetIdx),
			DistanceMeters:  tl.DistanceMeters,
			DurationSeconds: tl.DurationSeconds,
			PathStart:       legStart,
			PathEnd:         legEnd,
			Steps:           steps,
			TargetWaypoint:  targetIdx,
		})
	}

	return &domain.Route{
		Legs:            legs,
		Path:            path,
		DistanceMeters:  trip.DistanceMeters,
		DurationSeconds: trip.DurationSeconds,
		VisitOrder:      visitOrder,
	}, nil
}
