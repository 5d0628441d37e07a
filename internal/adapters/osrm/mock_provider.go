package osrm

import (
	"context"
	"sync"
	"time"

	"dispatch-nav-service/internal/domain"
	"dispatch-nav-service/internal/geo"
	"dispatch-nav-service/internal/ports"
)

// MockProvider is a scripted RouteProvider for tests. It synthesizes
// straight-line leg geometry between consecutive visit points and counts
// calls so tests can assert on caching and debounce behavior.
type MockProvider struct {
	mu    sync.Mutex
	calls int

	// Delay is applied before each response; lets tests stage stale results.
	Delay time.Duration
	// Err, when set, fails every call.
	Err error
	// Permute overrides the visit order for n coordinates (identity default).
	// Index 0 is the origin and must stay 0.
	Permute func(n int) []int
	// SegmentPoints is the number of interpolated points per leg (default 5).
	SegmentPoints int
}

func (p *MockProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *MockProvider) Trip(ctx context.Context, req ports.TripRequest) (*ports.TripResult, error) {
	p.mu.Lock()
	p.calls++
	delay, err := p.Delay, p.Err
	p.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if err != nil {
		return nil, err
	}

	n := len(req.Coordinates)
	visitOrder := make([]int, n)
	if p.Permute != nil {
		copy(visitOrder, p.Permute(n))
	} else {
		for i := range visitOrder {
			visitOrder[i] = i
		}
	}

	// Order coordinates by assigned visit position.
	byVisit := make([]domain.Coordinate, n)
	for input, visit := range visitOrder {
		byVisit[visit] = req.Coordinates[input]
	}

	segs := p.SegmentPoints
	if segs < 2 {
		segs = 5
	}

	legs := make([]ports.TripLeg, 0, n-1)
	totalDist, totalDur := 0.0, 0.0
	for i := 0; i < n-1; i++ {
		a, b := byVisit[i], byVisit[i+1]
		dist := geo.HaversineMeters(a, b)
		dur := dist / 10.0

		geometry := make([]domain.Coordinate, 0, segs)
		for s := 0; s < segs; s++ {
			t := float64(s) / float64(segs-1)
			geometry = append(geometry, domain.Coordinate{
				Lat: a.Lat + (b.Lat-a.Lat)*t,
				Lon: a.Lon + (b.Lon-a.Lon)*t,
			})
		}

		legs = append(legs, ports.TripLeg{
			DistanceMeters:  dist,
			DurationSeconds: dur,
			Steps: []ports.TripStep{
				{
					Geometry:        geometry,
					DistanceMeters:  dist,
					DurationSeconds: dur,
					Maneuver:        domain.Maneuver{Type: "depart", Modifier: "straight"},
					RoadName:        "mock road",
				},
				{
					Geometry: []domain.Coordinate{b},
					Maneuver: domain.Maneuver{Type: "arrive"},
				},
			},
		})
		totalDist += dist
		totalDur += dur
	}

	return &ports.TripResult{
		Legs:            legs,
		VisitOrder:      visitOrder,
		DistanceMeters:  totalDist,
		DurationSeconds: totalDur,
	}, nil
}
