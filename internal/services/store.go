package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"dispatch-nav-service/internal/config"
	"dispatch-nav-service/internal/domain"
)

// LegSummary is the per-leg view the surrounding UI renders.
type LegSummary struct {
	OriginName      string
	DestinationName string
	DistanceMeters  float64
	DurationSeconds float64
	TargetWaypoint  int
	Passed          bool
	Current         bool
}

// RouteStateStore re-derives the Route whenever its declared input changes.
//
// Input changes are coalesced by a debounce window and a minimum gap between
// dispatches. Each dispatched fetch is stamped with the input signature at
// dispatch time; a result whose signature no longer matches the current
// input is discarded (last-input-wins, not last-response-wins). An invalid
// input is a terminal empty-route state, not an error.
type RouteStateStore struct {
	fetcher *RouteFetcher
	cfg     config.NavConfig

	mu              sync.Mutex
	input           FetchInput
	hasInput        bool
	stamp           string
	route           *domain.Route
	loading         bool
	lastErr         error
	offline         bool
	pending         bool
	rerouteRequests int
	timer           *time.Timer
	lastDispatch    time.Time
}

func NewRouteStateStore(fetcher *RouteFetcher, cfg config.NavConfig) *RouteStateStore {
	return &RouteStateStore{fetcher: fetcher, cfg: cfg}
}

// SetInput declares a new input tuple and schedules a recompute. An input
// with no valid start or no active waypoints clears the route immediately
// and cancels any pending fetch.
func (s *RouteStateStore) SetInput(in FetchInput) {
	s.mu.Lock()

	s.input = in
	s.hasInput = true
	s.stamp = in.Signature() + in.guardSignature()

	if in.Start == nil || len(in.activeWaypoints()) == 0 {
		// Terminal empty state: drop route and session-relative data.
		s.route = &domain.Route{}
		s.loading = false
		s.lastErr = nil
		s.pending = false
		s.stopTimerLocked()
		s.mu.Unlock()
		return
	}

	s.scheduleLocked(s.cfg.Debounce())
	s.mu.Unlock()
}

// RequestReroute forces the next fetch past the cache and dispatches without
// the debounce delay.
func (s *RouteStateStore) RequestReroute() {
	s.mu.Lock()
	if !s.hasInput {
		s.mu.Unlock()
		return
	}
	s.rerouteRequests++
	s.scheduleLocked(0)
	s.mu.Unlock()
}

// SetOffline suppresses fetches while true. Pending input changes stay
// queued; the debounce window restarts when connectivity returns.
func (s *RouteStateStore) SetOffline(offline bool) {
	s.mu.Lock()
	wasOffline := s.offline
	s.offline = offline
	if wasOffline && !offline && s.pending {
		s.pending = false
		s.scheduleLocked(s.cfg.Debounce())
	}
	s.mu.Unlock()
}

// Cancel stops any scheduled fetch. Called when navigation stops.
func (s *RouteStateStore) Cancel() {
	s.mu.Lock()
	s.pending = false
	s.stopTimerLocked()
	s.mu.Unlock()
}

// Reset discards the committed route immediately, on top of Cancel.
func (s *RouteStateStore) Reset() {
	s.mu.Lock()
	s.pending = false
	s.stopTimerLocked()
	s.route = &domain.Route{}
	s.lastErr = nil
	s.loading = false
	s.rerouteRequests = 0
	// Invalidate any in-flight result.
	s.stamp = ""
	s.mu.Unlock()
}

func (s *RouteStateStore) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *RouteStateStore) scheduleLocked(delay time.Duration) {
	s.stopTimerLocked()
	s.timer = time.AfterFunc(delay, s.dispatch)
}

// dispatch runs when the debounce window closes.
func (s *RouteStateStore) dispatch() {
	s.mu.Lock()

	if s.offline {
		s.pending = true
		s.mu.Unlock()
		return
	}

	// Rate bound: suppress dispatches closer together than the minimum gap.
	if gap := s.cfg.MinFetchGap(); !s.lastDispatch.IsZero() {
		if since := time.Since(s.lastDispatch); since < gap {
			s.scheduleLocked(gap - since)
			s.mu.Unlock()
			return
		}
	}
	s.lastDispatch = time.Now()

	in := s.input
	in.Reroute = s.rerouteRequests > 0
	stamp := s.stamp
	s.loading = true
	s.mu.Unlock()

	go s.run(in, stamp)
}

func (s *RouteStateStore) run(in FetchInput, stamp string) {
	route, err := s.fetcher.Fetch(context.Background(), in)

	s.mu.Lock()
	if s.stamp != stamp {
		// Input changed while in flight; this result is stale.
		s.mu.Unlock()
		return
	}

	s.loading = false
	switch {
	case errors.Is(err, ErrInvalidInput):
		s.route = &domain.Route{}
		s.lastErr = nil
	case err != nil:
		// Keep the previous route; surface the error for optional display.
		s.lastErr = err
	default:
		s.route = route
		s.lastErr = nil
		// Acknowledge served reroute requests.
		s.rerouteRequests = 0
	}
	s.mu.Unlock()
}

// Route returns the committed route (possibly empty, never partially
// overwritten).
func (s *RouteStateStore) Route() *domain.Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.route
}

func (s *RouteStateStore) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *RouteStateStore) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// LegSummaries renders per-leg summaries with passed/current flags relative
// to the given leg index.
func (s *RouteStateStore) LegSummaries(currentLeg int) []LegSummary {
	route := s.Route()
	if route.Empty() {
		return nil
	}

	out := make([]LegSummary, 0, len(route.Legs))
	for i, leg := range route.Legs {
		out = append(out, LegSummary{
			OriginName:      leg.OriginName,
			DestinationName: leg.DestinationName,
			DistanceMeters:  leg.DistanceMeters,
			DurationSeconds: leg.DurationSeconds,
			TargetWaypoint:  leg.TargetWaypoint,
			Passed:          i < currentLeg,
			Current:         i == currentLeg,
		})
	}
	return out
}
