package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"sync"

	"dispatch-nav-service/internal/config"
	"dispatch-nav-service/internal/domain"
	"dispatch-nav-service/internal/ports"
)

// ErrSessionNotFound is returned for operations on unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

// Navigator owns every live navigation session and wires the route state
// store, progress tracker and persistence together.
//
// Each session is guarded by its own mutex, which serializes position
// updates against continue/stop actions so a leg index can never
// double-increment. Persistence writes are best-effort: failures are logged
// and navigation proceeds.
type Navigator struct {
	cfg      config.NavConfig
	provider ports.RouteProvider
	cache    ports.RouteCache
	store    ports.SessionStore

	mu       sync.Mutex
	sessions map[string]*sessionBundle
}

type sessionBundle struct {
	mu         sync.Mutex
	session    *domain.Session
	routeStore *RouteStateStore
	tracker    *Tracker
	reroutes   int // reroute notifications emitted this trip
}

func NewNavigator(cfg config.NavConfig, provider ports.RouteProvider, cache ports.RouteCache, store ports.SessionStore) *Navigator {
	return &Navigator{
		cfg:      cfg,
		provider: provider,
		cache:    cache,
		store:    store,
		sessions: make(map[string]*sessionBundle),
	}
}

// Snapshot is the derived view handed to the transport layer.
type Snapshot struct {
	Session          domain.Session
	Route            *domain.Route
	Loading          bool
	RoutingErr       string
	LegSummaries     []LegSummary
	RemainingMeters  float64
	ETASeconds       float64
	NextManeuver     *ManeuverInfo
	SecondManeuver   *ManeuverInfo
	AwaitingContinue bool
	Reroutes         int
}

// SessionParams carries the client-editable session fields.
type SessionParams struct {
	StartPoint    *domain.Coordinate
	Waypoints     []*domain.Coordinate
	LocationNames map[string]string
	TravelMode    domain.TravelMode
	TripType      domain.TripType
	Immersive     *bool
}

// CreateSession registers a new session. An empty id gets a generated one.
func (n *Navigator) CreateSession(ctx context.Context, id string, params SessionParams) (Snapshot, error) {
	if id == "" {
		id = newSessionID()
	}

	n.mu.Lock()
	if _, exists := n.sessions[id]; exists {
		n.mu.Unlock()
		return Snapshot{}, fmt.Errorf("create session: id %q already exists", id)
	}
	b := n.newBundle(domain.NewSession(id))
	n.sessions[id] = b
	n.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	n.applyParamsLocked(b, params)
	n.persistLocked(ctx, b)
	return n.snapshotLocked(b), nil
}

// Resume rebuilds sessions from the persistence adapter so an in-progress
// trip survives a restart before the first live position arrives.
func (n *Navigator) Resume(ctx context.Context) error {
	records, err := n.store.List(ctx)
	if err != nil {
		return fmt.Errorf("resume sessions: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	for _, rec := range records {
		s := domain.NewSession(rec.ID)
		s.StartPoint = rec.StartPoint
		s.OriginalStart = rec.OriginalStart
		s.Waypoints = rec.Waypoints
		if rec.LocationNames != nil {
			s.LocationNames = rec.LocationNames
		}
		if rec.TravelMode != "" {
			s.TravelMode = rec.TravelMode
		}
		if rec.TripType != "" {
			s.TripType = rec.TripType
		}
		s.CurrentLegIndex = rec.CurrentLegIndex
		s.CurrentPointIndex = rec.CurrentPointIndex
		s.Immersive = rec.ImmersiveFlag
		for _, w := range rec.CompletedWaypoints {
			s.MarkCompleted(w)
		}
		switch {
		case rec.AwaitingContinue:
			s.Phase = domain.PhaseAwaitingContinue
		case rec.NavigationActive:
			s.Phase = domain.PhaseNavigating
		}

		b := n.newBundle(s)
		n.sessions[rec.ID] = b
		b.routeStore.SetInput(fetchInputFrom(s))
		log.Printf("resumed session id=%s phase=%s leg=%d", s.ID, s.Phase, s.CurrentLegIndex)
	}

	return nil
}

func (n *Navigator) newBundle(s *domain.Session) *sessionBundle {
	fetcher := NewRouteFetcher(n.provider, n.cache, n.cfg)
	b := &sessionBundle{
		session:    s,
		routeStore: NewRouteStateStore(fetcher, n.cfg),
		tracker:    NewTracker(n.cfg),
	}
	return b
}

func (n *Navigator) bundle(id string) (*sessionBundle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	b, ok := n.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return b, nil
}

// GetSnapshot returns the current derived view for a session.
func (n *Navigator) GetSnapshot(id string) (Snapshot, error) {
	b, err := n.bundle(id)
	if err != nil {
		return Snapshot{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return n.snapshotLocked(b), nil
}

// UpdateParams edits waypoint slots, names, travel mode or trip type and
// schedules a route recompute.
func (n *Navigator) UpdateParams(ctx context.Context, id string, params SessionParams) (Snapshot, error) {
	b, err := n.bundle(id)
	if err != nil {
		return Snapshot{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	n.applyParamsLocked(b, params)
	n.persistLocked(ctx, b)
	return n.snapshotLocked(b), nil
}

func (n *Navigator) applyParamsLocked(b *sessionBundle, params SessionParams) {
	s := b.session
	if params.StartPoint != nil {
		s.StartPoint = params.StartPoint
	}
	if params.Waypoints != nil {
		s.Waypoints = params.Waypoints
	}
	if params.LocationNames != nil {
		s.LocationNames = params.LocationNames
	}
	if params.TravelMode != "" && params.TravelMode.IsValid() {
		s.TravelMode = params.TravelMode
	}
	if params.TripType != "" && params.TripType.IsValid() {
		s.TripType = params.TripType
	}
	if params.Immersive != nil {
		s.Immersive = *params.Immersive
	}
	b.routeStore.SetInput(fetchInputFrom(s))
}

// Start begins navigation for a session.
func (n *Navigator) Start(ctx context.Context, id string) (Snapshot, error) {
	b, err := n.bundle(id)
	if err != nil {
		return Snapshot{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.tracker.Start(b.session); err != nil {
		return Snapshot{}, err
	}
	b.reroutes = 0
	b.routeStore.SetInput(fetchInputFrom(b.session))
	n.persistLocked(ctx, b)
	return n.snapshotLocked(b), nil
}

// Stop ends navigation, cancels any pending reroute fetch and clears the
// navigation-scoped persisted state (the start point survives).
func (n *Navigator) Stop(ctx context.Context, id string) (Snapshot, error) {
	b, err := n.bundle(id)
	if err != nil {
		return Snapshot{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.tracker.Stop(b.session)
	b.routeStore.Reset()
	b.routeStore.SetInput(fetchInputFrom(b.session))
	if err := n.store.ClearNavigation(ctx, id); err != nil {
		log.Printf("clear navigation failed: id=%s err=%v", id, err)
	}
	return n.snapshotLocked(b), nil
}

// Continue confirms a leg boundary.
func (n *Navigator) Continue(ctx context.Context, id string) (Snapshot, error) {
	b, err := n.bundle(id)
	if err != nil {
		return Snapshot{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.tracker.Continue(b.session, b.routeStore.Route()); err != nil {
		return Snapshot{}, err
	}
	n.persistLocked(ctx, b)
	return n.snapshotLocked(b), nil
}

// Position consumes one live position sample.
func (n *Navigator) Position(ctx context.Context, id string, pos domain.Position) (Snapshot, error) {
	b, err := n.bundle(id)
	if err != nil {
		return Snapshot{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.session
	if s.Phase == domain.PhaseIdle || s.Phase == domain.PhaseFinished {
		// Not navigating: the live position is just the editable start point.
		p := pos.Point
		s.StartPoint = &p
		b.routeStore.SetInput(fetchInputFrom(s))
		n.persistLocked(ctx, b)
		return n.snapshotLocked(b), nil
	}

	event := b.tracker.Advance(s, b.routeStore.Route(), pos)
	p := pos.Point
	s.StartPoint = &p

	if event.RerouteRequested {
		// Re-seed the fetch with the live position and restart leg tracking.
		s.CurrentLegIndex = 0
		s.CurrentPointIndex = 0
		b.reroutes++
		b.routeStore.SetInput(fetchInputFrom(s))
		b.routeStore.RequestReroute()
		log.Printf("reroute requested: id=%s deviation past threshold", id)
	}

	n.persistLocked(ctx, b)
	return n.snapshotLocked(b), nil
}

// Recenter clears the auto-snap pause flag.
func (n *Navigator) Recenter(ctx context.Context, id string) (Snapshot, error) {
	return n.setAutoSnap(ctx, id, false)
}

// Interaction records an explicit user map interaction, pausing auto-snap.
func (n *Navigator) Interaction(ctx context.Context, id string) (Snapshot, error) {
	return n.setAutoSnap(ctx, id, true)
}

func (n *Navigator) setAutoSnap(ctx context.Context, id string, paused bool) (Snapshot, error) {
	b, err := n.bundle(id)
	if err != nil {
		return Snapshot{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.session.AutoSnapPaused = paused
	n.persistLocked(ctx, b)
	return n.snapshotLocked(b), nil
}

// SetOffline toggles connectivity for a session's route fetching.
func (n *Navigator) SetOffline(id string, offline bool) (Snapshot, error) {
	b, err := n.bundle(id)
	if err != nil {
		return Snapshot{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.routeStore.SetOffline(offline)
	return n.snapshotLocked(b), nil
}

func (n *Navigator) snapshotLocked(b *sessionBundle) Snapshot {
	s := b.session
	route := b.routeStore.Route()

	// The session copy must not share maps or slices with the live session;
	// callers read the snapshot after the bundle lock is released.
	sess := *s
	sess.Waypoints = append([]*domain.Coordinate(nil), s.Waypoints...)
	sess.Completed = make(map[int]struct{}, len(s.Completed))
	for w := range s.Completed {
		sess.Completed[w] = struct{}{}
	}
	sess.LocationNames = make(map[string]string, len(s.LocationNames))
	for k, v := range s.LocationNames {
		sess.LocationNames[k] = v
	}

	snap := Snapshot{
		Session:          sess,
		Route:            route,
		Loading:          b.routeStore.IsLoading(),
		LegSummaries:     b.routeStore.LegSummaries(s.CurrentLegIndex),
		AwaitingContinue: s.Phase == domain.PhaseAwaitingContinue,
		Reroutes:         b.reroutes,
	}
	if err := b.routeStore.LastError(); err != nil {
		snap.RoutingErr = err.Error()
	}
	if s.Phase == domain.PhaseNavigating || s.Phase == domain.PhaseAwaitingContinue {
		snap.RemainingMeters = b.tracker.RemainingLegMeters(s, route)
		snap.ETASeconds = b.tracker.ETASeconds(s, route)
		snap.NextManeuver, snap.SecondManeuver = b.tracker.NextManeuvers(s, route)
	}
	return snap
}

// persistLocked snapshots the session into the store. Fire-and-forget:
// errors are logged, never propagated.
func (n *Navigator) persistLocked(ctx context.Context, b *sessionBundle) {
	s := b.session

	completed := make([]int, 0, len(s.Completed))
	for w := range s.Completed {
		completed = append(completed, w)
	}

	rec := ports.SessionRecord{
		ID:                 s.ID,
		StartPoint:         s.StartPoint,
		OriginalStart:      s.OriginalStart,
		Waypoints:          s.Waypoints,
		LocationNames:      s.LocationNames,
		TravelMode:         s.TravelMode,
		TripType:           s.TripType,
		CompletedWaypoints: completed,
		CurrentLegIndex:    s.CurrentLegIndex,
		CurrentPointIndex:  s.CurrentPointIndex,
		NavigationActive:   s.Phase == domain.PhaseNavigating || s.Phase == domain.PhaseAwaitingContinue,
		AwaitingContinue:   s.Phase == domain.PhaseAwaitingContinue,
		ImmersiveFlag:      s.Immersive,
	}

	if err := n.store.Save(ctx, rec); err != nil {
		log.Printf("session persist failed: id=%s err=%v", s.ID, err)
	}
}

// fetchInputFrom derives the route fetch tuple from session state.
func fetchInputFrom(s *domain.Session) FetchInput {
	navigating := s.Phase == domain.PhaseNavigating || s.Phase == domain.PhaseAwaitingContinue
	return FetchInput{
		Start:           s.StartPoint,
		OriginalStart:   s.OriginalStart,
		Waypoints:       s.Waypoints,
		Completed:       s.Completed,
		LocationNames:   s.LocationNames,
		TripType:        s.TripType,
		TravelMode:      s.TravelMode,
		Navigating:      navigating,
		CurrentLegIndex: s.CurrentLegIndex,
	}
}

func newSessionID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "session-fallback"
	}
	return hex.EncodeToString(buf[:])
}
