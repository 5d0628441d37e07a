package services

import (
	"errors"
	"fmt"

	"dispatch-nav-service/internal/config"
	"dispatch-nav-service/internal/domain"
	"dispatch-nav-service/internal/geo"
)

// ManeuverInfo is a maneuver lookahead entry with the distance left to it.
type ManeuverInfo struct {
	Maneuver       domain.Maneuver
	RoadName       string
	Lanes          []domain.Lane
	DistanceMeters float64
}

// ProgressEvent reports what a position update changed.
type ProgressEvent struct {
	Advanced         bool
	LegCompleted     bool
	CompletedTarget  int // original waypoint index, -1 when none
	Finished         bool
	RerouteRequested bool
}

// Tracker is the navigation progress state machine over an active route.
//
// It never regresses: the point index only moves forward within a leg and
// the leg index only grows across a session. A stalled position stream
// simply freezes progress; the tracker has no failure state of its own.
// Callers serialize Advance and Continue on the same session.
type Tracker struct {
	cfg             config.NavConfig
	deviationStreak int
	lastSpeed       float64
	hasSpeed        bool
}

func NewTracker(cfg config.NavConfig) *Tracker {
	return &Tracker{cfg: cfg}
}

// Start begins navigating. The current start point is frozen as the
// original start (round trips close back on it) and persisted leg/point
// indices are kept so an interrupted trip resumes where it stopped.
func (t *Tracker) Start(s *domain.Session) error {
	if s.StartPoint == nil {
		return errors.New("start navigation: no start point")
	}
	if s.Phase == domain.PhaseNavigating || s.Phase == domain.PhaseAwaitingContinue {
		return nil
	}

	frozen := *s.StartPoint
	s.OriginalStart = &frozen
	s.Phase = domain.PhaseNavigating
	t.deviationStreak = 0
	return nil
}

// Stop returns to idle and discards all progress state.
func (t *Tracker) Stop(s *domain.Session) {
	s.Phase = domain.PhaseIdle
	s.CurrentLegIndex = 0
	s.CurrentPointIndex = 0
	s.Completed = map[int]struct{}{}
	s.OriginalStart = nil
	s.AutoSnapPaused = false
	t.deviationStreak = 0
	t.hasSpeed = false
}

// Continue confirms a leg boundary: the leg index increments and navigation
// resumes, or the session finishes when the confirmed leg was the last.
func (t *Tracker) Continue(s *domain.Session, route *domain.Route) error {
	if s.Phase != domain.PhaseAwaitingContinue {
		return fmt.Errorf("continue: session is %s, not awaiting continue", s.Phase)
	}

	s.CurrentLegIndex++
	if route.Empty() || s.CurrentLegIndex >= len(route.Legs) {
		s.Phase = domain.PhaseFinished
		return nil
	}

	s.Phase = domain.PhaseNavigating
	s.CurrentPointIndex = route.Legs[s.CurrentLegIndex].PathStart
	return nil
}

// Advance consumes one live position sample while navigating.
func (t *Tracker) Advance(s *domain.Session, route *domain.Route, pos domain.Position) ProgressEvent {
	event := ProgressEvent{CompletedTarget: -1}

	if s.Phase != domain.PhaseNavigating || route.Empty() {
		return event
	}
	if s.CurrentLegIndex >= len(route.Legs) {
		return event
	}

	if pos.Speed != nil {
		t.lastSpeed = *pos.Speed
		t.hasSpeed = true
	}

	leg := route.Legs[s.CurrentLegIndex]
	from := s.CurrentPointIndex
	if from < leg.PathStart {
		from = leg.PathStart
	}

	// Forward-only snap to the closest point within the current leg.
	idx := geo.NearestAheadIndex(route.Path, from, leg.PathEnd, pos.Point)
	if idx > s.CurrentPointIndex {
		s.CurrentPointIndex = idx
		event.Advanced = true
	}

	// Off-route detection: sustained displacement from the leg corridor.
	deviation := geo.DistanceToPathMeters(route.Path, leg.PathStart, leg.PathEnd, pos.Point)
	if deviation > t.cfg.DeviationThresholdMeters {
		t.deviationStreak++
		if t.deviationStreak >= t.cfg.DeviationSamples {
			t.deviationStreak = 0
			event.RerouteRequested = true
			return event
		}
	} else {
		t.deviationStreak = 0
	}

	// Arrival: within threshold of the leg's terminal point.
	arrival := geo.HaversineMeters(pos.Point, route.Path[leg.PathEnd])
	if arrival <= t.cfg.ArrivalThresholdMeters || s.CurrentPointIndex >= leg.PathEnd {
		s.CurrentPointIndex = leg.PathEnd
		if leg.TargetWaypoint >= 0 {
			s.MarkCompleted(leg.TargetWaypoint)
			event.CompletedTarget = leg.TargetWaypoint
		}
		event.LegCompleted = true
		s.Phase = domain.PhaseAwaitingContinue

		if t.cfg.AutoContinue {
			if err := t.Continue(s, route); err == nil && s.Phase == domain.PhaseFinished {
				event.Finished = true
			}
		}
	}

	return event
}

// RemainingLegMeters sums segment lengths from the tracked point to the end
// of the current leg.
func (t *Tracker) RemainingLegMeters(s *domain.Session, route *domain.Route) float64 {
	if route.Empty() || s.CurrentLegIndex >= len(route.Legs) {
		return 0
	}
	leg := route.Legs[s.CurrentLegIndex]
	from := s.CurrentPointIndex
	if from < leg.PathStart {
		from = leg.PathStart
	}
	return geo.PathDistanceMeters(route.Path, from, leg.PathEnd)
}

// ETASeconds estimates time to the current leg's end: live speed when above
// the floor, else the nominal speed for the travel mode.
func (t *Tracker) ETASeconds(s *domain.Session, route *domain.Route) float64 {
	remaining := t.RemainingLegMeters(s, route)
	if remaining == 0 {
		return 0
	}

	speed := t.cfg.NominalSpeed(string(s.TravelMode))
	if t.hasSpeed && t.lastSpeed >= t.cfg.SpeedFloorMPS {
		speed = t.lastSpeed
	}
	if speed <= 0 {
		return 0
	}
	return remaining / speed
}

// NextManeuvers returns the nearest upcoming maneuver in the current leg
// and, when that maneuver is within the lookahead distance, the one after
// it, so the UI can pre-announce compound turns.
func (t *Tracker) NextManeuvers(s *domain.Session, route *domain.Route) (next, second *ManeuverInfo) {
	if route.Empty() || s.CurrentLegIndex >= len(route.Legs) {
		return nil, nil
	}

	leg := route.Legs[s.CurrentLegIndex]
	var upcoming []domain.Step
	for _, step := range leg.Steps {
		if step.PathStart > s.CurrentPointIndex {
			upcoming = append(upcoming, step)
		}
	}
	if len(upcoming) == 0 {
		return nil, nil
	}

	toInfo := func(step domain.Step) *ManeuverInfo {
		return &ManeuverInfo{
			Maneuver:       step.Maneuver,
			RoadName:       step.RoadName,
			Lanes:          step.Lanes,
			DistanceMeters: geo.PathDistanceMeters(route.Path, s.CurrentPointIndex, step.PathStart),
		}
	}

	next = toInfo(upcoming[0])
	if len(upcoming) > 1 && next.DistanceMeters <= t.cfg.LookaheadMeters {
		second = toInfo(upcoming[1])
	}
	return next, second
}
