package services

import "errors"

// ErrInvalidInput marks the normal transient state where no route can exist:
// the start point is missing or every waypoint slot is empty. Callers clear
// the route instead of surfacing a failure.
var ErrInvalidInput = errors.New("route input invalid: start point or waypoints missing")

// RoutingError wraps failures of the external trip-optimization service:
// non-success status codes, both mirrors failing, or a timeout. Non-fatal;
// the previously committed route stays active.
type RoutingError struct {
	Err error
}

func (e *RoutingError) Error() string {
	return "routing service unavailable: " + e.Err.Error()
}

func (e *RoutingError) Unwrap() error { return e.Err }
