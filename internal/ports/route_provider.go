package ports

import (
	"context"

	"dispatch-nav-service/internal/domain"
)

// TripStep is one decoded maneuver of a provider leg.
type TripStep struct {
	Geometry        []domain.Coordinate
	DistanceMeters  float64
	DurationSeconds float64
	Maneuver        domain.Maneuver
	RoadName        string
	Lanes           []domain.Lane
}

// TripLeg is one directed segment of the optimized trip.
type TripLeg struct {
	Steps           []TripStep
	DistanceMeters  float64
	DurationSeconds float64
}

// TripResult is the normalized outcome of one trip-optimization call.
// VisitOrder[i] is the visit position (0-based, origin = 0) the optimizer
// assigned to input coordinate i.
type TripResult struct {
	Legs            []TripLeg
	VisitOrder      []int
	DistanceMeters  float64
	DurationSeconds float64
}

// TripRequest asks the provider to order and route the given coordinates.
// The first coordinate is the fixed origin. When FixedDestination is set the
// last coordinate is the fixed destination (round trips close on it);
// intermediate points may be reordered freely.
type TripRequest struct {
	Coordinates      []domain.Coordinate
	Mode             domain.TravelMode
	FixedDestination bool
}

// Contract for the external trip-optimization service.
type RouteProvider interface {
	// Trip returns an optimized multi-leg trip over the request coordinates.
	Trip(ctx context.Context, req TripRequest) (*TripResult, error)
}
