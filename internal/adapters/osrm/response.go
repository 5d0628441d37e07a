package osrm

import (
	"encoding/json"
	"fmt"
	"io"

	"dispatch-nav-service/internal/domain"
	"dispatch-nav-service/internal/ports"
)

type tripResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Trips     []tripTrip     `json:"trips"`
	Waypoints []tripWaypoint `json:"waypoints"`
}

type tripTrip struct {
	Distance float64   `json:"distance"`
	Duration float64   `json:"duration"`
	Legs     []tripLeg `json:"legs"`
}

type tripLeg struct {
	Distance float64    `json:"distance"`
	Duration float64    `json:"duration"`
	Steps    []tripStep `json:"steps"`
}

type tripStep struct {
	Distance      float64            `json:"distance"`
	Duration      float64            `json:"duration"`
	Geometry      string             `json:"geometry"`
	Name          string             `json:"name"`
	Maneuver      tripManeuver       `json:"maneuver"`
	Intersections []tripIntersection `json:"intersections"`
}

type tripManeuver struct {
	Type     string `json:"type"`
	Modifier string `json:"modifier"`
}

type tripIntersection struct {
	Lanes []tripLane `json:"lanes"`
}

type tripLane struct {
	Indications []string `json:"indications"`
	Valid       bool     `json:"valid"`
}

type tripWaypoint struct {
	WaypointIndex int       `json:"waypoint_index"`
	TripsIndex    int       `json:"trips_index"`
	Location      []float64 `json:"location"`
}

// decodeTripResponse validates the wire response and normalizes it into a
// TripResult. wantCoords is the number of coordinates sent; the waypoints
// array must echo exactly that many entries for visit-order reconstruction.
func decodeTripResponse(r io.Reader, wantCoords int) (*ports.TripResult, error) {
	var tr tripResponse
	if err := json.NewDecoder(r).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decode trip response: %w", err)
	}

	if tr.Code != "Ok" {
		return nil, fmt.Errorf("trip service returned code %q: %s", tr.Code, tr.Message)
	}
	if len(tr.Trips) == 0 {
		return nil, fmt.Errorf("trip service returned no trips")
	}
	if len(tr.Waypoints) != wantCoords {
		return nil, fmt.Errorf(
			"trip service echoed %d waypoints for %d input coordinates",
			len(tr.Waypoints), wantCoords,
		)
	}

	trip := tr.Trips[0]
	if len(trip.Legs) != wantCoords-1 {
		return nil, fmt.Errorf(
			"trip has %d legs for %d input coordinates",
			len(trip.Legs), wantCoords,
		)
	}

	legs := make([]ports.TripLeg, 0, len(trip.Legs))
	for li, leg := range trip.Legs {
		steps := make([]ports.TripStep, 0, len(leg.Steps))
		for si, step := range leg.Steps {
			geometry, err := DecodePolyline(step.Geometry)
			if err != nil {
				return nil, fmt.Errorf("leg %d step %d: %w", li, si, err)
			}

			var lanes []domain.Lane
			// Lane guidance lives on the maneuver-point intersection.
			if len(step.Intersections) > 0 {
				for _, l := range step.Intersections[0].Lanes {
					lanes = append(lanes, domain.Lane{Indications: l.Indications, Valid: l.Valid})
				}
			}

			steps = append(steps, ports.TripStep{
				Geometry:        geometry,
				DistanceMeters:  step.Distance,
				DurationSeconds: step.Duration,
				Maneuver: domain.Maneuver{
					Type:     step.Maneuver.Type,
					Modifier: step.Maneuver.Modifier,
				},
				RoadName: step.Name,
				Lanes:    lanes,
			})
		}

		legs = append(legs, ports.TripLeg{
			Steps:           steps,
			DistanceMeters:  leg.Distance,
			DurationSeconds: leg.Duration,
		})
	}

	visitOrder := make([]int, len(tr.Waypoints))
	for i, wp := range tr.Waypoints {
		if wp.WaypointIndex < 0 || wp.WaypointIndex >= wantCoords {
			return nil, fmt.Errorf(
				"waypoint %d has out-of-range visit index %d",
				i, wp.WaypointIndex,
			)
		}
		visitOrder[i] = wp.WaypointIndex
	}

	return &ports.TripResult{
		Legs:            legs,
		VisitOrder:      visitOrder,
		DistanceMeters:  trip.Distance,
		DurationSeconds: trip.Duration,
	}, nil
}
