package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"dispatch-nav-service/internal/api/dto"
	"dispatch-nav-service/internal/domain"
	"dispatch-nav-service/internal/services"
)

// SessionHandler exposes the navigation session lifecycle over HTTP.
type SessionHandler struct {
	Navigator *services.Navigator
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

func toCoordinate(c *dto.CoordinateDTO) *domain.Coordinate {
	if c == nil {
		return nil
	}
	return &domain.Coordinate{Lat: c.Lat, Lon: c.Lng}
}

func toWaypoints(ws []*dto.CoordinateDTO) []*domain.Coordinate {
	if ws == nil {
		return nil
	}
	out := make([]*domain.Coordinate, len(ws))
	for i, w := range ws {
		out[i] = toCoordinate(w)
	}
	return out
}

// Create registers a new navigation session.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.TravelMode != "" && !domain.TravelMode(req.TravelMode).IsValid() {
		writeError(w, r, http.StatusBadRequest, "travel_mode must be driving, motorcycle or walking")
		return
	}
	if req.TripType != "" && !domain.TripType(req.TripType).IsValid() {
		writeError(w, r, http.StatusBadRequest, "trip_type must be oneway or roundtrip")
		return
	}

	snap, err := h.Navigator.CreateSession(r.Context(), req.ID, services.SessionParams{
		StartPoint:    toCoordinate(req.StartPoint),
		Waypoints:     toWaypoints(req.Waypoints),
		LocationNames: req.LocationNames,
		TravelMode:    domain.TravelMode(req.TravelMode),
		TripType:      domain.TripType(req.TripType),
	})
	if err != nil {
		log.Printf("create session failed: %v", err)
		writeError(w, r, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, r, http.StatusCreated, toSessionResponse(snap))
}

// Get returns the session snapshot with route and progress data.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Navigator.GetSnapshot(r.PathValue("id"))
	h.respond(w, r, snap, err)
}

// Update edits waypoint slots, names, travel mode or trip type.
func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.TravelMode != "" && !domain.TravelMode(req.TravelMode).IsValid() {
		writeError(w, r, http.StatusBadRequest, "travel_mode must be driving, motorcycle or walking")
		return
	}
	if req.TripType != "" && !domain.TripType(req.TripType).IsValid() {
		writeError(w, r, http.StatusBadRequest, "trip_type must be oneway or roundtrip")
		return
	}

	snap, err := h.Navigator.UpdateParams(r.Context(), r.PathValue("id"), services.SessionParams{
		StartPoint:    toCoordinate(req.StartPoint),
		Waypoints:     toWaypoints(req.Waypoints),
		LocationNames: req.LocationNames,
		TravelMode:    domain.TravelMode(req.TravelMode),
		TripType:      domain.TripType(req.TripType),
		Immersive:     req.Immersive,
	})
	h.respond(w, r, snap, err)
}

// Start begins navigating.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Navigator.Start(r.Context(), r.PathValue("id"))
	h.respond(w, r, snap, err)
}

// Stop ends navigation and clears navigation-scoped persistence.
func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Navigator.Stop(r.Context(), r.PathValue("id"))
	h.respond(w, r, snap, err)
}

// Continue confirms a leg boundary.
func (h *SessionHandler) Continue(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Navigator.Continue(r.Context(), r.PathValue("id"))
	h.respond(w, r, snap, err)
}

// Position feeds one live position sample.
func (h *SessionHandler) Position(w http.ResponseWriter, r *http.Request) {
	var req dto.PositionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	pos := domain.Position{
		Point:    domain.Coordinate{Lat: req.Lat, Lon: req.Lng},
		Heading:  req.Heading,
		Speed:    req.Speed,
		Accuracy: req.Accuracy,
	}
	snap, err := h.Navigator.Position(r.Context(), r.PathValue("id"), pos)
	h.respond(w, r, snap, err)
}

// Recenter clears the auto-snap pause flag.
func (h *SessionHandler) Recenter(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Navigator.Recenter(r.Context(), r.PathValue("id"))
	h.respond(w, r, snap, err)
}

// Interaction records a user map interaction (pauses auto-snap).
func (h *SessionHandler) Interaction(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Navigator.Interaction(r.Context(), r.PathValue("id"))
	h.respond(w, r, snap, err)
}

// Offline toggles the connectivity flag for route fetching.
func (h *SessionHandler) Offline(w http.ResponseWriter, r *http.Request) {
	var req dto.OfflineRequest
	if !decodeBody(w, r, &req) {
		return
	}
	snap, err := h.Navigator.SetOffline(r.PathValue("id"), req.Offline)
	h.respond(w, r, snap, err)
}

func (h *SessionHandler) respond(w http.ResponseWriter, r *http.Request, snap services.Snapshot, err error) {
	if errors.Is(err, services.ErrSessionNotFound) {
		writeError(w, r, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, toSessionResponse(snap))
}

func toSessionResponse(snap services.Snapshot) dto.SessionResponse {
	s := snap.Session

	res := dto.SessionResponse{
		ID:                s.ID,
		Phase:             string(s.Phase),
		TravelMode:        string(s.TravelMode),
		TripType:          string(s.TripType),
		CurrentLegIndex:   s.CurrentLegIndex,
		CurrentPointIndex: s.CurrentPointIndex,
		AutoSnapPaused:    s.AutoSnapPaused,
		AwaitingContinue:  snap.AwaitingContinue,
		Immersive:         s.Immersive,
		Loading:           snap.Loading,
		RoutingError:      snap.RoutingErr,
		Reroutes:          snap.Reroutes,
		RemainingMeters:   snap.RemainingMeters,
		ETASeconds:        snap.ETASeconds,
	}

	if s.StartPoint != nil {
		res.StartPoint = &dto.CoordinateDTO{Lat: s.StartPoint.Lat, Lng: s.StartPoint.Lon}
	}
	res.Waypoints = make([]*dto.CoordinateDTO, len(s.Waypoints))
	for i, wp := range s.Waypoints {
		if wp != nil {
			res.Waypoints[i] = &dto.CoordinateDTO{Lat: wp.Lat, Lng: wp.Lon}
		}
	}
	res.CompletedWaypoints = make([]int, 0, len(s.Completed))
	for wp := range s.Completed {
		res.CompletedWaypoints = append(res.CompletedWaypoints, wp)
	}

	if route := snap.Route; !route.Empty() {
		res.TotalDistance = route.DistanceMeters
		res.TotalDuration = route.DurationSeconds
		res.VisitOrder = route.VisitOrder
		res.Path = make([]dto.CoordinateDTO, 0, len(route.Path))
		for _, p := range route.Path {
			res.Path = append(res.Path, dto.CoordinateDTO{Lat: p.Lat, Lng: p.Lon})
		}
	}

	res.Legs = make([]dto.LegSummaryResponse, 0, len(snap.LegSummaries))
	for _, leg := range snap.LegSummaries {
		res.Legs = append(res.Legs, dto.LegSummaryResponse{
			OriginName:      leg.OriginName,
			DestinationName: leg.DestinationName,
			DistanceMeters:  leg.DistanceMeters,
			DurationSeconds: leg.DurationSeconds,
			TargetWaypoint:  leg.TargetWaypoint,
			Passed:          leg.Passed,
			Current:         leg.Current,
		})
	}

	res.NextManeuver = toManeuverResponse(snap.NextManeuver)
	res.SecondManeuver = toManeuverResponse(snap.SecondManeuver)
	return res
}

func toManeuverResponse(m *services.ManeuverInfo) *dto.ManeuverResponse {
	if m == nil {
		return nil
	}

	res := &dto.ManeuverResponse{
		Type:           m.Maneuver.Type,
		Modifier:       m.Maneuver.Modifier,
		RoadName:       m.RoadName,
		DistanceMeters: m.DistanceMeters,
	}
	for _, l := range m.Lanes {
		res.Lanes = append(res.Lanes, dto.LaneDTO{Indications: l.Indications, Valid: l.Valid})
	}
	return res
}
