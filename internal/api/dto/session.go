package dto

// CoordinateDTO is a JSON (lat, lng) pair.
type CoordinateDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type CreateSessionRequest struct {
	ID            string            `json:"id"`
	StartPoint    *CoordinateDTO    `json:"start_point"`
	Waypoints     []*CoordinateDTO  `json:"waypoints"`
	LocationNames map[string]string `json:"location_names"`
	TravelMode    string            `json:"travel_mode"`
	TripType      string            `json:"trip_type"`
}

type UpdateSessionRequest struct {
	StartPoint    *CoordinateDTO    `json:"start_point"`
	Waypoints     []*CoordinateDTO  `json:"waypoints"`
	LocationNames map[string]string `json:"location_names"`
	TravelMode    string            `json:"travel_mode"`
	TripType      string            `json:"trip_type"`
	Immersive     *bool             `json:"immersive"`
}

type PositionRequest struct {
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Heading  *float64 `json:"heading"`
	Speed    *float64 `json:"speed"`
	Accuracy *float64 `json:"accuracy"`
}

type OfflineRequest struct {
	Offline bool `json:"offline"`
}

type ManeuverResponse struct {
	Type           string    `json:"type"`
	Modifier       string    `json:"modifier,omitempty"`
	RoadName       string    `json:"road_name,omitempty"`
	Lanes          []LaneDTO `json:"lanes,omitempty"`
	DistanceMeters float64   `json:"distance_meters"`
}

type LaneDTO struct {
	Indications []string `json:"indications"`
	Valid       bool     `json:"valid"`
}

type LegSummaryResponse struct {
	OriginName      string  `json:"origin_name"`
	DestinationName string  `json:"destination_name"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
	TargetWaypoint  int     `json:"target_waypoint"`
	Passed          bool    `json:"passed"`
	Current         bool    `json:"current"`
}

type SessionResponse struct {
	ID                 string               `json:"id"`
	Phase              string               `json:"phase"`
	StartPoint         *CoordinateDTO       `json:"start_point"`
	Waypoints          []*CoordinateDTO     `json:"waypoints"`
	TravelMode         string               `json:"travel_mode"`
	TripType           string               `json:"trip_type"`
	CurrentLegIndex    int                  `json:"current_leg_index"`
	CurrentPointIndex  int                  `json:"current_point_index"`
	CompletedWaypoints []int                `json:"completed_waypoints"`
	AutoSnapPaused     bool                 `json:"auto_snap_paused"`
	AwaitingContinue   bool                 `json:"awaiting_continue"`
	Immersive          bool                 `json:"immersive"`
	Loading            bool                 `json:"loading"`
	RoutingError       string               `json:"routing_error,omitempty"`
	Reroutes           int                  `json:"reroutes"`
	TotalDistance      float64              `json:"total_distance_meters"`
	TotalDuration      float64              `json:"total_duration_seconds"`
	RemainingMeters    float64              `json:"remaining_meters"`
	ETASeconds         float64              `json:"eta_seconds"`
	VisitOrder         map[int]int          `json:"visit_order,omitempty"`
	Path               []CoordinateDTO      `json:"path,omitempty"`
	Legs               []LegSummaryResponse `json:"legs,omitempty"`
	NextManeuver       *ManeuverResponse    `json:"next_maneuver,omitempty"`
	SecondManeuver     *ManeuverResponse    `json:"second_maneuver,omitempty"`
}
