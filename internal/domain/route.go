package domain

// Lane guidance attached to a maneuver point.
type Lane struct {
	Indications []string
	Valid       bool
}

// Maneuver is the driving instruction at a step boundary.
type Maneuver struct {
	Type     string // turn, merge, roundabout, arrive, depart, ...
	Modifier string // left, right, straight, sharp left, slight right, uturn, ...
}

// Step is one maneuver point along a leg. PathStart/PathEnd index into the
// route's flattened path; distance-to-maneuver is derived at read time from
// the live point index, so it is not stored here.
type Step struct {
	Maneuver        Maneuver
	RoadName        string
	Lanes           []Lane
	Geometry        []Coordinate
	DistanceMeters  float64
	DurationSeconds float64
	PathStart       int
	PathEnd         int
}

// Leg is one directed segment of a route between two consecutive visit
// points. TargetWaypoint is the original waypoint index this leg arrives at,
// preserved through optimization; -1 marks the closing leg of a round trip.
type Leg struct {
	OriginName      string
	DestinationName string
	DistanceMeters  float64
	DurationSeconds float64
	PathStart       int
	PathEnd         int
	Steps           []Step
	TargetWaypoint  int
}

// Route is the aggregate of all legs for one start point and waypoint set.
//
// Path is the concatenation of every step polyline with consecutive
// duplicate points collapsed at step boundaries. VisitOrder maps each
// original waypoint index to its 1-based visit sequence as assigned by the
// trip optimizer. A Route is replaced wholesale on refetch, never mutated.
type Route struct {
	Legs            []Leg
	Path            []Coordinate
	DistanceMeters  float64
	DurationSeconds float64
	VisitOrder      map[int]int
}

// Empty reports whether the route carries no legs (the terminal state when
// inputs are invalid).
func (r *Route) Empty() bool { return r == nil || len(r.Legs) == 0 }
