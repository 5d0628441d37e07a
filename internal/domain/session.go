package domain

// TravelMode selects the routing profile and the nominal speed used for ETA
// estimates when the device does not report a usable live speed.
type TravelMode string

const (
	ModeDriving    TravelMode = "driving"
	ModeMotorcycle TravelMode = "motorcycle"
	ModeWalking    TravelMode = "walking"
)

func (m TravelMode) IsValid() bool {
	switch m {
	case ModeDriving, ModeMotorcycle, ModeWalking:
		return true
	default:
		return false
	}
}

// TripType controls whether the trip closes back to the original start.
type TripType string

const (
	TripOneWay    TripType = "oneway"
	TripRoundTrip TripType = "roundtrip"
)

func (t TripType) IsValid() bool {
	switch t {
	case TripOneWay, TripRoundTrip:
		return true
	default:
		return false
	}
}

// Phase is the navigation state machine position.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseNavigating       Phase = "navigating"
	PhaseAwaitingContinue Phase = "awaiting-continue"
	PhaseFinished         Phase = "finished"
)

// Session is the mutable progress state over an active route.
//
// Waypoints keeps slot identity: a nil entry is an unset placeholder the
// user can fill later, and the slice index is the original index that must
// round-trip through optimization. CurrentLegIndex never decreases while
// navigating; CurrentPointIndex never decreases within a leg.
type Session struct {
	ID            string
	StartPoint    *Coordinate
	OriginalStart *Coordinate // frozen at navigation start; closes round trips
	Waypoints     []*Coordinate
	LocationNames map[string]string
	TravelMode    TravelMode
	TripType      TripType

	Phase             Phase
	CurrentLegIndex   int
	CurrentPointIndex int
	Completed         map[int]struct{}
	AutoSnapPaused    bool
	Immersive         bool
}

func NewSession(id string) *Session {
	return &Session{
		ID:            id,
		TravelMode:    ModeDriving,
		TripType:      TripOneWay,
		Phase:         PhaseIdle,
		LocationNames: map[string]string{},
		Completed:     map[int]struct{}{},
	}
}

// MarkCompleted records arrival at a waypoint. Idempotent.
func (s *Session) MarkCompleted(originalIndex int) {
	if s.Completed == nil {
		s.Completed = map[int]struct{}{}
	}
	s.Completed[originalIndex] = struct{}{}
}

// IndexedWaypoint is a set waypoint carrying its original slot index.
type IndexedWaypoint struct {
	Index int
	Point Coordinate
}
