package ports

import (
	"context"

	"dispatch-nav-service/internal/domain"
)

// SessionRecord is the persisted navigation-session shape. All values are
// plain JSON-serializable so a client can resume a trip across restarts.
type SessionRecord struct {
	ID                 string               `json:"id"`
	StartPoint         *domain.Coordinate   `json:"startPoint"`
	OriginalStart      *domain.Coordinate   `json:"originalStart"`
	Waypoints          []*domain.Coordinate `json:"waypoints"`
	LocationNames      map[string]string    `json:"locationNames"`
	TravelMode         domain.TravelMode    `json:"travelMode"`
	TripType           domain.TripType      `json:"tripType"`
	CompletedWaypoints []int                `json:"completedWaypoints"`
	CurrentLegIndex    int                  `json:"currentLegIndex"`
	CurrentPointIndex  int                  `json:"currentPointIndex"`
	NavigationActive   bool                 `json:"navigationActive"`
	AwaitingContinue   bool                 `json:"awaitingContinue"`
	ImmersiveFlag      bool                 `json:"immersiveFlag"`
}

// Port: durable storage for navigation sessions.
//
// Writes are best-effort: callers log and swallow errors, persistence must
// never block navigation. ClearNavigation removes only navigation-scoped
// state; the last known start point survives so "where am I" is kept after
// a trip ends.
type SessionStore interface {
	Save(ctx context.Context, rec SessionRecord) error
	Load(ctx context.Context, id string) (SessionRecord, bool, error)
	ClearNavigation(ctx context.Context, id string) error
	List(ctx context.Context) ([]SessionRecord, error)
	Delete(ctx context.Context, id string) error
}
