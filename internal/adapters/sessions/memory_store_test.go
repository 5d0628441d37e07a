package sessions

import (
	"context"
	"testing"

	"dispatch-nav-service/internal/domain"
	"dispatch-nav-service/internal/ports"
)

func sampleRecord(id string) ports.SessionRecord {
	return ports.SessionRecord{
		ID:                 id,
		StartPoint:         &domain.Coordinate{Lat: 13.7563, Lon: 100.5018},
		OriginalStart:      &domain.Coordinate{Lat: 13.7563, Lon: 100.5018},
		Waypoints:          []*domain.Coordinate{{Lat: 13.7460, Lon: 100.5350}},
		TravelMode:         domain.ModeDriving,
		TripType:           domain.TripRoundTrip,
		CompletedWaypoints: []int{0},
		CurrentLegIndex:    1,
		CurrentPointIndex:  12,
		NavigationActive:   true,
		AwaitingContinue:   true,
	}
}

func TestMemoryStoreSaveLoad(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, ok, err := store.Load(ctx, "missing"); err != nil || ok {
		t.Fatalf("ok=%t err=%v, want clean miss", ok, err)
	}

	if err := store.Save(ctx, sampleRecord("s1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, ok, err := store.Load(ctx, "s1")
	if err != nil || !ok {
		t.Fatalf("ok=%t err=%v, want hit", ok, err)
	}
	if rec.CurrentLegIndex != 1 || !rec.AwaitingContinue {
		t.Errorf("record = %+v, fields lost on round trip", rec)
	}
}

func TestMemoryStoreClearNavigationKeepsStartPoint(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Save(ctx, sampleRecord("s1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.ClearNavigation(ctx, "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, ok, err := store.Load(ctx, "s1")
	if err != nil || !ok {
		t.Fatalf("ok=%t err=%v, want hit", ok, err)
	}

	if rec.StartPoint == nil {
		t.Error("start point must survive ClearNavigation")
	}
	if rec.OriginalStart != nil {
		t.Error("original start not cleared")
	}
	if rec.CompletedWaypoints != nil {
		t.Error("completed waypoints not cleared")
	}
	if rec.CurrentLegIndex != 0 || rec.CurrentPointIndex != 0 {
		t.Error("progress indices not cleared")
	}
	if rec.NavigationActive || rec.AwaitingContinue {
		t.Error("navigation flags not cleared")
	}

	// Clearing an unknown id is a no-op, not an error.
	if err := store.ClearNavigation(ctx, "missing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMemoryStoreListDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, id := range []string{"a", "b"} {
		if err := store.Save(ctx, sampleRecord(id)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("listed %d records, want 2", len(records))
	}

	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := store.Load(ctx, "a"); ok {
		t.Error("deleted record still loads")
	}
}
