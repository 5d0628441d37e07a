package sessions

import (
	"context"
	"sync"

	"dispatch-nav-service/internal/ports"
)

// MemoryStore keeps session records in process memory. Used by tests and as
// the fallback when no DATABASE_URL is configured.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]ports.SessionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]ports.SessionRecord)}
}

func (s *MemoryStore) Save(ctx context.Context, rec ports.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) (ports.SessionRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	return rec, ok, nil
}

func (s *MemoryStore) ClearNavigation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil
	}

	rec.OriginalStart = nil
	rec.CompletedWaypoints = nil
	rec.CurrentLegIndex = 0
	rec.CurrentPointIndex = 0
	rec.NavigationActive = false
	rec.AwaitingContinue = false
	s.records[id] = rec
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]ports.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ports.SessionRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}
