package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"dispatch-nav-service/internal/domain"
	"dispatch-nav-service/internal/platform/obs"
	"dispatch-nav-service/internal/ports"
)

// Postgres-backed implementation of the SessionStore port.
//
// The record is stored as one JSONB document per session plus the start
// point in its own column, so ClearNavigation can drop trip state while
// keeping the last known position.
type PostgresStore struct{ DB *sql.DB }

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

// Initialize the navigation session schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	query := `
	CREATE TABLE IF NOT EXISTS nav_sessions (
		session_id TEXT PRIMARY KEY,
		start_point JSONB,
		state JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("init schema: create nav_sessions: %w", err)
	}

	return nil
}

// Save upserts the full session record.
func (s *PostgresStore) Save(ctx context.Context, rec ports.SessionRecord) (err error) {
	defer obs.Time(ctx, "sessions.Save")(&err)

	if s.DB == nil {
		return errors.New("session store: DB is nil")
	}
	if rec.ID == "" {
		return errors.New("save session: id must not be empty")
	}

	state, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("save session: marshal state: %w", err)
	}

	var startPoint []byte
	if rec.StartPoint != nil {
		startPoint, err = json.Marshal(rec.StartPoint)
		if err != nil {
			return fmt.Errorf("save session: marshal start point: %w", err)
		}
	}

	query := `
	INSERT INTO nav_sessions (session_id, start_point, state, updated_at)
	VALUES ($1, $2, $3, now())
	ON CONFLICT (session_id) DO UPDATE
	SET start_point = EXCLUDED.start_point,
	    state = EXCLUDED.state,
	    updated_at = now();
	`
	if _, err := s.DB.ExecContext(ctx, query, rec.ID, startPoint, state); err != nil {
		return fmt.Errorf("save session %q: %w", rec.ID, err)
	}

	return nil
}

// Load reads one session record; ok=false when the id is unknown.
func (s *PostgresStore) Load(ctx context.Context, id string) (ports.SessionRecord, bool, error) {
	if s.DB == nil {
		return ports.SessionRecord{}, false, errors.New("session store: DB is nil")
	}

	query := `
	SELECT start_point, state
	FROM nav_sessions
	WHERE session_id = $1;
	`
	var startPoint, state []byte
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&startPoint, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.SessionRecord{}, false, nil
	}
	if err != nil {
		return ports.SessionRecord{}, false, fmt.Errorf("load session %q: %w", id, err)
	}

	var rec ports.SessionRecord
	if err := json.Unmarshal(state, &rec); err != nil {
		return ports.SessionRecord{}, false, fmt.Errorf("load session %q: parse state: %w", id, err)
	}

	// The start point column wins over whatever the state blob carried; it
	// survives ClearNavigation.
	if len(startPoint) > 0 {
		var p domain.Coordinate
		if err := json.Unmarshal(startPoint, &p); err != nil {
			return ports.SessionRecord{}, false, fmt.Errorf("load session %q: parse start point: %w", id, err)
		}
		rec.StartPoint = &p
	}
	rec.ID = id

	return rec, true, nil
}

// ClearNavigation resets navigation-scoped fields while keeping the start
// point column untouched.
func (s *PostgresStore) ClearNavigation(ctx context.Context, id string) error {
	if s.DB == nil {
		return errors.New("session store: DB is nil")
	}

	rec, ok, err := s.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("clear navigation: %w", err)
	}
	if !ok {
		return nil
	}

	rec.OriginalStart = nil
	rec.CompletedWaypoints = nil
	rec.CurrentLegIndex = 0
	rec.CurrentPointIndex = 0
	rec.NavigationActive = false
	rec.AwaitingContinue = false

	state, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("clear navigation: marshal state: %w", err)
	}

	query := `
	UPDATE nav_sessions
	SET state = $2, updated_at = now()
	WHERE session_id = $1;
	`
	if _, err := s.DB.ExecContext(ctx, query, id, state); err != nil {
		return fmt.Errorf("clear navigation %q: %w", id, err)
	}

	return nil
}

// List returns every stored session, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]ports.SessionRecord, error) {
	if s.DB == nil {
		return nil, errors.New("session store: DB is nil")
	}

	query := `
	SELECT session_id, start_point, state
	FROM nav_sessions
	ORDER BY updated_at DESC;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sessions: query nav_sessions: %w", err)
	}
	defer rows.Close()

	records := make([]ports.SessionRecord, 0, 16)
	for rows.Next() {
		var id string
		var startPoint, state []byte
		if err := rows.Scan(&id, &startPoint, &state); err != nil {
			return nil, fmt.Errorf("list sessions: scan row: %w", err)
		}

		var rec ports.SessionRecord
		if err := json.Unmarshal(state, &rec); err != nil {
			return nil, fmt.Errorf("list sessions: parse state for %q: %w", id, err)
		}
		if len(startPoint) > 0 {
			var p domain.Coordinate
			if err := json.Unmarshal(startPoint, &p); err != nil {
				return nil, fmt.Errorf("list sessions: parse start point for %q: %w", id, err)
			}
			rec.StartPoint = &p
		}
		rec.ID = id
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: row iteration: %w", err)
	}

	return records, nil
}

// Delete removes a session entirely.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if s.DB == nil {
		return errors.New("session store: DB is nil")
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM nav_sessions WHERE session_id = $1;`, id); err != nil {
		return fmt.Errorf("delete session %q: %w", id, err)
	}

	return nil
}
