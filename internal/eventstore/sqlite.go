package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/docportal/internal/foundation/errors"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-based event store.
// Use ":memory:" for in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "could not open event store database").WithContext("path", dbPath).Build()
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.WrapError(err, errors.CategoryStorage, "failed to initialize event store schema").Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		payload BLOB NOT NULL,
		metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_build_id ON events(build_id);
	CREATE INDEX IF NOT EXISTS idx_timestamp ON events(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append adds a new event to the store.
func (s *SQLiteStore) Append(ctx context.Context, e Event) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var metadataJSON []byte
	if e.Metadata != nil {
		var err error
		if metadataJSON, err = json.Marshal(e.Metadata); err != nil {
			return 0, errors.WrapError(err, errors.CategoryStorage, "failed to marshal event metadata").Build()
		}
	}
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	payload := []byte(e.Payload)
	if payload == nil {
		payload = []byte("null")
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO events (build_id, event_type, timestamp, payload, metadata) VALUES (?, ?, ?, ?, ?)",
		e.BuildID, e.Type, ts.UnixNano(), payload, metadataJSON,
	)
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryStorage, "failed to append event to store").
			WithContext("build_id", e.BuildID).WithContext("type", e.Type).Build()
	}
	return res.LastInsertId()
}

// GetByBuildID retrieves all events for a specific build.
func (s *SQLiteStore) GetByBuildID(ctx context.Context, buildID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, build_id, event_type, timestamp, payload, metadata FROM events WHERE build_id = ? ORDER BY id",
		buildID,
	)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "failed to query events from store").Build()
	}
	defer func() { _ = rows.Close() }()

	return scanEvents(rows)
}

// GetRange retrieves events within a time range, both ends inclusive.
func (s *SQLiteStore) GetRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, build_id, event_type, timestamp, payload, metadata FROM events WHERE timestamp >= ? AND timestamp <= ? ORDER BY id",
		start.UnixNano(), end.UnixNano(),
	)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "failed to query events from store").Build()
	}
	defer func() { _ = rows.Close() }()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var (
			e            Event
			ts           int64
			payload      []byte
			metadataJSON []byte
		)
		if err := rows.Scan(&e.ID, &e.BuildID, &e.Type, &ts, &payload, &metadataJSON); err != nil {
			return nil, errors.WrapError(err, errors.CategoryStorage, "failed to scan event rows").Build()
		}
		e.Timestamp = time.Unix(0, ts).UTC()
		e.Payload = json.RawMessage(payload)
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.Metadata); err != nil {
				return nil, errors.WrapError(err, errors.CategoryStorage, "failed to unmarshal event metadata").Build()
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "failed to iterate event rows").Build()
	}
	return events, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
