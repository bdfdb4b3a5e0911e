package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and creates if needed) the page state database.
// Use ":memory:" for an ephemeral store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		url TEXT PRIMARY KEY,
		source TEXT NOT NULL DEFAULT '',
		fingerprint TEXT NOT NULL,
		lastmod INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the record stored for url.
func (s *SQLiteStore) Get(ctx context.Context, url string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT url, source, fingerprint, lastmod, updated_at FROM pages WHERE url = ?", url)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("query page %s: %w", url, err)
	}
	return rec, true, nil
}

// PutAll upserts records.
func (s *SQLiteStore) PutAll(ctx context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pages (url, source, fingerprint, lastmod, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			source = excluded.source,
			fingerprint = excluded.fingerprint,
			lastmod = excluded.lastmod,
			updated_at = excluded.updated_at`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for _, r := range records {
		updated := r.UpdatedAt
		if updated.IsZero() {
			updated = now
		}
		if _, err := stmt.ExecContext(ctx, r.URL, r.Source, r.Fingerprint, r.LastMod.UnixNano(), updated.UnixNano()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert page %s: %w", r.URL, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// All returns every record ordered by URL.
func (s *SQLiteStore) All(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT url, source, fingerprint, lastmod, updated_at FROM pages ORDER BY url")
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Prune deletes records for URLs that are no longer published.
func (s *SQLiteStore) Prune(ctx context.Context, keep []string) (int, error) {
	existing, err := s.All(ctx)
	if err != nil {
		return 0, err
	}
	wanted := make(map[string]bool, len(keep))
	for _, u := range keep {
		wanted[u] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, r := range existing {
		if wanted[r.URL] {
			continue
		}
		if _, err := s.db.ExecContext(ctx, "DELETE FROM pages WHERE url = ?", r.URL); err != nil {
			return removed, fmt.Errorf("delete page %s: %w", r.URL, err)
		}
		removed++
	}
	return removed, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		r                Record
		lastmod, updated int64
	)
	if err := row.Scan(&r.URL, &r.Source, &r.Fingerprint, &lastmod, &updated); err != nil {
		return Record{}, err
	}
	r.LastMod = time.Unix(0, lastmod).UTC()
	r.UpdatedAt = time.Unix(0, updated).UTC()
	return r, nil
}
