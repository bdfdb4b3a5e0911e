package state

import (
	"context"
	"time"
)

// Record is the persisted state of one page.
type Record struct {
	URL         string
	Source      string
	Fingerprint string
	LastMod     time.Time
	UpdatedAt   time.Time
}

// Store defines page state persistence.
type Store interface {
	// Get returns the record for url; ok is false when none exists.
	Get(ctx context.Context, url string) (rec Record, ok bool, err error)

	// PutAll upserts records in a single transaction.
	PutAll(ctx context.Context, records []Record) error

	// All returns every record ordered by URL.
	All(ctx context.Context) ([]Record, error)

	// Prune deletes records whose URL is not in keep and returns how many were removed.
	Prune(ctx context.Context, keep []string) (int, error)

	// Close releases resources.
	Close() error
}
