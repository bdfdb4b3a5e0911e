package eventstore

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving events.
type Store interface {
	// Append stores e and returns its assigned id. A zero Timestamp is set to now.
	Append(ctx context.Context, e Event) (int64, error)

	// GetByBuildID retrieves all events for a specific build in append order.
	GetByBuildID(ctx context.Context, buildID string) ([]Event, error)

	// GetRange retrieves events within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}

// Noop discards events.
type Noop struct{}

func (Noop) Append(context.Context, Event) (int64, error)                    { return 0, nil }
func (Noop) GetByBuildID(context.Context, string) ([]Event, error)           { return nil, nil }
func (Noop) GetRange(context.Context, time.Time, time.Time) ([]Event, error) { return nil, nil }
func (Noop) Close() error                                                    { return nil }
