// Package history persists a per-build event log so past readme builds can
// be inspected and compared after the fact.
package history

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving build events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, buildID, eventType string, payload []byte, metadata map[string]string) error

	// GetByBuildID retrieves all events for a specific build in append order.
	GetByBuildID(ctx context.Context, buildID string) ([]Event, error)

	// GetRange retrieves events within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// RecentBuildIDs lists the most recently active build identifiers,
	// newest first.
	RecentBuildIDs(ctx context.Context, limit int) ([]string, error)

	// PruneOlderThan deletes events recorded before the cutoff and reports
	// how many were removed.
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Close closes the store and releases resources.
	Close() error
}
