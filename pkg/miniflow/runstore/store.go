// Package runstore keeps the latest state, log, and status of graph runs
// so they can be inspected while a run is in flight and after it ends.
package runstore

import (
	"context"
	"errors"
)

// Store persists one Record per run, keyed by run ID.
// Implementations must be safe for concurrent use. Writes for different
// run IDs never affect each other.
type Store interface {
	// Save stores rec, replacing any previous record for rec.RunID.
	Save(ctx context.Context, rec Record) error

	// Load retrieves the record for a run.
	// Returns ErrNotFound if the run is unknown.
	Load(ctx context.Context, runID string) (Record, error)

	// List returns the known run IDs, least recently written first.
	// Returns an empty slice (not an error) if there are none.
	List(ctx context.Context) ([]string, error)

	// Delete removes a run. Returns nil if the run is unknown.
	Delete(ctx context.Context, runID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates a run record doesn't exist.
	ErrNotFound = errors.New("run not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("run store closed")

	// ErrEmptyRunID indicates a record was saved without a run ID.
	ErrEmptyRunID = errors.New("run id cannot be empty")

	// ErrUnsupportedVersion indicates a stored record was written by a newer format.
	ErrUnsupportedVersion = errors.New("unsupported record version")
)
