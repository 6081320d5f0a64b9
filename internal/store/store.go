// Package store persists the dashboard aggregate. Persistence is wholesale:
// every save writes the entire serialized state into a single record, and
// every load reads it back. There is no row-per-city schema and no partial
// update path.
//
// Two backends are provided. The sqlite backend keeps state in a local file
// and is the default; the postgres backend targets shared deployments.
package store

import (
	"context"

	"weatherdash/internal/types"
)

// Store is the persistence boundary for the dashboard aggregate.
type Store interface {
	// Load reads the persisted state. A missing record or an unreadable
	// payload yields a fresh empty state, never an error: corrupt state is
	// discarded rather than blocking startup.
	Load(ctx context.Context) (*types.AppState, error)

	// Save serializes the entire state and replaces the stored record.
	Save(ctx context.Context, state *types.AppState) error

	// Close releases the underlying connection.
	Close() error
}
