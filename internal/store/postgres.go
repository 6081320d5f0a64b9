package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"weatherdash/internal/types"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS dashboard_state (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// PostgresStore persists the dashboard state in a single JSONB row.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStore connects to the database at url and ensures the schema
// exists.
func NewPostgresStore(ctx context.Context, url string, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating postgres schema: %w", err)
	}

	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Load reads and deserializes the state row. A missing row or a payload that
// fails to parse yields a fresh empty state.
func (s *PostgresStore) Load(ctx context.Context) (*types.AppState, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM dashboard_state WHERE id = $1`, stateRecordID,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.NewAppState(), nil
	}
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalStore,
			"failed to load dashboard state",
			err,
		)
	}

	var state types.AppState
	if err := json.Unmarshal(payload, &state); err != nil {
		s.logger.Warn("discarding unreadable dashboard state", "error", err)
		return types.NewAppState(), nil
	}

	state.Normalize()
	return &state, nil
}

// Save serializes the state and upserts the single row.
func (s *PostgresStore) Save(ctx context.Context, state *types.AppState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return types.NewAppError(
			types.ErrCodeInternalStore,
			"failed to serialize dashboard state",
			err,
		)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO dashboard_state (id, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET
			payload    = excluded.payload,
			updated_at = now()`,
		stateRecordID, payload,
	)
	if err != nil {
		return types.NewAppError(
			types.ErrCodeInternalStore,
			"failed to save dashboard state",
			err,
		)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Name identifies the store in health checks.
func (s *PostgresStore) Name() string { return "postgres" }

// CheckHealth pings the database.
func (s *PostgresStore) CheckHealth(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
