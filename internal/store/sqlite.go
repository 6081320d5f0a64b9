package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"weatherdash/internal/types"
)

// stateRecordID is the fixed primary key of the single state row.
const stateRecordID = 1

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS dashboard_state (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	payload    TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

// SQLiteStore persists the dashboard state in a local SQLite file using the
// pure-Go modernc driver.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path and ensures
// the schema exists.
func NewSQLiteStore(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %q: %w", path, err)
	}

	// A single writer keeps the wholesale save path free of SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Load reads and deserializes the state row. A missing row or a payload that
// fails to parse yields a fresh empty state.
func (s *SQLiteStore) Load(ctx context.Context) (*types.AppState, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM dashboard_state WHERE id = ?`, stateRecordID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
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
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		s.logger.Warn("discarding unreadable dashboard state", "error", err)
		return types.NewAppState(), nil
	}

	state.Normalize()
	return &state, nil
}

// Save serializes the state and upserts the single row.
func (s *SQLiteStore) Save(ctx context.Context, state *types.AppState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return types.NewAppError(
			types.ErrCodeInternalStore,
			"failed to serialize dashboard state",
			err,
		)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO dashboard_state (id, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			payload    = excluded.payload,
			updated_at = excluded.updated_at`,
		stateRecordID, string(payload), time.Now().UTC().Format(time.RFC3339Nano),
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

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Name identifies the store in health checks.
func (s *SQLiteStore) Name() string { return "sqlite" }

// CheckHealth pings the database.
func (s *SQLiteStore) CheckHealth(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
