// Package dashboard owns the application state machine and the weather
// refresh orchestration. The Service is the single writer of the persisted
// aggregate: every mutating operation ends with a wholesale save of the full
// state back to the store.
//
// Network calls are made outside the state lock. Overlapping operations on
// the same city therefore race, and the policy is last-writer-wins; there is
// no in-flight coalescing or mutual exclusion across fetches.
package dashboard

import (
	"context"
	"log/slog"
	"sync"

	"weatherdash/internal/config"
	"weatherdash/internal/external"
	"weatherdash/internal/store"
	"weatherdash/internal/types"
)

// Service coordinates location resolution, the watchlist, and weather
// fetches against the persisted dashboard state.
type Service struct {
	store    store.Store
	geocoder external.Geocoder
	reverse  external.ReverseGeocoder
	weather  external.WeatherProvider
	logger   *slog.Logger
	cfg      config.DashboardConfig

	mu    sync.Mutex
	state *types.AppState

	// primaryWeather and primaryErr are transient; the persisted snapshot
	// mapping covers watchlist cities only.
	primaryWeather *types.WeatherSnapshot
	primaryErr     string

	// fetchErrors marks watchlist cities whose last fetch failed, keyed by
	// city ID. Markers are transient and cleared by a successful fetch or by
	// removal of the city.
	fetchErrors map[int64]string
}

// NewService loads the persisted state and returns a ready Service.
func NewService(
	ctx context.Context,
	st store.Store,
	geocoder external.Geocoder,
	reverse external.ReverseGeocoder,
	weather external.WeatherProvider,
	cfg config.DashboardConfig,
	logger *slog.Logger,
) (*Service, error) {
	state, err := st.Load(ctx)
	if err != nil {
		return nil, err
	}

	return &Service{
		store:       st,
		geocoder:    geocoder,
		reverse:     reverse,
		weather:     weather,
		logger:      logger,
		cfg:         cfg,
		state:       state,
		fetchErrors: make(map[int64]string),
	}, nil
}

// persistLocked saves the full aggregate. Callers must hold s.mu.
// Save failures are logged and surfaced; the in-memory state keeps the
// mutation so the session stays coherent even if the store is down.
func (s *Service) persistLocked(ctx context.Context) error {
	if err := s.store.Save(ctx, s.state); err != nil {
		s.logger.Error("failed to persist dashboard state", "error", err)
		return err
	}
	return nil
}

// Snapshot returns a read-only view of the current dashboard. The underlying
// aggregate is cloned so callers can never mutate live state.
func (s *Service) Snapshot() *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildViewLocked()
}
