package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weatherdash/internal/types"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewSQLiteStore(context.Background(), path, logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadEmptyDatabaseReturnsFreshState(t *testing.T) {
	s := newTestStore(t)

	state, err := s.Load(context.Background())
	require.NoError(t, err)

	assert.Nil(t, state.PrimaryLocation)
	assert.Empty(t, state.Watchlist)
	assert.False(t, state.GeolocationDenied)
	assert.Equal(t, int64(1), state.NextCityID)
	assert.False(t, state.Loading)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	state := types.NewAppState()
	state.PrimaryLocation = &types.Location{
		Name:              "Current Location",
		Latitude:          38.7167,
		Longitude:         -9.1333,
		IsCurrentLocation: true,
		DisplayName:       "Lisbon",
	}
	state.GeolocationDenied = false
	state.Watchlist = []types.WatchlistCity{
		{ID: 1, Name: "Tokyo", Latitude: 35.68, Longitude: 139.69, Country: "Japan", DisplayName: "Tokyo, Japan"},
		{ID: 2, Name: "Oslo", Latitude: 59.91, Longitude: 10.75, Country: "Norway", DisplayName: "Oslo, Norway"},
	}
	state.NextCityID = 3
	state.WeatherByCityID[1] = &types.WeatherSnapshot{
		Current: types.CurrentConditions{Temperature: 28.5, WeatherCode: 1, RelativeHumidity: 60},
		Daily: types.DailyForecast{
			Time:             []string{"2026-09-01"},
			WeatherCode:      []int{1},
			TemperatureMax:   []float64{30.1},
			TemperatureMin:   []float64{22.4},
			PrecipitationSum: []float64{0},
			WindSpeedMax:     []float64{14.2},
		},
		FetchedAt: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
	}
	state.Loading = true // transient; must not survive the round trip

	require.NoError(t, s.Save(ctx, state))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, state.PrimaryLocation, loaded.PrimaryLocation)
	assert.Equal(t, state.Watchlist, loaded.Watchlist)
	assert.Equal(t, state.NextCityID, loaded.NextCityID)
	require.Contains(t, loaded.WeatherByCityID, int64(1))
	assert.Equal(t, state.WeatherByCityID[1].Current, loaded.WeatherByCityID[1].Current)
	assert.Equal(t, state.WeatherByCityID[1].Daily, loaded.WeatherByCityID[1].Daily)
	assert.False(t, loaded.Loading)
}

func TestSaveOverwritesPreviousState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := types.NewAppState()
	first.Watchlist = []types.WatchlistCity{{ID: 1, Name: "Tokyo", DisplayName: "Tokyo"}}
	first.NextCityID = 2
	require.NoError(t, s.Save(ctx, first))

	second := types.NewAppState()
	second.GeolocationDenied = true
	require.NoError(t, s.Save(ctx, second))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Watchlist)
	assert.True(t, loaded.GeolocationDenied)
}

func TestLoadCorruptPayloadStartsFresh(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dashboard_state (id, payload, updated_at)
		VALUES (1, 'not valid json{', '2026-09-01T00:00:00Z')`)
	require.NoError(t, err)

	state, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, state.Watchlist)
	assert.Equal(t, int64(1), state.NextCityID)
}

func TestLoadNormalizesState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Snapshot for city 9 has no watchlist entry; NextCityID lags behind the
	// highest assigned ID.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dashboard_state (id, payload, updated_at)
		VALUES (1, ?, '2026-09-01T00:00:00Z')`,
		`{
			"watchlist": [{"id": 7, "name": "Oslo", "latitude": 59.91, "longitude": 10.75, "display_name": "Oslo"}],
			"geolocation_denied": false,
			"weather_by_city_id": {"9": {"current": {}, "daily": {}, "fetched_at": "2026-09-01T00:00:00Z"}},
			"next_city_id": 2
		}`)
	require.NoError(t, err)

	state, err := s.Load(ctx)
	require.NoError(t, err)

	assert.NotContains(t, state.WeatherByCityID, int64(9))
	assert.Equal(t, int64(8), state.NextCityID)
}

func TestCheckHealth(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.CheckHealth(context.Background()))
	assert.Equal(t, "sqlite", s.Name())
}
