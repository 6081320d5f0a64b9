package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weatherdash/internal/config"
	"weatherdash/internal/external"
	"weatherdash/internal/types"
)

// memStore is an in-memory store.Store that round-trips through JSON, the
// same way the real backends do.
type memStore struct {
	mu      sync.Mutex
	payload []byte
	saves   int
	failing bool
}

func (m *memStore) Load(_ context.Context) (*types.AppState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.payload == nil {
		return types.NewAppState(), nil
	}
	var state types.AppState
	if err := json.Unmarshal(m.payload, &state); err != nil {
		return types.NewAppState(), nil
	}
	state.Normalize()
	return &state, nil
}

func (m *memStore) Save(_ context.Context, state *types.AppState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return types.NewAppError(types.ErrCodeInternalStore, "store down", nil)
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.payload = payload
	m.saves++
	return nil
}

func (m *memStore) Close() error { return nil }

// stubGeocoder resolves from a fixed table; unknown names are NotFound.
type stubGeocoder struct {
	table map[string]*external.GeocodeResult
	calls int
}

func (g *stubGeocoder) Geocode(_ context.Context, name string) (*external.GeocodeResult, error) {
	g.calls++
	if r, ok := g.table[strings.ToLower(name)]; ok {
		clone := *r
		return &clone, nil
	}
	return nil, types.NewAppError(
		types.ErrCodeNotFoundCity,
		fmt.Sprintf("no location found matching %q", name),
		nil,
	)
}

type stubReverse struct {
	name string
	err  error
}

func (r *stubReverse) ReverseGeocode(_ context.Context, _, _ float64) (string, error) {
	if r.err != nil {
		return "", nil
	}
	return r.name, nil
}

// stubWeather serves a canned snapshot; names in failFor (by coordinate key)
// fail instead.
type stubWeather struct {
	mu      sync.Mutex
	calls   int
	failAll bool
	failFor map[string]bool
}

func coordKey(lat, lon float64) string { return fmt.Sprintf("%.2f:%.2f", lat, lon) }

func (w *stubWeather) Fetch(_ context.Context, lat, lon float64) (*types.WeatherSnapshot, error) {
	w.mu.Lock()
	w.calls++
	fail := w.failAll || w.failFor[coordKey(lat, lon)]
	w.mu.Unlock()
	if fail {
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "fetch failed", errors.New("boom"))
	}
	return &types.WeatherSnapshot{
		Current:   types.CurrentConditions{Temperature: 20, WeatherCode: 1},
		Daily:     types.DailyForecast{Time: []string{"2026-09-01"}, WeatherCode: []int{1}},
		FetchedAt: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

var geoTable = map[string]*external.GeocodeResult{
	"paris":  {Name: "Paris", Latitude: 48.85, Longitude: 2.35, Country: "France"},
	"tokyo":  {Name: "Tokyo", Latitude: 35.68, Longitude: 139.69, Country: "Japan"},
	"oslo":   {Name: "Oslo", Latitude: 59.91, Longitude: 10.75, Country: "Norway"},
	"lisbon": {Name: "Lisbon", Latitude: 38.72, Longitude: -9.13, Country: "Portugal"},
	"berlin": {Name: "Berlin", Latitude: 52.52, Longitude: 13.41, Country: "Germany"},
	"madrid": {Name: "Madrid", Latitude: 40.42, Longitude: -3.70, Country: "Spain"},
	"cairo":  {Name: "Cairo", Latitude: 30.04, Longitude: 31.24, Country: "Egypt"},
}

type fixture struct {
	svc     *Service
	store   *memStore
	geo     *stubGeocoder
	reverse *stubReverse
	weather *stubWeather
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   &memStore{},
		geo:     &stubGeocoder{table: geoTable},
		reverse: &stubReverse{name: "Lisbon"},
		weather: &stubWeather{failFor: map[string]bool{}},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.DashboardConfig{MaxCities: 5, MaxSuggestions: 5, GeolocationTimeout: time.Second}

	svc, err := NewService(context.Background(), f.store, f.geo, f.reverse, f.weather, cfg, logger)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestFreshStateFirstRun(t *testing.T) {
	f := newFixture(t)
	view := f.svc.Snapshot()

	assert.Nil(t, view.PrimaryLocation)
	assert.False(t, view.GeolocationDenied)
	assert.False(t, view.Loading)
	assert.Empty(t, view.Watchlist)
}

func TestAddCity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.svc.AddCity(ctx, "paris")
	require.NoError(t, err)

	require.Len(t, view.Watchlist, 1)
	city := view.Watchlist[0]
	assert.Equal(t, "Paris", city.Name)
	assert.Equal(t, "Paris, France", city.DisplayName)
	assert.Equal(t, int64(1), city.ID)
	require.NotNil(t, city.Weather)
	assert.Equal(t, float64(20), city.Weather.Current.Temperature)
	assert.NotEmpty(t, city.Weather.Condition)
	assert.Greater(t, f.store.saves, 0)
}

func TestAddCityBlankNameRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AddCity(context.Background(), "   ")

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationBlankCity, appErr.Code)
	assert.Zero(t, f.geo.calls, "validation failures must precede any network call")
}

func TestAddCityDuplicateCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddCity(ctx, "Paris")
	require.NoError(t, err)

	_, err = f.svc.AddCity(ctx, "paris")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationDuplicateCity, appErr.Code)

	assert.Len(t, f.svc.Snapshot().Watchlist, 1)
}

func TestAddCityWatchlistFull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"paris", "tokyo", "oslo", "lisbon", "berlin"} {
		_, err := f.svc.AddCity(ctx, name)
		require.NoError(t, err)
	}

	_, err := f.svc.AddCity(ctx, "madrid")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationWatchlistFull, appErr.Code)
	assert.Len(t, f.svc.Snapshot().Watchlist, 5)
}

func TestAddCityNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AddCity(context.Background(), "Zzznotacity")

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeNotFoundCity, appErr.Code)
	assert.Empty(t, f.svc.Snapshot().Watchlist)
}

func TestAddCityFetchFailureKeepsCityWithMarker(t *testing.T) {
	f := newFixture(t)
	f.weather.failFor[coordKey(48.85, 2.35)] = true

	view, err := f.svc.AddCity(context.Background(), "paris")
	require.NoError(t, err)

	require.Len(t, view.Watchlist, 1)
	assert.Nil(t, view.Watchlist[0].Weather)
	assert.NotEmpty(t, view.Watchlist[0].FetchError)
}

func TestCityIDsAreMonotonic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddCity(ctx, "paris")
	require.NoError(t, err)
	_, err = f.svc.AddCity(ctx, "tokyo")
	require.NoError(t, err)

	_, err = f.svc.RemoveCity(ctx, 2)
	require.NoError(t, err)

	view, err := f.svc.AddCity(ctx, "oslo")
	require.NoError(t, err)

	// Removed IDs are never reused.
	require.Len(t, view.Watchlist, 2)
	assert.Equal(t, int64(1), view.Watchlist[0].ID)
	assert.Equal(t, int64(3), view.Watchlist[1].ID)
}

func TestRemoveCityDropsSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddCity(ctx, "paris")
	require.NoError(t, err)

	view, err := f.svc.RemoveCity(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, view.Watchlist)

	// The persisted state carries no stale snapshot either.
	loaded, err := f.store.Load(ctx)
	require.NoError(t, err)
	assert.NotContains(t, loaded.WeatherByCityID, int64(1))
}

func TestRemoveCityAbsentIDIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddCity(ctx, "paris")
	require.NoError(t, err)

	view, err := f.svc.RemoveCity(ctx, 99)
	require.NoError(t, err)
	assert.Len(t, view.Watchlist, 1)
}

func TestRetryCityClearsMarker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	key := coordKey(48.85, 2.35)
	f.weather.failFor[key] = true
	_, err := f.svc.AddCity(ctx, "paris")
	require.NoError(t, err)

	f.weather.mu.Lock()
	f.weather.failFor[key] = false
	f.weather.mu.Unlock()

	geocodesBefore := f.geo.calls
	view, err := f.svc.RetryCity(ctx, 1)
	require.NoError(t, err)

	require.NotNil(t, view.Watchlist[0].Weather)
	assert.Empty(t, view.Watchlist[0].FetchError)
	assert.Equal(t, geocodesBefore, f.geo.calls, "retry must not re-geocode")
}

func TestRetryCityAbsentIDIsNoop(t *testing.T) {
	f := newFixture(t)

	fetchesBefore := f.weather.calls
	view, err := f.svc.RetryCity(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, view.Watchlist)
	assert.Equal(t, fetchesBefore, f.weather.calls)
}

func TestSearchAndSetPrimary(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.SearchAndSetPrimary(context.Background(), "lisbon")
	require.NoError(t, err)

	require.NotNil(t, view.PrimaryLocation)
	assert.Equal(t, "Lisbon", view.PrimaryLocation.Name)
	assert.False(t, view.PrimaryLocation.IsCurrentLocation)
	assert.Equal(t, "Lisbon, Portugal", view.PrimaryLocation.DisplayName)
	require.NotNil(t, view.PrimaryWeather)
}

func TestSearchNotFoundLeavesPrimaryUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SearchAndSetPrimary(ctx, "lisbon")
	require.NoError(t, err)

	_, err = f.svc.SearchAndSetPrimary(ctx, "Zzznotacity")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeNotFoundCity, appErr.Code)

	view := f.svc.Snapshot()
	assert.Equal(t, "Lisbon", view.PrimaryLocation.Name)
}

func TestRefreshPrimaryFailureKeepsLastKnownGood(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SearchAndSetPrimary(ctx, "lisbon")
	require.NoError(t, err)

	f.weather.mu.Lock()
	f.weather.failAll = true
	f.weather.mu.Unlock()

	view, err := f.svc.RefreshPrimary(ctx)
	require.NoError(t, err)

	assert.Equal(t, "Lisbon", view.PrimaryLocation.Name)
	require.NotNil(t, view.PrimaryWeather, "previous weather must survive a failed refresh")
	assert.NotEmpty(t, view.PrimaryError)
}

func TestGeolocationGranted(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.ResolveGeolocation(context.Background(), GeolocationOutcome{
		Status: GeolocationGranted, Latitude: 38.72, Longitude: -9.13,
	})
	require.NoError(t, err)

	require.NotNil(t, view.PrimaryLocation)
	assert.True(t, view.PrimaryLocation.IsCurrentLocation)
	assert.Equal(t, "Lisbon", view.PrimaryLocation.DisplayName)
	assert.False(t, view.GeolocationDenied)
	require.NotNil(t, view.PrimaryWeather)
}

func TestGeolocationGrantedReverseFailureFallsBack(t *testing.T) {
	f := newFixture(t)
	f.reverse.name = ""

	view, err := f.svc.ResolveGeolocation(context.Background(), GeolocationOutcome{
		Status: GeolocationGranted, Latitude: 10, Longitude: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "Current Location", view.PrimaryLocation.DisplayName)
}

func TestGeolocationDeniedIsSticky(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.svc.ResolveGeolocation(ctx, GeolocationOutcome{Status: GeolocationDenied})
	require.NoError(t, err)
	assert.True(t, view.GeolocationDenied)
	assert.Nil(t, view.PrimaryLocation)

	// Flag survives a reload from the store.
	loaded, err := f.store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.GeolocationDenied)
}

func TestGeolocationUnavailableIsNotSticky(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.svc.ResolveGeolocation(ctx, GeolocationOutcome{Status: GeolocationUnavailable})
	require.NoError(t, err)
	assert.False(t, view.GeolocationDenied)

	loaded, err := f.store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, loaded.GeolocationDenied)
}

func TestGeolocationGrantClearsStickyDenial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ResolveGeolocation(ctx, GeolocationOutcome{Status: GeolocationDenied})
	require.NoError(t, err)

	view, err := f.svc.ResolveGeolocation(ctx, GeolocationOutcome{
		Status: GeolocationGranted, Latitude: 38.72, Longitude: -9.13,
	})
	require.NoError(t, err)
	assert.False(t, view.GeolocationDenied)
}

func TestGeolocationInvalidCoordinates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ResolveGeolocation(ctx, GeolocationOutcome{
		Status: GeolocationGranted, Latitude: 91, Longitude: 0,
	})
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationInvalidLat, appErr.Code)

	_, err = f.svc.ResolveGeolocation(ctx, GeolocationOutcome{
		Status: GeolocationGranted, Latitude: 0, Longitude: -181,
	})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationInvalidLon, appErr.Code)
}

func TestRefreshAllSettlesLoadingDespiteFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SearchAndSetPrimary(ctx, "lisbon")
	require.NoError(t, err)
	for _, name := range []string{"paris", "tokyo", "oslo"} {
		_, err := f.svc.AddCity(ctx, name)
		require.NoError(t, err)
	}

	// One city fails; the others and the primary still complete.
	f.weather.mu.Lock()
	f.weather.failFor[coordKey(35.68, 139.69)] = true
	f.weather.mu.Unlock()

	view, err := f.svc.RefreshAll(ctx)
	require.NoError(t, err)

	assert.False(t, view.Loading, "loading must clear once every fetch settles")
	require.Len(t, view.Watchlist, 3)
	for _, city := range view.Watchlist {
		if city.Name == "Tokyo" {
			assert.NotEmpty(t, city.FetchError)
			// Previously fetched weather stays as last known good.
			assert.NotNil(t, city.Weather)
		} else {
			assert.Empty(t, city.FetchError)
			assert.NotNil(t, city.Weather)
		}
	}
}

func TestInitialLoadFetchesSequentially(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SearchAndSetPrimary(ctx, "lisbon")
	require.NoError(t, err)
	_, err = f.svc.AddCity(ctx, "paris")
	require.NoError(t, err)
	_, err = f.svc.AddCity(ctx, "tokyo")
	require.NoError(t, err)

	before := f.weather.calls
	f.svc.InitialLoad(ctx)

	// Primary plus two cities.
	assert.Equal(t, before+3, f.weather.calls)
	assert.False(t, f.svc.Snapshot().Loading)
}

func TestStatePersistsAcrossServices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SearchAndSetPrimary(ctx, "lisbon")
	require.NoError(t, err)
	_, err = f.svc.AddCity(ctx, "paris")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.DashboardConfig{MaxCities: 5, MaxSuggestions: 5}
	revived, err := NewService(ctx, f.store, f.geo, f.reverse, f.weather, cfg, logger)
	require.NoError(t, err)

	view := revived.Snapshot()
	require.NotNil(t, view.PrimaryLocation)
	assert.Equal(t, "Lisbon", view.PrimaryLocation.Name)
	require.Len(t, view.Watchlist, 1)
	assert.Equal(t, "Paris", view.Watchlist[0].Name)
	require.NotNil(t, view.Watchlist[0].Weather, "cached snapshots serve before any refresh")
	assert.False(t, view.Loading)
}

func TestSuggest(t *testing.T) {
	f := newFixture(t)

	t.Run("substring match is case-insensitive", func(t *testing.T) {
		assert.Equal(t, []string{"Lisbon"}, f.svc.Suggest("LISB"))
	})

	t.Run("blank query yields nothing", func(t *testing.T) {
		assert.Empty(t, f.svc.Suggest("   "))
	})

	t.Run("capped at configured maximum", func(t *testing.T) {
		matches := f.svc.Suggest("a")
		assert.Len(t, matches, 5)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, f.svc.Suggest("zzz"))
	})
}
