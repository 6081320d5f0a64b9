package dashboard

import (
	"context"
	"fmt"
	"strings"

	"weatherdash/internal/types"
)

// cityFetchErrorLabel is the marker shown on a watchlist card whose last
// fetch failed.
const cityFetchErrorLabel = "weather is temporarily unavailable"

// AddCity validates, geocodes, and appends a city to the watchlist, then
// fetches its weather. Validation failures and NotFound leave state
// unchanged. A weather fetch failure after a successful add keeps the city
// and records an error marker; the card renders with a retry affordance.
func (s *Service) AddCity(ctx context.Context, name string) (*View, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, types.NewAppError(
			types.ErrCodeValidationBlankCity,
			"city name must not be blank",
			nil,
		)
	}

	s.mu.Lock()
	if len(s.state.Watchlist) >= s.cfg.MaxCities {
		s.mu.Unlock()
		return nil, types.NewAppError(
			types.ErrCodeValidationWatchlistFull,
			fmt.Sprintf("watchlist is limited to %d cities", s.cfg.MaxCities),
			nil,
		)
	}
	for _, c := range s.state.Watchlist {
		if strings.EqualFold(c.Name, name) {
			s.mu.Unlock()
			return nil, types.NewAppError(
				types.ErrCodeValidationDuplicateCity,
				fmt.Sprintf("%q is already on the watchlist", c.Name),
				nil,
			)
		}
	}
	s.mu.Unlock()

	result, err := s.geocoder.Geocode(ctx, name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	// Re-check against state that may have moved while geocoding.
	if len(s.state.Watchlist) >= s.cfg.MaxCities {
		s.mu.Unlock()
		return nil, types.NewAppError(
			types.ErrCodeValidationWatchlistFull,
			fmt.Sprintf("watchlist is limited to %d cities", s.cfg.MaxCities),
			nil,
		)
	}
	for _, c := range s.state.Watchlist {
		if strings.EqualFold(c.Name, result.Name) || strings.EqualFold(c.Name, name) {
			s.mu.Unlock()
			return nil, types.NewAppError(
				types.ErrCodeValidationDuplicateCity,
				fmt.Sprintf("%q is already on the watchlist", c.Name),
				nil,
			)
		}
	}

	city := types.WatchlistCity{
		ID:          s.state.NextCityID,
		Name:        result.Name,
		Latitude:    result.Latitude,
		Longitude:   result.Longitude,
		Country:     result.Country,
		DisplayName: types.ComposeDisplayName(result.Name, result.Country),
	}
	s.state.NextCityID++
	s.state.Watchlist = append(s.state.Watchlist, city)
	if err := s.persistLocked(ctx); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	s.fetchCity(ctx, city)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildViewLocked(), nil
}

// RemoveCity drops the city, its weather snapshot, and its error marker in
// one transition. An absent id is a silent no-op.
func (s *Service) RemoveCity(ctx context.Context, id int64) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, c := range s.state.Watchlist {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s.buildViewLocked(), nil
	}

	s.state.Watchlist = append(s.state.Watchlist[:idx], s.state.Watchlist[idx+1:]...)
	delete(s.state.WeatherByCityID, id)
	delete(s.fetchErrors, id)

	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}
	return s.buildViewLocked(), nil
}

// RetryCity re-runs the weather fetch for an existing watchlist entry using
// its stored coordinates; the name is not re-geocoded. An absent id is a
// silent no-op.
func (s *Service) RetryCity(ctx context.Context, id int64) (*View, error) {
	s.mu.Lock()
	var city *types.WatchlistCity
	for i := range s.state.Watchlist {
		if s.state.Watchlist[i].ID == id {
			c := s.state.Watchlist[i]
			city = &c
			break
		}
	}
	s.mu.Unlock()

	if city != nil {
		s.fetchCity(ctx, *city)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildViewLocked(), nil
}

// fetchCity fetches one city's weather and applies the result. The snapshot
// is only attached if the city is still on the watchlist when the fetch
// settles; a failure records a per-city marker without touching siblings.
func (s *Service) fetchCity(ctx context.Context, city types.WatchlistCity) {
	snap, err := s.weather.Fetch(ctx, city.Latitude, city.Longitude)

	s.mu.Lock()
	defer s.mu.Unlock()

	stillPresent := false
	for _, c := range s.state.Watchlist {
		if c.ID == city.ID {
			stillPresent = true
			break
		}
	}
	if !stillPresent {
		return
	}

	if err != nil {
		s.logger.Warn("watchlist weather fetch failed",
			"city", city.DisplayName, "city_id", city.ID, "error", err)
		s.fetchErrors[city.ID] = cityFetchErrorLabel
		return
	}

	s.state.WeatherByCityID[city.ID] = snap
	delete(s.fetchErrors, city.ID)
	if err := s.persistLocked(ctx); err != nil {
		s.logger.Warn("snapshot persisted in memory only", "city_id", city.ID)
	}
}
