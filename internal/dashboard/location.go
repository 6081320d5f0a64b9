package dashboard

import (
	"context"
	"strings"

	"weatherdash/internal/types"
)

// GeolocationStatus is the tagged outcome of the client-side position
// acquisition.
type GeolocationStatus string

const (
	// GeolocationGranted carries coordinates.
	GeolocationGranted GeolocationStatus = "granted"
	// GeolocationDenied is an explicit permission refusal. It is sticky: the
	// denial flag is persisted and the client is never auto-prompted again.
	GeolocationDenied GeolocationStatus = "denied"
	// GeolocationUnavailable covers timeouts and position failures. Not
	// sticky; a fresh session may prompt again.
	GeolocationUnavailable GeolocationStatus = "unavailable"
)

// GeolocationOutcome is the client's report of the geolocation attempt.
type GeolocationOutcome struct {
	Status    GeolocationStatus
	Latitude  float64
	Longitude float64
}

// currentLocationLabel substitutes for a place name when reverse geocoding
// yields nothing.
const currentLocationLabel = "Current Location"

// ResolveGeolocation applies the outcome of a client geolocation attempt.
//
// granted: reverse-geocodes the coordinates (best effort), sets the primary
// location, clears any persisted denial, persists, and fetches weather.
// denied: persists the sticky denial flag; the primary location is untouched.
// unavailable: no state change at all.
func (s *Service) ResolveGeolocation(ctx context.Context, outcome GeolocationOutcome) (*View, error) {
	switch outcome.Status {
	case GeolocationGranted:
		return s.applyGeolocationGrant(ctx, outcome.Latitude, outcome.Longitude)
	case GeolocationDenied:
		return s.DenyGeolocation(ctx)
	case GeolocationUnavailable:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.buildViewLocked(), nil
	default:
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidField,
			"request validation failed",
			nil,
			map[string]any{"status": "must be one of: granted denied unavailable"},
		)
	}
}

func (s *Service) applyGeolocationGrant(ctx context.Context, lat, lon float64) (*View, error) {
	if lat < -90 || lat > 90 {
		return nil, types.NewAppError(
			types.ErrCodeValidationInvalidLat,
			"latitude must be between -90 and 90",
			nil,
		)
	}
	if lon < -180 || lon > 180 {
		return nil, types.NewAppError(
			types.ErrCodeValidationInvalidLon,
			"longitude must be between -180 and 180",
			nil,
		)
	}

	// Best effort; an empty name falls back to the generic label. Naming
	// failure never fails location acquisition.
	placeName, _ := s.reverse.ReverseGeocode(ctx, lat, lon)
	display := placeName
	if display == "" {
		display = currentLocationLabel
	}

	loc := &types.Location{
		Name:              currentLocationLabel,
		Latitude:          lat,
		Longitude:         lon,
		IsCurrentLocation: true,
		DisplayName:       display,
	}

	s.mu.Lock()
	s.state.PrimaryLocation = loc
	s.state.GeolocationDenied = false
	if err := s.persistLocked(ctx); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	s.fetchPrimary(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildViewLocked(), nil
}

// DenyGeolocation records an explicit refusal. The flag is sticky across
// sessions; only a later grant clears it.
func (s *Service) DenyGeolocation(ctx context.Context) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.GeolocationDenied = true
	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}
	return s.buildViewLocked(), nil
}

// SearchAndSetPrimary geocodes a free-text name and replaces the primary
// location wholesale. NotFound leaves state unchanged. A weather fetch
// failure after a successful geocode keeps the new location and records an
// error marker.
func (s *Service) SearchAndSetPrimary(ctx context.Context, name string) (*View, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, types.NewAppError(
			types.ErrCodeValidationBlankCity,
			"city name must not be blank",
			nil,
		)
	}

	result, err := s.geocoder.Geocode(ctx, name)
	if err != nil {
		return nil, err
	}

	loc := &types.Location{
		Name:              result.Name,
		Latitude:          result.Latitude,
		Longitude:         result.Longitude,
		IsCurrentLocation: false,
		DisplayName:       types.ComposeDisplayName(result.Name, result.Country),
	}

	s.mu.Lock()
	s.state.PrimaryLocation = loc
	if err := s.persistLocked(ctx); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	s.fetchPrimary(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildViewLocked(), nil
}

// RefreshPrimary refetches weather for the primary location if one is set.
// On failure the previously shown weather stays in place and an error marker
// is recorded; the location itself is never cleared.
func (s *Service) RefreshPrimary(ctx context.Context) (*View, error) {
	s.fetchPrimary(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildViewLocked(), nil
}

// fetchPrimary fetches weather for the current primary location, if any.
// The network call runs outside the lock; the freshest writer wins.
func (s *Service) fetchPrimary(ctx context.Context) {
	s.mu.Lock()
	loc := s.state.PrimaryLocation
	s.mu.Unlock()
	if loc == nil {
		return
	}

	snap, err := s.weather.Fetch(ctx, loc.Latitude, loc.Longitude)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Warn("primary weather fetch failed",
			"location", loc.DisplayName, "error", err)
		s.primaryErr = "weather is temporarily unavailable"
		return
	}
	s.primaryWeather = snap
	s.primaryErr = ""
}
