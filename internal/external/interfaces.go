package external

import (
	"context"

	"weatherdash/internal/types"
)

// Geocoder resolves a free-text place name to coordinates.
type Geocoder interface {
	// Geocode returns the best match for name. A zero-result response maps to
	// an AppError with code not_found_city.
	Geocode(ctx context.Context, name string) (*GeocodeResult, error)
}

// ReverseGeocoder resolves coordinates to a human-readable place name.
type ReverseGeocoder interface {
	// ReverseGeocode returns a display name for the coordinates. All failures
	// degrade to an empty name with a nil error; callers fall back to a
	// coordinate-based label.
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// WeatherProvider fetches current conditions and the daily forecast for a
// coordinate pair in a single call.
type WeatherProvider interface {
	Fetch(ctx context.Context, lat, lon float64) (*types.WeatherSnapshot, error)
}
