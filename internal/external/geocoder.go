package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"weatherdash/internal/types"
)

// GeocodeResult is the resolved location for a place-name query.
type GeocodeResult struct {
	Name      string
	Latitude  float64
	Longitude float64
	Country   string
}

// GeocoderClient talks to the Open-Meteo geocoding API.
type GeocoderClient struct {
	base     *BaseClient
	baseURL  string
	language string
}

// NewGeocoderClient constructs a GeocoderClient. baseURL is the search
// endpoint; language is a BCP-47 tag forwarded so results localize.
func NewGeocoderClient(base *BaseClient, baseURL, language string) *GeocoderClient {
	return &GeocoderClient{
		base:     base,
		baseURL:  baseURL,
		language: language,
	}
}

// geocodeResponse mirrors the upstream search payload. Only the first result
// is used; count=1 keeps the response minimal.
type geocodeResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Country   string  `json:"country"`
	} `json:"results"`
}

// Geocode resolves name to the single best-matching location. Zero results is
// a valid upstream outcome and maps to not_found_city, distinct from
// transport failures which map to upstream_* codes.
func (g *GeocoderClient) Geocode(ctx context.Context, name string) (*GeocodeResult, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("count", "1")
	q.Set("language", g.language)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to build geocoding request",
			err,
		)
	}

	resp, err := g.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamGeocoder,
			fmt.Sprintf("geocoder returned status %d", resp.StatusCode),
			nil,
		)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamGeocoder,
			"failed to read geocoder response",
			err,
		)
	}

	var parsed geocodeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamGeocoder,
			"failed to parse geocoder response",
			err,
		)
	}

	if len(parsed.Results) == 0 {
		return nil, types.NewAppError(
			types.ErrCodeNotFoundCity,
			fmt.Sprintf("no location found matching %q", name),
			nil,
		)
	}

	first := parsed.Results[0]
	return &GeocodeResult{
		Name:      first.Name,
		Latitude:  first.Latitude,
		Longitude: first.Longitude,
		Country:   first.Country,
	}, nil
}
