package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// NominatimClient reverse-geocodes coordinates via the OpenStreetMap
// Nominatim API.
type NominatimClient struct {
	base     *BaseClient
	baseURL  string
	language string
}

// NewNominatimClient constructs a NominatimClient against the reverse
// endpoint.
func NewNominatimClient(base *BaseClient, baseURL, language string) *NominatimClient {
	return &NominatimClient{
		base:     base,
		baseURL:  baseURL,
		language: language,
	}
}

// nominatimResponse mirrors the address fields the fallback chain inspects.
type nominatimResponse struct {
	Address struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
		State        string `json:"state"`
		Country      string `json:"country"`
	} `json:"address"`
}

// ReverseGeocode resolves coordinates to a place name using a fallback chain
// over the address fields: city, town, village, municipality, then
// "state, country", then country alone. Every failure mode (transport error,
// bad status, unparseable body, empty address) degrades to ("", nil); reverse
// geocoding is cosmetic and must never fail a location resolution.
func (n *NominatimClient) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("accept-language", n.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", nil
	}

	resp, err := n.base.Do(req)
	if err != nil {
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", nil
	}

	var parsed nominatimResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", nil
	}

	addr := parsed.Address
	for _, candidate := range []string{addr.City, addr.Town, addr.Village, addr.Municipality} {
		if candidate != "" {
			return candidate, nil
		}
	}
	if addr.State != "" && addr.Country != "" {
		return fmt.Sprintf("%s, %s", addr.State, addr.Country), nil
	}
	if addr.Country != "" {
		return addr.Country, nil
	}
	return "", nil
}
