package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"weatherdash/internal/types"
)

// currentParams and dailyParams are the comma-joined variable lists requested
// from the forecast API. They match the field sets of types.CurrentConditions
// and types.DailyForecast.
const (
	currentParams = "temperature_2m,relative_humidity_2m,apparent_temperature,precipitation,wind_speed_10m,weather_code"
	dailyParams   = "weather_code,temperature_2m_max,temperature_2m_min,precipitation_sum,wind_speed_10m_max"
)

// WeatherClient fetches current conditions and daily forecasts from the
// Open-Meteo forecast API.
type WeatherClient struct {
	base         *BaseClient
	baseURL      string
	forecastDays int
	now          func() time.Time
}

// NewWeatherClient constructs a WeatherClient against the forecast endpoint.
func NewWeatherClient(base *BaseClient, baseURL string, forecastDays int) *WeatherClient {
	return &WeatherClient{
		base:         base,
		baseURL:      baseURL,
		forecastDays: forecastDays,
		now:          time.Now,
	}
}

// forecastResponse mirrors the combined current+daily upstream payload.
type forecastResponse struct {
	Current types.CurrentConditions `json:"current"`
	Daily   types.DailyForecast     `json:"daily"`
}

// Fetch retrieves the current conditions and the daily forecast for the
// coordinates in one round trip.
func (wc *WeatherClient) Fetch(ctx context.Context, lat, lon float64) (*types.WeatherSnapshot, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("current", currentParams)
	q.Set("daily", dailyParams)
	q.Set("timezone", "auto")
	q.Set("forecast_days", strconv.Itoa(wc.forecastDays))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wc.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to build forecast request",
			err,
		)
	}

	resp, err := wc.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamWeather,
			fmt.Sprintf("forecast API returned status %d", resp.StatusCode),
			nil,
		)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamWeather,
			"failed to read forecast response",
			err,
		)
	}

	var parsed forecastResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamWeather,
			"failed to parse forecast response",
			err,
		)
	}

	return &types.WeatherSnapshot{
		Current:   parsed.Current,
		Daily:     parsed.Daily,
		FetchedAt: wc.now().UTC(),
	}, nil
}
