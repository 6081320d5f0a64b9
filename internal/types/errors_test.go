package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodeHTTPStatus(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationBlankCity, http.StatusBadRequest},
		{ErrCodeValidationDuplicateCity, http.StatusBadRequest},
		{ErrCodeValidationWatchlistFull, http.StatusBadRequest},
		{ErrCodeNotFoundCity, http.StatusNotFound},
		{ErrCodePermissionGeolocation, http.StatusForbidden},
		{ErrCodeUpstreamGeocoder, http.StatusBadGateway},
		{ErrCodeUpstreamRateLimited, http.StatusBadGateway},
		{ErrCodeInternalStore, http.StatusInternalServerError},
		{ErrorCode("something_else"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.code.HTTPStatus())
		})
	}
}

func TestAppErrorChain(t *testing.T) {
	cause := errors.New("connection refused")
	appErr := NewAppError(ErrCodeUpstreamWeather, "fetch failed", cause)

	assert.ErrorIs(t, appErr, cause)
	assert.Equal(t, "upstream_weather_unavailable: fetch failed", appErr.Error())

	wrapped := fmt.Errorf("refreshing: %w", appErr)
	var out *AppError
	assert.ErrorAs(t, wrapped, &out)
	assert.Equal(t, ErrCodeUpstreamWeather, out.Code)
}

func TestWeatherCodeLookup(t *testing.T) {
	assert.Equal(t, "Clear sky", DescribeWeatherCode(0))
	assert.Equal(t, "Unknown", DescribeWeatherCode(1234))

	assert.Equal(t, "sun", WeatherIconClass(0))
	assert.Equal(t, "cloud-sun", WeatherIconClass(2))
	assert.Equal(t, "bolt", WeatherIconClass(95))
}
