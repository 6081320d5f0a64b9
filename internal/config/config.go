// Package config defines the global configuration structure for the weather
// dashboard service. Configuration is loaded once at process initialization
// and is immutable thereafter. It follows 12-Factor App principles by
// strictly separating code from configuration.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> Struct Defaults (Lowest)
//
// Any missing required value or invalid format causes the application to
// fail immediately on startup.
package config

import "time"

// Config is the top-level configuration struct for the dashboard service.
// It is populated once during process initialization and never modified.
// Sub-components receive only the specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"weatherdash"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	Server    ServerConfig
	Store     StoreConfig
	Geocoding GeocodingConfig
	Weather   WeatherConfig
	Dashboard DashboardConfig

	// Build Metadata (injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port               string   `envconfig:"PORT" default:"8080"`
	CorsAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// StoreConfig selects and tunes the persistence backend. The sqlite driver
// keeps the dashboard state in a local file, mirroring the single-record
// browser-storage model; the postgres driver targets shared deployments.
type StoreConfig struct {
	Driver      string `envconfig:"STORE_DRIVER" default:"sqlite" validate:"required,oneof=sqlite postgres"`
	SQLitePath  string `envconfig:"STORE_SQLITE_PATH" default:"weatherdash.db"`
	PostgresURL string `envconfig:"STORE_POSTGRES_URL" validate:"required_if=Driver postgres,omitempty,url"`
}

// GeocodingConfig holds forward and reverse geocoding endpoints. Language is
// a BCP-47 tag passed through to both services so results come back in the
// dashboard's locale.
type GeocodingConfig struct {
	BaseURL        string        `envconfig:"GEOCODING_BASE_URL" default:"https://geocoding-api.open-meteo.com/v1/search" validate:"required,url"`
	ReverseBaseURL string        `envconfig:"REVERSE_GEOCODING_BASE_URL" default:"https://nominatim.openstreetmap.org/reverse" validate:"required,url"`
	Language       string        `envconfig:"GEOCODING_LANGUAGE" default:"en"`
	Timeout        time.Duration `envconfig:"GEOCODING_TIMEOUT" default:"10s"`
}

// WeatherConfig holds the forecast endpoint and query shape.
type WeatherConfig struct {
	BaseURL      string        `envconfig:"WEATHER_BASE_URL" default:"https://api.open-meteo.com/v1/forecast" validate:"required,url"`
	ForecastDays int           `envconfig:"WEATHER_FORECAST_DAYS" default:"3" validate:"min=1,max=16"`
	Timeout      time.Duration `envconfig:"WEATHER_TIMEOUT" default:"10s"`
}

// DashboardConfig holds the state-machine limits.
type DashboardConfig struct {
	MaxCities          int           `envconfig:"DASHBOARD_MAX_CITIES" default:"5" validate:"min=1"`
	MaxSuggestions     int           `envconfig:"DASHBOARD_MAX_SUGGESTIONS" default:"5" validate:"min=1"`
	GeolocationTimeout time.Duration `envconfig:"GEOLOCATION_TIMEOUT" default:"10s"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
	// ErrLocale indicates the configured geocoding language is not a valid
	// BCP-47 tag.
	ErrLocale ConfigErrorType = "INVALID_LOCALE"
)
