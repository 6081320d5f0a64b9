// Package main is the entry point for the weather dashboard API server.
//
// It loads configuration, opens the state store, builds the upstream clients
// and the dashboard service, wires the HTTP chassis (middleware, routing,
// health checks), and starts listening. The startup weather refresh runs in
// the background so the server is servable from cached snapshots
// immediately.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzhttp"

	"weatherdash/internal/api/handlers"
	"weatherdash/internal/config"
	"weatherdash/internal/core"
	"weatherdash/internal/dashboard"
	"weatherdash/internal/external"
	"weatherdash/internal/store"
)

const userAgent = "weatherdash/1.0 (+https://github.com/weatherdash/weatherdash)"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := core.NewLogger(cfg.LogLevel, cfg.Service, cfg.Environment)
	logger.Info("weatherdash API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
		"store_driver", cfg.Store.Driver,
	)

	ctx := context.Background()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}

	geocoder, reverse, weather := buildClients(cfg)

	svc, err := dashboard.NewService(ctx, st, geocoder, reverse, weather, cfg.Dashboard, logger)
	if err != nil {
		st.Close()
		return fmt.Errorf("initializing dashboard service: %w", err)
	}

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		st.Close()
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Closers = append(srv.Closers, st.Close)

	if probe, ok := st.(core.HealthProbe); ok {
		srv.HealthProbes = append(srv.HealthProbes, probe)
	}

	dashHandler := handlers.NewDashboardHandler(svc, srv.Validator, logger)
	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars, func(r chi.Router) {
		dashHandler.RegisterRoutes(r)
	})

	srv.MountRoutes()

	// Warm the weather snapshots without blocking startup. The sequence is
	// cancelled on shutdown.
	loadCtx, cancelLoad := context.WithCancel(ctx)
	defer cancelLoad()
	go svc.InitialLoad(loadCtx)

	return runHTTPServer(srv, cfg, logger, cancelLoad)
}

// openStore selects the persistence backend from configuration.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgresStore(ctx, cfg.Store.PostgresURL, logger)
	default:
		return store.NewSQLiteStore(ctx, cfg.Store.SQLitePath, logger)
	}
}

// buildClients constructs the upstream API clients, each with its own HTTP
// timeout and circuit breaker.
func buildClients(cfg *config.Config) (external.Geocoder, external.ReverseGeocoder, external.WeatherProvider) {
	geoHTTP := &http.Client{Timeout: cfg.Geocoding.Timeout}
	wxHTTP := &http.Client{Timeout: cfg.Weather.Timeout}

	geocoder := external.NewGeocoderClient(
		external.NewBaseClient(geoHTTP, "geocoder", userAgent),
		cfg.Geocoding.BaseURL,
		cfg.Geocoding.Language,
	)
	reverse := external.NewNominatimClient(
		external.NewBaseClient(geoHTTP, "reverse-geocoder", userAgent),
		cfg.Geocoding.ReverseBaseURL,
		cfg.Geocoding.Language,
	)
	weather := external.NewWeatherClient(
		external.NewBaseClient(wxHTTP, "weather", userAgent),
		cfg.Weather.BaseURL,
		cfg.Weather.ForecastDays,
	)
	return geocoder, reverse, weather
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger, cancelLoad func()) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           gzhttp.GzipHandler(srv.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	cancelLoad()

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server resource shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}
