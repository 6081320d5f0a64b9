// Package handlers contains the HTTP handlers for the dashboard API. Each
// handler decodes and validates its request, delegates to the dashboard
// service, and writes the standard response envelope.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"weatherdash/internal/core"
	"weatherdash/internal/dashboard"
)

// DashboardService is the slice of the dashboard service the handlers need.
type DashboardService interface {
	Snapshot() *dashboard.View
	ResolveGeolocation(ctx context.Context, outcome dashboard.GeolocationOutcome) (*dashboard.View, error)
	SearchAndSetPrimary(ctx context.Context, name string) (*dashboard.View, error)
	AddCity(ctx context.Context, name string) (*dashboard.View, error)
	RemoveCity(ctx context.Context, id int64) (*dashboard.View, error)
	RetryCity(ctx context.Context, id int64) (*dashboard.View, error)
	RefreshAll(ctx context.Context) (*dashboard.View, error)
	Suggest(query string) []string
}

// DashboardHandler serves the /dashboard route group.
type DashboardHandler struct {
	service   DashboardService
	validator *core.Validator
	logger    *slog.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service DashboardService, validator *core.Validator, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service:   service,
		validator: validator,
		logger:    logger,
	}
}

// RegisterRoutes mounts the dashboard routes onto a router group.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/", h.GetDashboard)
		r.Post("/location/search", h.SearchLocation)
		r.Post("/location/geolocation", h.ReportGeolocation)
		r.Post("/cities", h.AddCity)
		r.Delete("/cities/{cityID}", h.RemoveCity)
		r.Post("/cities/{cityID}/retry", h.RetryCity)
		r.Post("/refresh", h.Refresh)
		r.Get("/suggestions", h.Suggestions)
	})
}

type cityNameRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type geolocationRequest struct {
	Status    string  `json:"status" validate:"required,oneof=granted denied unavailable"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type suggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// GetDashboard returns the full dashboard view.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: h.service.Snapshot()})
}

// SearchLocation geocodes a city name and makes it the primary location.
func (h *DashboardHandler) SearchLocation(w http.ResponseWriter, r *http.Request) {
	var req cityNameRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	view, err := h.service.SearchAndSetPrimary(r.Context(), req.Name)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: view})
}

// ReportGeolocation applies the client's geolocation outcome.
func (h *DashboardHandler) ReportGeolocation(w http.ResponseWriter, r *http.Request) {
	var req geolocationRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	view, err := h.service.ResolveGeolocation(r.Context(), dashboard.GeolocationOutcome{
		Status:    dashboard.GeolocationStatus(req.Status),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: view})
}

// AddCity appends a city to the watchlist.
func (h *DashboardHandler) AddCity(w http.ResponseWriter, r *http.Request) {
	var req cityNameRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	view, err := h.service.AddCity(r.Context(), req.Name)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: view})
}

// RemoveCity deletes a watchlist entry. An unknown id still succeeds; the
// removal is a no-op by design.
func (h *DashboardHandler) RemoveCity(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cityID(w, r)
	if !ok {
		return
	}

	view, err := h.service.RemoveCity(r.Context(), id)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: view})
}

// RetryCity re-runs the weather fetch for one watchlist entry.
func (h *DashboardHandler) RetryCity(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cityID(w, r)
	if !ok {
		return
	}

	view, err := h.service.RetryCity(r.Context(), id)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: view})
}

// Refresh refetches the primary location and the whole watchlist.
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.RefreshAll(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: view})
}

// Suggestions serves the add-box autocomplete.
func (h *DashboardHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Data: suggestionsResponse{Suggestions: h.service.Suggest(q)},
	})
}

// cityID parses the {cityID} URL parameter. Writes a 400 and returns false
// when the parameter is not an integer.
func (h *DashboardHandler) cityID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "cityID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		core.Error(w, r, invalidCityIDError(raw, err))
		return 0, false
	}
	return id, true
}
