package core

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// healthCheckTimeout bounds each individual probe.
const healthCheckTimeout = 5 * time.Second

// HealthProbe is implemented by dependencies that can report their health
// (the persistence store, upstream clients).
type HealthProbe interface {
	// Name identifies the probe in the health response.
	Name() string
	// CheckHealth returns nil when the dependency is usable.
	CheckHealth(ctx context.Context) error
}

// healthStatus is the per-probe result in the health response.
type healthStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status      string                  `json:"status"`
	Version     string                  `json:"version"`
	Environment string                  `json:"environment"`
	Checks      map[string]healthStatus `json:"checks,omitempty"`
}

// HandleHealth runs all registered probes concurrently and reports aggregate
// health. Returns 200 when every probe passes, 503 otherwise.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := make(map[string]healthStatus, len(s.HealthProbes))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, probe := range s.HealthProbes {
		probe := probe
		wg.Add(1)
		go func() {
			defer wg.Done()
			status := healthStatus{Status: "ok"}
			if err := probe.CheckHealth(ctx); err != nil {
				status = healthStatus{Status: "unhealthy", Error: err.Error()}
			}
			mu.Lock()
			checks[probe.Name()] = status
			mu.Unlock()
		}()
	}
	wg.Wait()

	resp := healthResponse{
		Status:      "ok",
		Version:     s.Config.Build.Version,
		Environment: s.Config.Environment,
		Checks:      checks,
	}

	code := http.StatusOK
	for _, c := range checks {
		if c.Status != "ok" {
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
			break
		}
	}

	JSON(w, r, code, resp)
}
