package core

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes wires the middleware chain and route groups onto the router.
// Middleware order matters:
//
//  1. Recoverer      (outermost; catches panics from everything below)
//  2. ContextTimeout (bounds total request duration)
//  3. RequestID      (correlation; needed by the logger)
//  4. SecurityHeaders
//  5. RequestLogger
//  6. CORS
//
// Call exactly once, after all V1RouteRegistrars and HealthProbes have been
// registered.
func (s *Server) MountRoutes() {
	r := s.router

	r.Use(RecovererMiddleware(s.Logger))
	r.Use(ContextTimeoutMiddleware)
	r.Use(RequestIDMiddleware)
	r.Use(SecurityHeadersMiddleware)
	r.Use(RequestLoggerMiddleware(s.Logger))
	r.Use(CORSMiddleware(s.Config.Server.CorsAllowedOrigins))

	r.Route("/v1", func(v1 chi.Router) {
		for _, register := range s.V1RouteRegistrars {
			register(v1)
		}
	})

	r.Get("/health", s.HandleHealth)
}
