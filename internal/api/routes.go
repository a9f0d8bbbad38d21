package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/lunisolar-api/internal/config"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET  /health
//	GET  /api/v1/convert                      ?date=&time=&tz= or ?ts=&offset=
//	POST /api/v1/convert/batch
//	GET  /api/v1/years/{year}/months
//	GET  /api/v1/years/{year}/terms
//	GET  /api/v1/years/{year}/calendar.ics
//	GET  /api/v1/admin/events                 admin key
//	POST /api/v1/admin/events?start=&end=     admin key
func SetupRoutes(handlers *Handlers, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		RequestIDMiddleware(),
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED")
	})

	// ==========================================================================
	// Public routes
	// ==========================================================================
	r.Get("/health", handlers.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/convert", handlers.Convert)
		r.Post("/convert/batch", handlers.ConvertBatch)

		r.Route("/years/{year}", func(r chi.Router) {
			r.Get("/months", handlers.YearMonths)
			r.Get("/terms", handlers.YearTerms)
			r.Get("/calendar.ics", handlers.YearCalendar)
		})

		// ======================================================================
		// Admin routes (admin key only)
		// ======================================================================
		r.Group(func(r chi.Router) {
			r.Use(AdminOnlyMiddleware(cfg, logger))
			r.Get("/admin/events", handlers.EventCoverage)
			r.Post("/admin/events", handlers.PrecomputeEvents)
		})
	})

	return r
}
