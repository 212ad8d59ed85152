/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client IP behind proxies
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for back-office frontends

ROUTE GROUPS:
  /api/units/*        Catalog + capacity windows
  /api/bookings/*     Booking creation and cancellation
  /api/stopsell       Stop-sell rules
  /api/settlements/*  Settlement listing, export, recompute, lifecycle
  /api/reset          Database reset (dev only)

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Catalog routes
		r.Route("/units", func(r chi.Router) {
			r.Get("/", h.ListUnits)
			r.Post("/", h.CreateUnit)
			r.Get("/{id}/capacity", h.GetCapacity)
		})

		// Booking routes
		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", h.CreateBooking)
			r.Post("/{id}/cancel", h.CancelBooking)
		})

		// Stop-sell routes
		r.Post("/stopsell", h.CreateStopSell)

		// Settlement routes
		r.Route("/settlements", func(r chi.Router) {
			r.Get("/", h.ListSettlements)
			r.Get("/export", h.ExportSettlements)
			r.Post("/recompute", h.RecomputeSettlements)
			r.Route("/{agency}/{month}/{currency}", func(r chi.Router) {
				r.Post("/confirm", h.ConfirmSettlement)
				r.Post("/dispute", h.DisputeSettlement)
				r.Post("/reopen", h.ReopenSettlement)
			})
		})

		// Admin routes (dev only)
		r.Post("/reset", h.ResetDatabase)
	})

	return r
}
