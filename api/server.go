/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/users/*        User lookups, balances, schedules, submissions
  /api/requests/*     Request decisions (approve/reject/cancel/revoke)
  /api/leave-types    Leave type catalogue
  /api/holidays       Company holiday calendar
  /api/admin/*        Adjustments, carry-over batch, schedules, holidays

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// User routes
		r.Route("/users", func(r chi.Router) {
			r.Get("/{id}", h.GetUser)
			r.Get("/{id}/balance", h.GetBalance)
			r.Get("/{id}/requests", h.ListRequests)
			r.Get("/{id}/schedule", h.GetSchedule)
			r.Post("/{id}/requests", h.SubmitRequest)
		})

		// Request decision routes
		r.Route("/requests", func(r chi.Router) {
			r.Get("/{id}", h.GetRequest)
			r.Post("/{id}/approve", h.ApproveRequest)
			r.Post("/{id}/reject", h.RejectRequest)
			r.Post("/{id}/cancel", h.CancelRequest)
			r.Post("/{id}/revoke", h.StartRevoke)
			r.Post("/{id}/revoke/confirm", h.ConfirmRevoke)
		})

		// Leave type routes
		r.Get("/leave-types", h.ListLeaveTypes)

		// Holiday calendar
		r.Get("/holidays", h.ListHolidays)

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/adjustments", h.CreateAdjustment)
			r.Post("/carryover", h.TriggerCarryOver)
			r.Put("/schedules", h.SetSchedule)
			r.Delete("/schedules/{userID}", h.DeleteSchedule)
			r.Post("/holidays", h.CreateHoliday)
			r.Delete("/holidays/{companyID}/{date}", h.DeleteHoliday)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
