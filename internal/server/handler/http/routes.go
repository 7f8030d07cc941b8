package http

import (
	"net/http"

	"github.com/atinyakov/hacklearn/internal/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Auth          *AuthHandler
	Catalog       *CatalogHandler
	Calendar      *CalendarHandler
	Progress      *ProgressHandler
	Notifications *NotificationHandler
	Health        *HealthHandler
}

// NewRouter constructs and returns an HTTP handler that serves the API
// under /api and Prometheus metrics under /metrics.
//
// Middleware chain (applied in order):
//  1. RequestID, Recoverer
//  2. CORS for allowedOrigins
//  3. AllowContentType("application/json") for requests with a body
//  4. WithRequestLogging(logger)
//  5. RequireSession on every route that reads or writes user data
func NewRouter(h Handlers, allowedOrigins []string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Get("/health", h.Health.Health)
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.Post("/logout", h.Auth.Logout)
		r.Get("/me", h.Auth.Me)

		r.Get("/machines", h.Catalog.List)
		r.Get("/machines/{id}", h.Catalog.Get)
		r.Get("/machines/by-name/{name}", h.Catalog.ByName)
		r.Get("/roadmaps", h.Progress.Certifications)
		r.Get("/roadmaps/{certID}", h.Progress.Roadmap)
		r.Get("/notifications", h.Notifications.List)
		r.Delete("/notifications/{id}", h.Notifications.Dismiss)

		// Protected group: requires a signed-in user
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(h.Auth.Sessions))

			r.Get("/machines/{id}/status", h.Catalog.Status)
			r.Put("/machines/{id}/status", h.Catalog.SetStatus)
			r.Get("/machines/{id}/notes", h.Catalog.Notes)
			r.Post("/machines/{id}/notes", h.Catalog.AddNote)
			r.Delete("/notes/{noteID}", h.Catalog.DeleteNote)

			r.Get("/stats", h.Catalog.Stats)
			r.Get("/stats/difficulty", h.Catalog.Difficulty)
			r.Get("/stats/solved", h.Catalog.Solved)
			r.Get("/stats/certifications", h.Catalog.Certifications)

			r.Get("/trophies", h.Progress.TrophyList)
			r.Get("/profile/export", h.Progress.Profile)
			r.Put("/roadmaps/{certID}", h.Progress.Toggle)

			r.Route("/calendar", func(r chi.Router) {
				r.Get("/", h.Calendar.Grid)
				r.Post("/reload", h.Calendar.Reload)
				r.Post("/month", h.Calendar.ShiftMonth)
				r.Get("/day", h.Calendar.Day)
				r.Post("/day", h.Calendar.ShiftDay)
				r.Post("/select", h.Calendar.Select)
				r.Post("/entries", h.Calendar.Schedule)
				r.Delete("/entries/{entryID}", h.Calendar.Unschedule)
				r.Get("/upcoming", h.Calendar.Upcoming)
				r.Get("/stats", h.Calendar.Stats)
				r.Get("/export", h.Calendar.Export)
			})
		})
	})

	return r
}
