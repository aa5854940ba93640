package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/pratik-mahalle/lexaudit/internal/api/docs"
	"github.com/pratik-mahalle/lexaudit/internal/api/handlers"
	"github.com/pratik-mahalle/lexaudit/internal/api/middleware"
	"github.com/pratik-mahalle/lexaudit/internal/auth"
	"github.com/pratik-mahalle/lexaudit/internal/config"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/metrics"
)

type Handlers struct {
	Health        *handlers.HealthHandler
	Compliance    *handlers.ComplianceHandler
	Rules         *handlers.RuleHandler
	Documents     *handlers.DocumentHandler
	Organizations *handlers.OrganizationHandler
	Events        *handlers.EventsHandler
}

func New(cfg *config.Config, log *logger.Logger, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.CleanPath)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(metrics.Middleware)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))

	// Public routes
	r.Group(func(r chi.Router) {
		r.Get("/swagger/*", httpSwagger.WrapHandler)
		r.Handle("/metrics", metrics.Handler())

		r.Get("/health", h.Health.Healthz)
		r.Get("/healthz", h.Health.Healthz)
		r.Get("/readyz", h.Health.Readyz)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))

		// Read access
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleViewer))

			r.Get("/compliance/reports", h.Compliance.ListReports)
			r.Get("/compliance/reports/{id}", h.Compliance.GetReport)

			r.Get("/rules", h.Rules.List)
			r.Get("/rules/frameworks", h.Rules.Frameworks)

			r.Get("/documents", h.Documents.List)
			r.Get("/documents/{id}", h.Documents.Get)
			r.Get("/documents/{id}/results", h.Compliance.ListResults)

			r.Get("/organizations", h.Organizations.List)
			r.Get("/organizations/{id}", h.Organizations.Get)

			r.Get("/events/ws", h.Events.Stream)
		})

		// Validation, reporting and content changes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleAuditor))

			r.Post("/compliance/validate", h.Compliance.Validate)
			r.Post("/compliance/reports", h.Compliance.GenerateReport)
			r.Post("/compliance/predictions", h.Compliance.Predict)

			r.Post("/documents", h.Documents.Create)
			r.Put("/documents/{id}", h.Documents.Update)
			r.Delete("/documents/{id}", h.Documents.Delete)
			r.Post("/documents/{id}/validate", h.Compliance.ValidateStored)

			r.Post("/organizations", h.Organizations.Create)
			r.Put("/organizations/{id}", h.Organizations.Update)
		})

		// Rule registry
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleAdmin))

			r.Post("/rules", h.Rules.Create)
			r.Delete("/rules/{id}", h.Rules.Delete)
		})
	})

	return r
}
