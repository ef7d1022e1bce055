package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/lakespend/lakespend/internal/api/handlers"
	"github.com/lakespend/lakespend/internal/api/middleware"
	"github.com/lakespend/lakespend/internal/config"
	"github.com/lakespend/lakespend/internal/pkg/logger"
	"github.com/lakespend/lakespend/internal/pkg/metrics"
)

type Handlers struct {
	Health     *handlers.HealthHandler
	Auth       *handlers.AuthHandler
	Tags       *handlers.TagsHandler
	Compliance *handlers.ComplianceHandler
	Budget     *handlers.BudgetHandler
}

func New(cfg *config.Config, log *logger.Logger, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.RateLimit(100, 200)) // 100 req/sec, burst of 200
	r.Use(metrics.Middleware)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Get("/swagger/*", httpSwagger.WrapHandler)

		r.Get("/healthz", h.Health.Healthz)
		r.Get("/readyz", h.Health.Readyz)
		r.Handle("/metrics", metrics.Handler())

		if cfg.AuthEnabled() {
			r.Post("/api/v1/auth/token", h.Auth.Token)
		}
	})

	// API routes; bearer auth only when an API key is configured
	r.Group(func(r chi.Router) {
		if cfg.AuthEnabled() {
			r.Use(middleware.Auth(cfg.Auth.JWTSecret))
		}

		r.Route("/api/v1/resources", func(r chi.Router) {
			r.Get("/search", h.Tags.SearchResources)
			r.Get("/{type}", h.Tags.ListResources)
			r.Get("/{type}/{id}/tags", h.Tags.GetTags)
			r.Patch("/{type}/{id}/tags", h.Tags.UpdateTags)
		})

		r.Post("/api/v1/bulk/tags", h.Tags.BulkUpdate)

		r.Route("/api/v1/compliance", func(r chi.Router) {
			r.Get("/report", h.Compliance.GetReport)
			r.Post("/report", h.Compliance.PostReport)
			r.Get("/scans", h.Compliance.ListScans)
			r.Get("/scans/{id}", h.Compliance.GetScan)
		})

		r.Route("/api/v1/budget-policies", func(r chi.Router) {
			r.Get("/", h.Budget.ListPolicies)
			r.Post("/", h.Budget.CreatePolicy)
			r.Get("/{id}", h.Budget.GetPolicy)
			r.Patch("/{id}", h.Budget.UpdatePolicy)
			r.Delete("/{id}", h.Budget.DeletePolicy)
			r.Post("/{id}/apply", h.Budget.ApplyPolicy)
			r.Get("/{id}/resources", h.Budget.PolicyResources)
		})
		r.Get("/api/v1/budget/coverage", h.Budget.Coverage)
	})

	return r
}
