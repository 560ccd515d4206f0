// Package api provides the homescout preview HTTP API.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/homescout/homescout/internal/api/handler"
	"github.com/homescout/homescout/internal/api/middleware"
	"github.com/homescout/homescout/internal/config"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Metrics   *middleware.Metrics

	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool

	Providers handler.ProviderHealthSource
	Areas     handler.AreaSearcher
	Journeys  handler.JourneyPlanner
	Digests   handler.DigestRunner

	// Profile is the search previewed by /v1/digest/preview.
	Profile config.Profile
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Providers)
	areaHandler := handler.NewAreaHandler(cfg.Areas, cfg.Logger)
	journeyHandler := handler.NewJourneyHandler(cfg.Journeys, cfg.Logger)
	digestHandler := handler.NewDigestHandler(cfg.Digests, cfg.Profile, cfg.Logger)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.With(middleware.RateLimitByIP(middleware.StandardRateLimit)).Get("/areas", areaHandler.SearchAreas)
		r.With(middleware.RateLimitByIP(middleware.ExpensiveRateLimit)).Get("/journeys", journeyHandler.PlanJourneys)
		r.With(middleware.RateLimitByIP(middleware.PreviewRateLimit)).Get("/digest/preview", digestHandler.Preview)
	})

	return r
}
