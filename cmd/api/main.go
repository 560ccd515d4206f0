// Package main provides the entrypoint for the homescout preview API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/homescout/homescout/internal/api"
	"github.com/homescout/homescout/internal/api/middleware"
	"github.com/homescout/homescout/internal/config"
	"github.com/homescout/homescout/internal/digest"
	"github.com/homescout/homescout/internal/listing/booli"
	"github.com/homescout/homescout/internal/provider/resilience"
	"github.com/homescout/homescout/internal/telemetry"
	"github.com/homescout/homescout/internal/transit/skanetrafiken"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "homescout-api"

	cfg := config.FromEnv()

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting homescout API")

	profile, err := cfg.LoadProfile()
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ProfilePath).Msg("failed to load search profile")
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	tp, err := telemetry.Init(ctx, telemetry.ConfigFrom(cfg, serviceName, Version))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTelEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics(tp.Meter)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Providers share one registry so /v1/ops/status can report them.
	registry := resilience.NewRegistry()

	listings := booli.NewClient(booli.ClientConfig{
		BaseURL:  cfg.BooliBaseURL,
		Timeout:  cfg.HTTPTimeout,
		Registry: registry,
		Logger:   log,
	})

	transitBreaker := resilience.PerListingCircuitBreakerConfig(skanetrafiken.ProviderName)
	planner := skanetrafiken.NewClient(skanetrafiken.ClientConfig{
		BaseURL:        cfg.SkanetrafikenBaseURL,
		Timeout:        cfg.HTTPTimeout,
		Registry:       registry,
		CircuitBreaker: &transitBreaker,
		Logger:         log,
	})

	// The preview page links remote images, so nothing is downloaded.
	digests := digest.NewService(digest.ServiceConfig{
		Listings:    listings,
		Transit:     planner,
		Concurrency: cfg.DigestConcurrency,
		Logger:      log,
	})

	log.Info().
		Int("providers", registry.ProviderCount()).
		Str("area", profile.Area).
		Msg("providers initialized")

	router := api.NewRouter(api.RouterConfig{
		Version:    Version,
		BuildTime:  BuildTime,
		Logger:     log,
		Metrics:    metrics,
		RequireTLS: cfg.RequireTLS,
		Providers:  registry,
		Areas:      listings,
		Journeys:   planner,
		Digests:    digests,
		Profile:    profile,
	})

	// Digest previews enrich many listings, so the write timeout is generous.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
