// Package main provides the entrypoint for the homescout digest worker.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/homescout/homescout/internal/config"
	"github.com/homescout/homescout/internal/digest"
	"github.com/homescout/homescout/internal/listing/booli"
	"github.com/homescout/homescout/internal/notify"
	"github.com/homescout/homescout/internal/provider/resilience"
	"github.com/homescout/homescout/internal/telemetry"
	"github.com/homescout/homescout/internal/transit/skanetrafiken"
	"github.com/homescout/homescout/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "homescout-worker"

	cfg := config.FromEnv()

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}

	log := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Dur("interval", cfg.DigestInterval).
		Msg("starting homescout worker")

	profile, err := cfg.LoadProfile()
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ProfilePath).Msg("failed to load search profile")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	digestMetrics, err := telemetry.NewDigestMetrics(tp.Meter)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

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

	imageCfg := resilience.DefaultClientConfig("images")
	imageCfg.Timeout = cfg.HTTPTimeout
	imageCfg.Registry = registry

	service := digest.NewService(digest.ServiceConfig{
		Listings:    listings,
		Transit:     planner,
		Images:      resilience.NewClient(imageCfg),
		Concurrency: cfg.DigestConcurrency,
		Logger:      log,
	})

	var notifiers notify.Multi
	if cfg.EmailConfigured() {
		notifiers = append(notifiers, notify.NewEmailNotifier(notify.EmailConfig{
			SMTP:   cfg.SMTP,
			Email:  cfg.Email,
			Logger: log,
		}))
	}
	if cfg.Slack.Token != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(cfg.Slack.Token, cfg.Slack.Channel, log))
	}
	if len(notifiers) == 0 {
		notifiers = notify.Multi{notify.Log{Logger: log}}
	}

	var psClient *pubsub.Client
	if cfg.PubSub.ProjectID != "" {
		psClient, err = pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub client")
		}
		defer psClient.Close()

		publisher := notify.NewTopicPublisher(psClient, cfg.PubSub.Topic)
		defer publisher.Stop()
		notifiers = append(notifiers, notify.PubSubNotifier{Publisher: publisher, Logger: log})
	}

	job := worker.NewDigestJob(worker.DigestJobConfig{
		Runner:   service,
		Notifier: notifiers,
		Profile:  profile,
		Metrics:  digestMetrics,
		Logger:   log,
	})

	scheduler := worker.NewScheduler(job, worker.ScheduleConfig{
		Interval:   cfg.DigestInterval,
		RunOnStart: cfg.DigestRunOnStart,
	}, log)

	// Health endpoint for Cloud Run.
	router := chi.NewRouter()
	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		providers := map[string]string{}
		for _, h := range registry.GetAllHealth() {
			providers[h.Name] = h.CircuitState.String()
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "healthy",
			"version":   Version,
			"job":       job.StatsSnapshot(),
			"providers": providers,
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	var wg conc.WaitGroup

	wg.Go(func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	})

	wg.Go(func() { scheduler.Start(ctx) })

	if psClient != nil {
		handler := worker.NewPubSubHandler(worker.PubSubConfig{
			Client:           psClient,
			SubscriptionName: cfg.PubSub.Subscription,
			Dispatcher:       worker.NewDispatcher(job, worker.NewProviderCheck(listings, planner, profile, log), log),
			Logger:           log,
		})
		wg.Go(func() {
			if err := handler.Start(ctx); err != nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		})
	}

	<-ctx.Done()
	log.Info().Msg("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	wg.Wait()
	log.Info().Msg("worker stopped")
}
