package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// TriggerMessage is a job message on the trigger subscription.
type TriggerMessage struct {
	JobType string `json:"job_type"`

	// Optional overrides of the configured profile for digest_run.
	Area     string `json:"area,omitempty"`
	AreaType string `json:"area_type,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// HealthChecker verifies provider connectivity.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// Dispatcher routes trigger messages to jobs.
type Dispatcher struct {
	job    *DigestJob
	health HealthChecker
	logger zerolog.Logger
}

// NewDispatcher creates a dispatcher. health may be nil, in which case
// health_check messages are acknowledged without a check.
func NewDispatcher(job *DigestJob, health HealthChecker, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{job: job, health: health, logger: logger}
}

// Handle processes one message payload. A nil return means the message
// should be acknowledged; an error means it should be redelivered.
// Malformed and unknown messages are acknowledged so they are not retried.
func (d *Dispatcher) Handle(ctx context.Context, data []byte) error {
	var msg TriggerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		d.logger.Error().Err(err).Msg("dropping malformed message")
		return nil
	}

	switch msg.JobType {
	case JobTypeDigestRun:
		return d.handleDigestRun(ctx, msg)
	case JobTypeHealthCheck:
		return d.handleHealthCheck(ctx)
	default:
		d.logger.Warn().Str("job_type", msg.JobType).Msg("unknown job type")
		return nil
	}
}

func (d *Dispatcher) handleDigestRun(ctx context.Context, msg TriggerMessage) error {
	profile := d.job.Profile()
	if msg.Area != "" {
		profile.Area = msg.Area
		profile.AreaType = msg.AreaType
	}
	if msg.Limit > 0 {
		profile.Limit = msg.Limit
	}

	_, err := d.job.RunProfile(ctx, TriggerPubSub, profile)
	if errors.Is(err, ErrRunInProgress) {
		return nil
	}
	return err
}

func (d *Dispatcher) handleHealthCheck(ctx context.Context) error {
	if d.health == nil {
		return nil
	}
	if err := d.health.Check(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// PubSubHandler receives trigger messages from a Pub/Sub subscription.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	dispatcher       *Dispatcher
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	Client           *pubsub.Client
	SubscriptionName string
	Dispatcher       *Dispatcher
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(cfg PubSubConfig) *PubSubHandler {
	subscriber := cfg.Client.Subscriber(cfg.SubscriptionName)

	// Digest runs are long and must not overlap.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 1
	subscriber.ReceiveSettings.MaxExtension = DefaultJobTimeout + time.Minute

	return &PubSubHandler{
		client:           cfg.Client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		dispatcher:       cfg.Dispatcher,
		logger:           cfg.Logger,
	}
}

// Start begins processing Pub/Sub messages. It blocks until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	if err := h.dispatcher.Handle(ctx, msg.Data); err != nil {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}

	logger.Info().
		Dur("duration", time.Since(startTime)).
		Msg("message handled")
	msg.Ack()
}
