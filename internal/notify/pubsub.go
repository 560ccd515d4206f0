package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/homescout/homescout/internal/digest"
)

// EventTypeDigestCompleted tags published digest events.
const EventTypeDigestCompleted = "digest_completed"

// Publisher publishes one message and returns its server id.
type Publisher interface {
	Publish(ctx context.Context, data []byte, attributes map[string]string) (string, error)
}

// TopicPublisher publishes to a Pub/Sub topic.
type TopicPublisher struct {
	publisher *pubsub.Publisher
}

// NewTopicPublisher creates a publisher for topic on client.
func NewTopicPublisher(client *pubsub.Client, topic string) *TopicPublisher {
	return &TopicPublisher{publisher: client.Publisher(topic)}
}

// Publish implements Publisher and waits for the server acknowledgement.
func (p *TopicPublisher) Publish(ctx context.Context, data []byte, attributes map[string]string) (string, error) {
	result := p.publisher.Publish(ctx, &pubsub.Message{Data: data, Attributes: attributes})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publishing message: %w", err)
	}
	return id, nil
}

// Stop flushes pending messages.
func (p *TopicPublisher) Stop() {
	p.publisher.Stop()
}

// DigestEvent is the JSON payload published for a digest.
type DigestEvent struct {
	Type        string          `json:"type"`
	RunID       string          `json:"run_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Area        string          `json:"area"`
	AreaID      string          `json:"area_id"`
	TotalCount  int             `json:"total_count"`
	Properties  []PropertyEvent `json:"properties"`
}

// PropertyEvent is one property of a DigestEvent.
type PropertyEvent struct {
	ID            string `json:"id"`
	Address       string `json:"address"`
	Type          string `json:"type"`
	Location      string `json:"location"`
	Price         string `json:"price"`
	URL           string `json:"url"`
	ImageURL      string `json:"image_url,omitempty"`
	TravelTime    string `json:"travel_time"`
	TravelMinutes *int   `json:"travel_minutes,omitempty"`
}

// NewDigestEvent converts a digest to its event form.
func NewDigestEvent(d *digest.Digest) DigestEvent {
	ev := DigestEvent{
		Type:        EventTypeDigestCompleted,
		RunID:       d.RunID,
		GeneratedAt: d.GeneratedAt,
		Area:        d.Profile.Area,
		AreaID:      d.AreaID,
		TotalCount:  d.TotalCount,
		Properties:  make([]PropertyEvent, 0, len(d.Properties)),
	}
	for _, p := range d.Properties {
		pe := PropertyEvent{
			ID:         p.ID,
			Address:    p.Address,
			Type:       p.Type,
			Location:   p.Location,
			Price:      p.Price,
			URL:        p.URL,
			ImageURL:   p.ImageURL,
			TravelTime: p.TravelTime,
		}
		if p.Journey != nil {
			minutes := p.Journey.TotalMinutes
			pe.TravelMinutes = &minutes
		}
		ev.Properties = append(ev.Properties, pe)
	}
	return ev
}

// PubSubNotifier publishes a DigestEvent per digest.
type PubSubNotifier struct {
	Publisher Publisher
	Logger    zerolog.Logger
}

// Notify implements Notifier.
func (n PubSubNotifier) Notify(ctx context.Context, d *digest.Digest) error {
	data, err := json.Marshal(NewDigestEvent(d))
	if err != nil {
		return fmt.Errorf("encoding digest event: %w", err)
	}

	id, err := n.Publisher.Publish(ctx, data, map[string]string{
		"type":   EventTypeDigestCompleted,
		"run_id": d.RunID,
	})
	if err != nil {
		return err
	}

	n.Logger.Info().
		Str("run_id", d.RunID).
		Str("message_id", id).
		Msg("digest event published")

	return nil
}
