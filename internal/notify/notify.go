// Package notify delivers rendered digests: by email, to a local file, to a
// Slack channel or as a Pub/Sub event.
package notify

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/homescout/homescout/internal/digest"
)

// Notifier delivers a digest.
type Notifier interface {
	Notify(ctx context.Context, d *digest.Digest) error
}

// Multi fans a digest out to several notifiers. Every notifier is tried;
// the errors are joined.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, d *digest.Digest) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log only logs the digest summary. It stands in when no delivery is configured.
type Log struct {
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (l Log) Notify(_ context.Context, d *digest.Digest) error {
	l.Logger.Info().
		Str("run_id", d.RunID).
		Int("properties", len(d.Properties)).
		Msg("digest not delivered: no delivery configured")
	return nil
}
