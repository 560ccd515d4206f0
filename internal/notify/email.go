package notify

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/homescout/homescout/internal/config"
	"github.com/homescout/homescout/internal/digest"
)

// Sender sends prepared messages. *mail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// EmailConfig holds configuration for the email notifier.
type EmailConfig struct {
	SMTP  config.SMTPConfig
	Email config.EmailConfig

	// Sender overrides the SMTP client built from SMTP (optional).
	Sender Sender

	Logger zerolog.Logger
}

// EmailNotifier sends the digest as an HTML email with the listing images
// attached inline.
type EmailNotifier struct {
	smtp   config.SMTPConfig
	email  config.EmailConfig
	sender Sender
	logger zerolog.Logger
}

// NewEmailNotifier creates an email notifier.
func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	return &EmailNotifier{
		smtp:   cfg.SMTP,
		email:  cfg.Email,
		sender: cfg.Sender,
		logger: cfg.Logger,
	}
}

// Notify implements Notifier. Without an SMTP host or recipient the digest is
// skipped with a log line. Empty digests are not sent.
func (n *EmailNotifier) Notify(ctx context.Context, d *digest.Digest) error {
	if len(d.Properties) == 0 {
		n.logger.Info().Str("run_id", d.RunID).Msg("no properties found, email not sent")
		return nil
	}
	if n.smtp.Host == "" || n.email.To == "" {
		n.logger.Warn().Str("run_id", d.RunID).Msg("email not sent: SMTP host or recipient not configured")
		return nil
	}

	msg, err := n.BuildMessage(d)
	if err != nil {
		return err
	}

	sender := n.sender
	if sender == nil {
		client, err := n.newClient()
		if err != nil {
			return err
		}
		sender = client
	}

	if err := sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	n.logger.Info().
		Str("run_id", d.RunID).
		Str("to", n.email.To).
		Int("attachments", len(d.Images())).
		Msg("digest email sent")

	return nil
}

// BuildMessage renders the digest into a message with inline images.
func (n *EmailNotifier) BuildMessage(d *digest.Digest) (*mail.Msg, error) {
	html, err := digest.Render(d, digest.ImagesAttached)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(n.email.From); err != nil {
		return nil, fmt.Errorf("setting sender: %w", err)
	}
	if err := msg.To(n.email.To); err != nil {
		return nil, fmt.Errorf("setting recipient: %w", err)
	}
	msg.Subject(n.email.Subject)
	msg.SetBodyString(mail.TypeTextHTML, string(html))

	for _, img := range d.Images() {
		if err := msg.EmbedReader(img.Filename, bytes.NewReader(img.Data),
			mail.WithFileContentID(img.CID),
			mail.WithFileContentType(mail.ContentType(img.ContentType)),
		); err != nil {
			return nil, fmt.Errorf("embedding %s: %w", img.Filename, err)
		}
	}

	return msg, nil
}

func (n *EmailNotifier) newClient() (*mail.Client, error) {
	opts := []mail.Option{mail.WithPort(n.smtp.Port)}
	if n.smtp.Secure {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if n.smtp.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.smtp.User),
			mail.WithPassword(n.smtp.Password),
		)
	}

	client, err := mail.NewClient(n.smtp.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating SMTP client: %w", err)
	}
	return client, nil
}
