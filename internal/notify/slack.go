package notify

import (
	"context"
	"fmt"

	"github.com/nlopes/slack"
	"github.com/rs/zerolog"

	"github.com/homescout/homescout/internal/digest"
)

// maxSlackAttachments keeps the post readable; the rest is summarised.
const maxSlackAttachments = 20

// SlackPoster posts a chat message. *slack.Client satisfies it.
type SlackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts a digest summary with one attachment per property.
type SlackNotifier struct {
	poster  SlackPoster
	channel string
	logger  zerolog.Logger
}

// NewSlackNotifier creates a notifier posting to channel with a bot token.
func NewSlackNotifier(token, channel string, logger zerolog.Logger) *SlackNotifier {
	return NewSlackNotifierWithPoster(slack.New(token), channel, logger)
}

// NewSlackNotifierWithPoster creates a notifier on an existing poster.
func NewSlackNotifierWithPoster(poster SlackPoster, channel string, logger zerolog.Logger) *SlackNotifier {
	return &SlackNotifier{poster: poster, channel: channel, logger: logger}
}

// Notify implements Notifier. Empty digests are not posted.
func (n *SlackNotifier) Notify(ctx context.Context, d *digest.Digest) error {
	if len(d.Properties) == 0 {
		n.logger.Info().Str("run_id", d.RunID).Msg("no properties found, slack message not sent")
		return nil
	}

	text, attachments := SlackMessage(d)
	_, ts, err := n.poster.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(text, false),
		slack.MsgOptionAttachments(attachments...),
	)
	if err != nil {
		return fmt.Errorf("posting slack message: %w", err)
	}

	n.logger.Info().
		Str("run_id", d.RunID).
		Str("channel", n.channel).
		Str("ts", ts).
		Msg("digest posted to slack")

	return nil
}

// SlackMessage builds the message text and attachments for d.
func SlackMessage(d *digest.Digest) (string, []slack.Attachment) {
	title := d.Profile.Title
	if title == "" {
		title = "New properties"
	}
	text := fmt.Sprintf("*%s*: %d of %d listings in %s", title, len(d.Properties), d.TotalCount, d.Profile.Area)

	shown := d.Properties
	if len(shown) > maxSlackAttachments {
		shown = shown[:maxSlackAttachments]
		text += fmt.Sprintf(" (showing first %d)", maxSlackAttachments)
	}

	origin := d.Profile.OriginLabel
	if origin == "" {
		origin = d.Profile.Origin
	}

	attachments := make([]slack.Attachment, 0, len(shown))
	for _, p := range shown {
		attachments = append(attachments, slack.Attachment{
			Fallback:  p.Address + ", " + p.Price,
			Title:     p.Address,
			TitleLink: p.URL,
			Text:      p.Location,
			ThumbURL:  p.ImageURL,
			Fields: []slack.AttachmentField{
				{Title: "Price", Value: p.Price, Short: true},
				{Title: "Type", Value: p.Type, Short: true},
				{Title: "Travel to " + origin, Value: p.TravelTime, Short: true},
			},
		})
	}
	return text, attachments
}
