package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nlopes/slack"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/homescout/homescout/internal/config"
	"github.com/homescout/homescout/internal/digest"
	"github.com/homescout/homescout/internal/notify"
	"github.com/homescout/homescout/internal/transit"
)

func sampleDigest() *digest.Digest {
	return &digest.Digest{
		RunID:       "run-42",
		GeneratedAt: time.Date(2025, 12, 23, 17, 35, 1, 250_000_000, time.UTC),
		Profile:     config.DefaultProfile(),
		AreaID:      "2",
		TotalCount:  2,
		Properties: []digest.Property{
			{
				ID:         "101",
				Address:    "Strandvägen 4",
				Type:       "Villa",
				Location:   "Höllviken, Vellinge",
				Price:      "4 950 000 kr",
				URL:        "https://www.booli.se/annons/101",
				ImageURL:   "https://bcdn.se/images/cache/555_420x0.jpg",
				TravelTime: "47m",
				Journey:    &transit.JourneyTime{TotalMinutes: 47, Minutes: 47, Formatted: "47m"},
				Image: &digest.Image{
					Data:        []byte("jpeg-bytes"),
					ContentType: "image/jpeg",
					CID:         "property-101",
					Filename:    "property-101.jpg",
				},
			},
			{
				ID:         "102",
				Address:    "Backen 2",
				Type:       "Fritidshus",
				Price:      "N/A",
				URL:        "https://www.booli.se/annons/102",
				TravelTime: "N/A",
			},
		},
	}
}

type fakeSender struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeSender) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	f.sent = append(f.sent, messages...)
	return f.err
}

func emailNotifier(sender notify.Sender, host, to string) *notify.EmailNotifier {
	return notify.NewEmailNotifier(notify.EmailConfig{
		SMTP: config.SMTPConfig{Host: host, Port: 587},
		Email: config.EmailConfig{
			From:    "homescout@example.com",
			To:      to,
			Subject: "New Properties in Skåne",
		},
		Sender: sender,
		Logger: zerolog.Nop(),
	})
}

func TestEmailNotifier_Sends(t *testing.T) {
	sender := &fakeSender{}
	n := emailNotifier(sender, "smtp.example.com", "buyer@example.com")

	require.NoError(t, n.Notify(context.Background(), sampleDigest()))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	recipients, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"buyer@example.com"}, recipients)
	assert.Len(t, msg.GetEmbeds(), 1)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "property-101")
	assert.Contains(t, buf.String(), "text/html")
}

func TestEmailNotifier_SkipsWithoutConfiguration(t *testing.T) {
	tests := []struct {
		name string
		host string
		to   string
	}{
		{"no host", "", "buyer@example.com"},
		{"no recipient", "smtp.example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			require.NoError(t, emailNotifier(sender, tt.host, tt.to).Notify(context.Background(), sampleDigest()))
			assert.Empty(t, sender.sent)
		})
	}
}

func TestEmailNotifier_SkipsEmptyDigest(t *testing.T) {
	sender := &fakeSender{}
	d := sampleDigest()
	d.Properties = nil

	require.NoError(t, emailNotifier(sender, "smtp.example.com", "buyer@example.com").Notify(context.Background(), d))
	assert.Empty(t, sender.sent)
}

func TestEmailNotifier_SendError(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection refused")}

	err := emailNotifier(sender, "smtp.example.com", "buyer@example.com").Notify(context.Background(), sampleDigest())
	assert.ErrorContains(t, err, "connection refused")
}

func TestEmailNotifier_InvalidSender(t *testing.T) {
	n := notify.NewEmailNotifier(notify.EmailConfig{
		SMTP:   config.SMTPConfig{Host: "smtp.example.com"},
		Email:  config.EmailConfig{From: "not an address", To: "buyer@example.com"},
		Sender: &fakeSender{},
		Logger: zerolog.Nop(),
	})

	_, err := n.BuildMessage(sampleDigest())
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	got := notify.Filename(time.Date(2025, 12, 23, 17, 35, 1, 250_000_000, time.UTC))
	assert.Equal(t, "property-email-2025-12-23T17-35-01-250Z.html", got)
}

func TestFileNotifier(t *testing.T) {
	dir := t.TempDir()
	d := sampleDigest()

	require.NoError(t, notify.FileNotifier{Dir: dir, Logger: zerolog.Nop()}.Notify(context.Background(), d))

	data, err := os.ReadFile(filepath.Join(dir, notify.Filename(d.GeneratedAt)))
	require.NoError(t, err)
	assert.Contains(t, string(data), "data:image/jpeg;base64,")
	assert.Contains(t, string(data), "Strandvägen 4")
}

func TestFileNotifier_MissingDir(t *testing.T) {
	err := notify.FileNotifier{Dir: filepath.Join(t.TempDir(), "missing"), Logger: zerolog.Nop()}.
		Notify(context.Background(), sampleDigest())
	assert.Error(t, err)
}

type fakePublisher struct {
	data  []byte
	attrs map[string]string
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, data []byte, attrs map[string]string) (string, error) {
	f.data, f.attrs = data, attrs
	return "msg-1", f.err
}

func TestPubSubNotifier(t *testing.T) {
	pub := &fakePublisher{}

	require.NoError(t, notify.PubSubNotifier{Publisher: pub, Logger: zerolog.Nop()}.Notify(context.Background(), sampleDigest()))

	assert.Equal(t, "digest_completed", pub.attrs["type"])
	assert.Equal(t, "run-42", pub.attrs["run_id"])

	var ev notify.DigestEvent
	require.NoError(t, json.Unmarshal(pub.data, &ev))
	assert.Equal(t, "Skåne län", ev.Area)
	assert.Equal(t, "2", ev.AreaID)
	require.Len(t, ev.Properties, 2)
	require.NotNil(t, ev.Properties[0].TravelMinutes)
	assert.Equal(t, 47, *ev.Properties[0].TravelMinutes)
	assert.Nil(t, ev.Properties[1].TravelMinutes)
	assert.Equal(t, "N/A", ev.Properties[1].TravelTime)
}

func TestPubSubNotifier_Error(t *testing.T) {
	pub := &fakePublisher{err: errors.New("topic not found")}

	err := notify.PubSubNotifier{Publisher: pub, Logger: zerolog.Nop()}.Notify(context.Background(), sampleDigest())
	assert.ErrorContains(t, err, "topic not found")
}

type countingNotifier struct {
	calls int
	err   error
}

func (c *countingNotifier) Notify(context.Context, *digest.Digest) error {
	c.calls++
	return c.err
}

func TestMulti(t *testing.T) {
	failing := &countingNotifier{err: errors.New("smtp down")}
	ok := &countingNotifier{}

	err := notify.Multi{failing, ok}.Notify(context.Background(), sampleDigest())

	assert.ErrorContains(t, err, "smtp down")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls, "later notifiers run after a failure")
}

type fakePoster struct {
	channel string
	calls   int
	err     error
}

func (f *fakePoster) PostMessageContext(_ context.Context, channelID string, _ ...slack.MsgOption) (string, string, error) {
	f.calls++
	f.channel = channelID
	return channelID, "1700000000.000100", f.err
}

func TestSlackMessage(t *testing.T) {
	text, attachments := notify.SlackMessage(sampleDigest())

	assert.Contains(t, text, "2 of 2 listings in Skåne län")
	require.Len(t, attachments, 2)
	assert.Equal(t, "Strandvägen 4", attachments[0].Title)
	assert.Equal(t, "https://www.booli.se/annons/101", attachments[0].TitleLink)
	assert.Equal(t, "https://bcdn.se/images/cache/555_420x0.jpg", attachments[0].ThumbURL)
	require.Len(t, attachments[1].Fields, 3)
	assert.Equal(t, "N/A", attachments[1].Fields[2].Value)
}

func TestSlackMessage_CapsAttachments(t *testing.T) {
	d := sampleDigest()
	for len(d.Properties) < 25 {
		d.Properties = append(d.Properties, d.Properties[1])
	}
	d.TotalCount = 25

	text, attachments := notify.SlackMessage(d)
	assert.Len(t, attachments, 20)
	assert.Contains(t, text, "showing first 20")
}

func TestSlackNotifier(t *testing.T) {
	poster := &fakePoster{}
	n := notify.NewSlackNotifierWithPoster(poster, "#homes", zerolog.Nop())

	require.NoError(t, n.Notify(context.Background(), sampleDigest()))
	assert.Equal(t, 1, poster.calls)
	assert.Equal(t, "#homes", poster.channel)

	empty := sampleDigest()
	empty.Properties = nil
	require.NoError(t, n.Notify(context.Background(), empty))
	assert.Equal(t, 1, poster.calls, "empty digests are not posted")

	poster.err = errors.New("channel_not_found")
	assert.ErrorContains(t, n.Notify(context.Background(), sampleDigest()), "posting slack message: channel_not_found")
}
