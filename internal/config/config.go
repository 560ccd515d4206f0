// Package config loads runtime settings from the environment and search
// profiles from TOML files.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the process configuration.
type Config struct {
	Env   string
	Port  string
	Debug bool

	// RequireTLS rejects API requests forwarded over plain HTTP.
	RequireTLS bool

	// ProfilePath is the TOML search profile. Empty uses DefaultProfile.
	ProfilePath string

	BooliBaseURL         string
	SkanetrafikenBaseURL string
	HTTPTimeout          time.Duration

	// DigestConcurrency bounds the listings enriched at once.
	DigestConcurrency int

	// DigestInterval is the worker schedule. Zero disables scheduled runs.
	DigestInterval time.Duration

	// DigestRunOnStart makes the worker run once at startup.
	DigestRunOnStart bool

	SMTP  SMTPConfig
	Email EmailConfig
	Slack SlackConfig

	OTelEnabled  bool
	OTelEndpoint string

	PubSub PubSubConfig
}

// SMTPConfig holds outbound mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Secure   bool
	User     string
	Password string
}

// EmailConfig holds digest email envelope settings.
type EmailConfig struct {
	From    string
	To      string
	Subject string
}

// SlackConfig holds Slack delivery settings. An empty Token disables Slack.
type SlackConfig struct {
	Token   string
	Channel string
}

// PubSubConfig holds Pub/Sub settings. An empty ProjectID disables Pub/Sub.
type PubSubConfig struct {
	ProjectID    string
	Topic        string
	Subscription string
}

// LoadProfile returns the profile at ProfilePath, or DefaultProfile when unset.
func (c Config) LoadProfile() (Profile, error) {
	if c.ProfilePath == "" {
		return DefaultProfile(), nil
	}
	return LoadProfile(c.ProfilePath)
}

// EmailConfigured reports whether SMTP delivery can be attempted.
func (c Config) EmailConfigured() bool {
	return c.SMTP.Host != "" && c.Email.To != ""
}

// FromEnv creates a Config from environment variables.
func FromEnv() Config {
	smtpPort, _ := strconv.Atoi(getEnvOrDefault("SMTP_PORT", "587"))
	concurrency, _ := strconv.Atoi(getEnvOrDefault("DIGEST_CONCURRENCY", "4"))
	if concurrency < 1 {
		concurrency = 1
	}
	timeout, err := time.ParseDuration(getEnvOrDefault("HTTP_TIMEOUT", "30s"))
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Second
	}
	interval, err := time.ParseDuration(getEnvOrDefault("DIGEST_INTERVAL", "24h"))
	if err != nil || interval < 0 {
		interval = 24 * time.Hour
	}

	return Config{
		Env:   getEnvOrDefault("APP_ENV", "development"),
		Port:  getEnvOrDefault("APP_PORT", "8080"),
		Debug: os.Getenv("DEBUG") == "true",

		RequireTLS:  os.Getenv("REQUIRE_TLS") == "true",
		ProfilePath: os.Getenv("HOMESCOUT_PROFILE"),

		BooliBaseURL:         os.Getenv("BOOLI_BASE_URL"),
		SkanetrafikenBaseURL: os.Getenv("SKANETRAFIKEN_BASE_URL"),
		HTTPTimeout:          timeout,
		DigestConcurrency:    concurrency,
		DigestInterval:       interval,
		DigestRunOnStart:     os.Getenv("DIGEST_RUN_ON_START") == "true",

		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     smtpPort,
			Secure:   os.Getenv("SMTP_SECURE") == "true",
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
		},
		Email: EmailConfig{
			From:    os.Getenv("EMAIL_FROM"),
			To:      os.Getenv("EMAIL_TO"),
			Subject: getEnvOrDefault("EMAIL_SUBJECT", "New Properties in Skåne"),
		},

		Slack: SlackConfig{
			Token:   os.Getenv("SLACK_TOKEN"),
			Channel: getEnvOrDefault("SLACK_CHANNEL", "#homescout"),
		},

		OTelEnabled:  os.Getenv("OTEL_ENABLED") == "true",
		OTelEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		PubSub: PubSubConfig{
			ProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
			Topic:        getEnvOrDefault("PUBSUB_TOPIC", "homescout-digests"),
			Subscription: getEnvOrDefault("PUBSUB_SUBSCRIPTION", "homescout-digest-runs"),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
