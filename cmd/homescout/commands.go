package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/homescout/homescout/internal/config"
	"github.com/homescout/homescout/internal/digest"
	"github.com/homescout/homescout/internal/listing/booli"
	"github.com/homescout/homescout/internal/notify"
	"github.com/homescout/homescout/internal/provider/resilience"
	"github.com/homescout/homescout/internal/report"
	"github.com/homescout/homescout/internal/transit"
	"github.com/homescout/homescout/internal/transit/skanetrafiken"
)

func newBooli(cfg config.Config) *booli.Client {
	return booli.NewClient(booli.ClientConfig{
		BaseURL: cfg.BooliBaseURL,
		Timeout: cfg.HTTPTimeout,
		Logger:  log.Logger,
	})
}

func newSkanetrafiken(cfg config.Config) *skanetrafiken.Client {
	breaker := resilience.PerListingCircuitBreakerConfig(skanetrafiken.ProviderName)
	return skanetrafiken.NewClient(skanetrafiken.ClientConfig{
		BaseURL:        cfg.SkanetrafikenBaseURL,
		Timeout:        cfg.HTTPTimeout,
		CircuitBreaker: &breaker,
		Logger:         log.Logger,
	})
}

// newImageClient downloads listing images through its own breaker, so a
// failing CDN does not trip the listing provider.
func newImageClient(cfg config.Config) *resilience.Client {
	clientCfg := resilience.DefaultClientConfig("images")
	clientCfg.Timeout = cfg.HTTPTimeout
	return resilience.NewClient(clientCfg)
}

// deliveryNotifiers returns the configured channels, or a log line when none is.
func deliveryNotifiers(cfg config.Config) notify.Multi {
	var notifiers notify.Multi
	if cfg.EmailConfigured() {
		notifiers = append(notifiers, notify.NewEmailNotifier(notify.EmailConfig{
			SMTP:   cfg.SMTP,
			Email:  cfg.Email,
			Logger: log.Logger,
		}))
	}
	if cfg.Slack.Token != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(cfg.Slack.Token, cfg.Slack.Channel, log.Logger))
	}
	if len(notifiers) == 0 {
		notifiers = notify.Multi{notify.Log{Logger: log.Logger}}
	}
	return notifiers
}

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:  "digest",
		Usage: "Search listings, compute commutes and deliver the digest",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "profile",
				Usage:   "search profile TOML file",
				EnvVars: []string{"HOMESCOUT_PROFILE"},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "write the digest to an HTML file instead of sending email",
				EnvVars: []string{"DEBUG"},
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "directory for the debug HTML file",
				Value: ".",
			},
		},
		Action: func(c *cli.Context) error {
			cfg := config.FromEnv()
			cfg.ProfilePath = c.String("profile")

			profile, err := cfg.LoadProfile()
			if err != nil {
				return err
			}

			service := digest.NewService(digest.ServiceConfig{
				Listings:    newBooli(cfg),
				Transit:     newSkanetrafiken(cfg),
				Images:      newImageClient(cfg),
				Concurrency: cfg.DigestConcurrency,
				Logger:      log.Logger,
			})

			var notifier notify.Notifier
			if c.Bool("debug") {
				notifier = notify.FileNotifier{Dir: c.String("out"), Logger: log.Logger}
			} else {
				notifier = deliveryNotifiers(cfg)
			}

			d, err := service.Run(c.Context, profile)
			if err != nil {
				return err
			}
			return notifier.Notify(c.Context, d)
		},
	}
}

func journeyCommand() *cli.Command {
	return &cli.Command{
		Name:      "journey",
		Usage:     "Print every journey between two places",
		ArgsUsage: "<from> <to> [departure]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "arrival",
				Usage: "treat departure as the latest arrival time",
			},
			&cli.StringFlag{
				Name:  "tz",
				Usage: "time zone of the departure argument and the report",
				Value: "Europe/Stockholm",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return cli.Exit("journey needs <from> and <to>", 2)
			}

			loc, err := time.LoadLocation(c.String("tz"))
			if err != nil {
				return fmt.Errorf("loading time zone: %w", err)
			}

			var departure time.Time
			if raw := c.Args().Get(2); raw != "" {
				departure, err = parseDeparture(raw, loc)
				if err != nil {
					return cli.Exit(err.Error(), 2)
				}
			}

			client := newSkanetrafiken(config.FromEnv())

			from, fromRef, err := transit.ResolvePoint(c.Context, client, c.Args().Get(0))
			if err != nil {
				return fmt.Errorf("resolving origin: %w", err)
			}
			to, toRef, err := transit.ResolvePoint(c.Context, client, c.Args().Get(1))
			if err != nil {
				return fmt.Errorf("resolving destination: %w", err)
			}

			plan, err := client.PlanJourney(c.Context, transit.JourneyRequest{
				From:      fromRef,
				To:        toRef,
				Departure: departure,
				Arrival:   c.Bool("arrival"),
			})
			if err != nil {
				return err
			}

			return report.Journeys(os.Stdout, plan, from.Name, to.Name, loc)
		},
	}
}

// parseDeparture accepts RFC3339 or a wall-clock time in loc.
func parseDeparture(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid departure %q: use RFC3339 or YYYY-MM-DDTHH:MM", raw)
}

func areasCommand() *cli.Command {
	return &cli.Command{
		Name:      "areas",
		Usage:     "List area suggestions for a place name",
		ArgsUsage: "<term>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "type",
				Usage: "print only the id of the first suggestion of this type",
			},
		},
		Action: func(c *cli.Context) error {
			term := c.Args().First()
			if term == "" {
				return cli.Exit("areas needs a <term>", 2)
			}

			suggestions, err := newBooli(config.FromEnv()).SearchArea(c.Context, term)
			if err != nil {
				return err
			}

			if areaType := c.String("type"); areaType != "" {
				id, ok := booli.PickArea(suggestions, areaType)
				if !ok {
					return cli.Exit(fmt.Sprintf("no %s area matches %q", areaType, term), 1)
				}
				fmt.Fprintln(c.App.Writer, id)
				return nil
			}

			for _, s := range suggestions {
				fmt.Fprintf(c.App.Writer, "%-10s %-12s %s\n", s.ID, s.Type, s.DisplayName)
			}
			return nil
		},
	}
}
