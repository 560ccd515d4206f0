// Package main provides the homescout command line tool.
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

// Version is set at compile time via ldflags.
var Version = "dev"

func main() {
	if os.Getenv("HOMESCOUT_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if os.Getenv("HOMESCOUT_DEBUG") == "true" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:    "homescout",
		Usage:   "Property listings with their public-transport commute",
		Version: Version,

		Commands: []*cli.Command{
			digestCommand(),
			journeyCommand(),
			areasCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}
