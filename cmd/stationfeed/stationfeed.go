package main

import (
	"os"
	"time"

	"github.com/right-track/right-track-agency-lirr/pkg/api"
	"github.com/right-track/right-track-agency-lirr/pkg/dataaggregator/global"
	"github.com/right-track/right-track-agency-lirr/pkg/dataimporter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	if os.Getenv("STATIONFEED_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("STATIONFEED_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "stationfeed",
		Description: "Live LIRR station departure feeds built from GTFS-RT and departure boards",

		Commands: []*cli.Command{
			api.RegisterCLI(),
			global.RegisterCLI(),
			dataimporter.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
