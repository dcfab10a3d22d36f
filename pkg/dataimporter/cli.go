package dataimporter

import (
	"context"
	"time"

	"github.com/right-track/right-track-agency-lirr/pkg/database"
	"github.com/right-track/right-track-agency-lirr/pkg/postcompile"
	"github.com/right-track/right-track-agency-lirr/pkg/schedule"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "Load the static LIRR schedule into MongoDB",
		Subcommands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import a GTFS zip, replacing the current schedule",
				ArgsUsage: "<gtfs.zip>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "holidays",
						Usage:   "CSV of dates without peak service",
						EnvVars: []string{"STATIONFEED_SCHEDULE_HOLIDAYS"},
					},
					&cli.StringFlag{
						Name:     "repeat-every",
						Usage:    "Repeat this file import every X seconds",
						Required: false,
					},
				},
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 1 {
						return cli.Exit("expected the path of a GTFS zip", 1)
					}
					if err := database.Connect(); err != nil {
						return err
					}

					path := c.Args().First()

					repeatEvery := c.String("repeat-every")
					repeat := repeatEvery != ""
					var repeatDuration time.Duration
					if repeat {
						var err error
						repeatDuration, err = time.ParseDuration(repeatEvery)

						if err != nil {
							return err
						}
					}

					for {
						startTime := time.Now()

						if err := ImportSchedule(c.Context, path, c.String("holidays")); err != nil {
							return err
						}
						if !repeat {
							break
						}

						executionDuration := time.Since(startTime)
						log.Info().Msgf("Operation took %s", executionDuration.String())

						waitTime := repeatDuration - executionDuration

						if waitTime.Seconds() > 0 {
							time.Sleep(waitTime)
						}
					}

					return nil
				},
			},
			{
				Name:  "postcompile",
				Usage: "Apply the LIRR corrections to the schedule already in MongoDB",
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}

					return postcompile.Apply(c.Context, database.MongoGlobalInstance.Database)
				},
			},
		},
	}
}

// ImportSchedule loads a GTFS zip, compiles it and replaces the schedule in MongoDB
func ImportSchedule(ctx context.Context, path string, holidaysPath string) error {
	log.Info().Str("path", path).Msg("Loading GTFS schedule")

	store, err := schedule.LoadGTFS(path)
	if err != nil {
		return err
	}

	if err := postcompile.Compile(store, holidaysPath); err != nil {
		return err
	}

	if err := schedule.NewMongoStore(database.MongoGlobalInstance.Database).Import(ctx, store); err != nil {
		return err
	}

	return postcompile.Apply(ctx, database.MongoGlobalInstance.Database)
}
