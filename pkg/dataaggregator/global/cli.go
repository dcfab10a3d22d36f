package global

import (
	"context"
	"fmt"
	"time"

	"github.com/kr/pretty"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "feed",
		Usage: "Build live station feeds from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the YAML settings file",
				EnvVars: []string{"STATIONFEED_CONFIG"},
			},
		},
		Subcommands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "print the live departures for a stop",
				ArgsUsage: "<stop id>",
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 1 {
						return cli.Exit("expected exactly one stop id", 1)
					}

					if err := Setup(c.String("config")); err != nil {
						return err
					}

					ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
					defer cancel()

					origin, err := Store.GetStop(ctx, c.Args().First())
					if err != nil {
						return fmt.Errorf("finding stop %s: %w", c.Args().First(), err)
					}

					feed, err := Aggregator.LoadFeed(ctx, Store, origin)
					if err != nil {
						return err
					}

					pretty.Println(feed)

					return nil
				},
			},
			{
				Name:  "stations",
				Usage: "list the stops and whether they have live departures",
				Action: func(c *cli.Context) error {
					if err := Setup(c.String("config")); err != nil {
						return err
					}

					stops, err := Store.ListStops(c.Context)
					if err != nil {
						return err
					}

					for _, stop := range stops {
						fmt.Printf("%-6s %-30s %v\n", stop.PrimaryIdentifier, stop.PrimaryName, Aggregator.IsFeedSupported(stop))
					}

					return nil
				},
			},
		},
	}
}
