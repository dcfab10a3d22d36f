package api

import (
	"github.com/right-track/right-track-agency-lirr/pkg/dataaggregator/global"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "web-api",
		Usage: "Provides the station feed web API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
						Usage: "listen target for the web server",
					},
					&cli.StringFlag{
						Name:    "config",
						Usage:   "path to the YAML settings file",
						EnvVars: []string{"STATIONFEED_CONFIG"},
					},
				},
				Action: func(c *cli.Context) error {
					if err := global.Setup(c.String("config")); err != nil {
						return err
					}

					return SetupServer(c.String("listen"), global.Aggregator, global.Store)
				},
			},
		},
	}
}
