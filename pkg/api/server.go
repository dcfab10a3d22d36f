package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/right-track/right-track-agency-lirr/pkg/api/routes"
	"github.com/right-track/right-track-agency-lirr/pkg/dataaggregator"
	"github.com/right-track/right-track-agency-lirr/pkg/schedule"
)

func NewApp(provider dataaggregator.FeedProvider, store schedule.Store) *fiber.App {
	webApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	webApp.Use(NewLogger())

	webApp.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	webApp.Get("/version", routes.APIVersion)

	routes.StationsRouter(webApp.Group("/stations"), provider, store)

	return webApp
}

func SetupServer(listen string, provider dataaggregator.FeedProvider, store schedule.Store) error {
	return NewApp(provider, store).Listen(listen)
}
