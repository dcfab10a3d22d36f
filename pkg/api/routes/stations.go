package routes

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
	"github.com/right-track/right-track-agency-lirr/pkg/ctdf"
	"github.com/right-track/right-track-agency-lirr/pkg/dataaggregator"
	"github.com/right-track/right-track-agency-lirr/pkg/dataaggregator/source"
	"github.com/right-track/right-track-agency-lirr/pkg/schedule"
)

// LocalsFeedErrorCode is where handlers leave the code of a failed feed for the request logger
const LocalsFeedErrorCode = "feedErrorCode"

func StationsRouter(router fiber.Router, provider dataaggregator.FeedProvider, store schedule.Store) {
	router.Get("/", func(c *fiber.Ctx) error {
		return listStations(c, provider, store)
	})
	router.Get("/:identifier/feed", func(c *fiber.Ctx) error {
		return getStationFeed(c, provider, store)
	})
}

func listStations(c *fiber.Ctx, provider dataaggregator.FeedProvider, store schedule.Store) error {
	stops, err := store.ListStops(c.UserContext())
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Could not list stations",
		})
	}

	if c.QueryBool("realtime") {
		supported := []*ctdf.Stop{}
		for _, stop := range stops {
			if provider.IsFeedSupported(stop) {
				supported = append(supported, stop)
			}
		}
		stops = supported
	}

	stopsReduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: []string{"basic", "detailed"},
	}, stops)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sherrif could not reduce stations",
		})
	}

	return c.JSON(stopsReduced)
}

func getStationFeed(c *fiber.Ctx, provider dataaggregator.FeedProvider, store schedule.Store) error {
	identifier := c.Params("identifier")

	origin, err := store.GetStop(c.UserContext(), identifier)
	if errors.Is(err, schedule.ErrNotFound) {
		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "Could not find Stop matching Stop Identifier",
		})
	} else if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Could not load Stop",
		})
	}

	feed, err := provider.LoadFeed(c.UserContext(), store, origin)
	if err != nil {
		return sendFeedError(c, err)
	}

	groups := []string{"basic"}
	if c.QueryBool("detailed") {
		groups = append(groups, "detailed")
	}

	feedReduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: groups,
	}, feed)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sherrif could not reduce StationFeed",
		})
	}

	return c.JSON(feedReduced)
}

func sendFeedError(c *fiber.Ctx, err error) error {
	var feedError *source.FeedError
	if !errors.As(err, &feedError) {
		feedError = source.NewError(source.ErrorInternalBuildFailure, "Could not build station feed", err)
	}
	c.Locals(LocalsFeedErrorCode, feedError.Code)

	switch feedError.Kind {
	case source.ErrorUnsupportedStation:
		c.SendStatus(fiber.StatusBadRequest)
	case source.ErrorFeedUnavailable:
		c.SendStatus(fiber.StatusServiceUnavailable)
	default:
		c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{
		"error": feedError,
	})
}
