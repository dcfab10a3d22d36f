package global

import (
	"fmt"

	"github.com/right-track/right-track-agency-lirr/pkg/cachedresults"
	"github.com/right-track/right-track-agency-lirr/pkg/config"
	"github.com/right-track/right-track-agency-lirr/pkg/dataaggregator"
	"github.com/right-track/right-track-agency-lirr/pkg/database"
	"github.com/right-track/right-track-agency-lirr/pkg/postcompile"
	"github.com/right-track/right-track-agency-lirr/pkg/redis_client"
	"github.com/right-track/right-track-agency-lirr/pkg/schedule"
	"github.com/rs/zerolog/log"
)

var Settings *config.Settings
var Store schedule.Store
var Aggregator *dataaggregator.Aggregator

// Setup loads the settings and connects the schedule store, cache and aggregator the commands share
func Setup(configPath string) error {
	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}
	Settings = settings

	var cache cachedresults.Cache
	if settings.Cache.Redis {
		if err := redis_client.Connect(); err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		cache = cachedresults.NewRedis(redis_client.Client)
	} else {
		cache = cachedresults.NewMemory(settings.Cache.Size)
	}

	switch settings.Schedule.Backend {
	case config.ScheduleBackendGTFS:
		store, err := schedule.LoadGTFS(settings.Schedule.GTFSPath)
		if err != nil {
			return err
		}
		if err := postcompile.Compile(store, settings.Schedule.Holidays); err != nil {
			return err
		}
		Store = store
	default:
		if err := database.Connect(); err != nil {
			return fmt.Errorf("connecting to mongodb: %w", err)
		}
		Store = schedule.NewMongoStore(database.MongoGlobalInstance.Database)
	}

	Aggregator, err = dataaggregator.New(settings, cache)
	if err != nil {
		return err
	}

	log.Info().
		Str("schedule", string(settings.Schedule.Backend)).
		Bool("redis", settings.Cache.Redis).
		Int("sources", len(Aggregator.Sources)).
		Msg("Station feed aggregator ready")

	return nil
}
