package redis_client

import (
	"context"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/right-track/right-track-agency-lirr/pkg/util"
	"github.com/rs/zerolog/log"
)

var Client *redis.Client

const defaultConnectionAddress = "localhost:6379"
const defaultConnectionPassword = ""
const defaultDatabase = 0

func Connect() error {
	address := defaultConnectionAddress
	password := defaultConnectionPassword
	database := defaultDatabase

	env := util.GetEnvironmentVariables()

	if env["STATIONFEED_REDIS_ADDRESS"] != "" {
		address = env["STATIONFEED_REDIS_ADDRESS"]
	}

	if env["STATIONFEED_REDIS_PASSWORD"] != "" {
		password = env["STATIONFEED_REDIS_PASSWORD"]
	}

	if env["STATIONFEED_REDIS_DATABASE"] != "" {
		if n, err := strconv.Atoi(env["STATIONFEED_REDIS_DATABASE"]); err == nil {
			database = n
		} else {
			return err
		}
	}

	Client = redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       database,
	})

	retryBackoff := backoff.NewExponentialBackOff()
	retryBackoff.MaxElapsedTime = 30 * time.Second

	err := backoff.RetryNotify(func() error {
		return Client.Ping(context.Background()).Err()
	}, retryBackoff, func(err error, wait time.Duration) {
		log.Warn().Err(err).Str("address", address).Dur("retry", wait).Msg("Redis not reachable yet")
	})
	if err != nil {
		return err
	}

	log.Info().Msgf("Redis client setup for %s", address)

	return nil
}
