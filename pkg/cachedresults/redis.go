package cachedresults

import (
	"context"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
	"github.com/right-track/right-track-agency-lirr/pkg/metrics"
	"github.com/rs/zerolog/log"
)

const (
	redisBackend   = "redis"
	redisKeyPrefix = "stationfeed:"
)

// Redis shares cached results between API replicas
type Redis struct {
	Cache *cache.Cache[string]
}

func NewRedis(client *redis.Client) *Redis {
	redisStore := redisstore.NewRedis(client, store.WithExpiration(90*time.Second))

	return &Redis{
		Cache: cache.New[string](redisStore),
	}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := r.Cache.Get(ctx, redisKeyPrefix+key)
	if err != nil || value == "" {
		metrics.CacheLookups.WithLabelValues(redisBackend, metrics.CacheMiss).Inc()
		return nil, false
	}

	metrics.CacheLookups.WithLabelValues(redisBackend, metrics.CacheHit).Inc()
	return []byte(value), true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	err := r.Cache.Set(ctx, redisKeyPrefix+key, string(value), store.WithExpiration(ttl))
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Redis cache store failed")
	}
}
