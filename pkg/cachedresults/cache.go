package cachedresults

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

// Cache holds serialised fetch results so no caller can mutate a stored entry.
// Entries expire lazily, a read after the TTL behaves as a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

func GetJSON[T any](ctx context.Context, c Cache, key string) (T, bool) {
	var value T

	data, found := c.Get(ctx, key)
	if !found {
		return value, false
	}

	if err := json.Unmarshal(data, &value); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to decode cached value")
		return value, false
	}

	return value, true
}

func SetJSON(ctx context.Context, c Cache, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to encode value for cache")
		return
	}

	c.Set(ctx, key, data, ttl)
}
