package cachedresults

import (
	"bytes"
	"context"
	"time"

	"github.com/bluele/gcache"
	"github.com/right-track/right-track-agency-lirr/pkg/metrics"
	"github.com/rs/zerolog/log"
)

const memoryBackend = "memory"

type Memory struct {
	cache gcache.Cache
}

func NewMemory(size int) *Memory {
	return NewMemoryWithClock(size, gcache.NewRealClock())
}

func NewMemoryWithClock(size int, clock gcache.Clock) *Memory {
	return &Memory{
		cache: gcache.New(size).
			LRU().
			Clock(clock).
			Build(),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	value, err := m.cache.Get(key)
	if err != nil {
		if err != gcache.KeyNotFoundError {
			log.Error().Err(err).Str("key", key).Msg("Memory cache lookup failed")
		}
		metrics.CacheLookups.WithLabelValues(memoryBackend, metrics.CacheMiss).Inc()
		return nil, false
	}

	data, ok := value.([]byte)
	if !ok {
		metrics.CacheLookups.WithLabelValues(memoryBackend, metrics.CacheMiss).Inc()
		return nil, false
	}

	metrics.CacheLookups.WithLabelValues(memoryBackend, metrics.CacheHit).Inc()
	return bytes.Clone(data), true
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if err := m.cache.SetWithExpire(key, bytes.Clone(value), ttl); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Memory cache store failed")
	}
}
