package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stationfeed_fetch_total",
		Help: "Upstream fetches by source and outcome.",
	}, []string{"source", "outcome"})

	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stationfeed_fetch_duration_seconds",
		Help:    "Duration of upstream fetches.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 7},
	}, []string{"source"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stationfeed_cache_lookups_total",
		Help: "Cache lookups by backend and result (hit|miss).",
	}, []string{"backend", "result"})

	SourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stationfeed_source_failures_total",
		Help: "Live sources that contributed nothing to a feed, by error code.",
	}, []string{"source", "code"})

	DeparturesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stationfeed_departures_dropped_total",
		Help: "Departures removed while building a feed (filtered|duplicate|failed).",
	}, []string{"reason"})

	FeedBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stationfeed_feed_build_duration_seconds",
		Help:    "Duration of station feed builds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
)

const (
	OutcomeSuccess     = "success"
	OutcomeTimeout     = "timeout"
	OutcomeUnavailable = "unavailable"
	OutcomeFailed      = "failed"

	CacheHit  = "hit"
	CacheMiss = "miss"
)
