package gtfsrt

import (
	"context"
	"time"

	"github.com/right-track/right-track-agency-lirr/pkg/cachedresults"
	"github.com/right-track/right-track-agency-lirr/pkg/config"
	"github.com/right-track/right-track-agency-lirr/pkg/ctdf"
	"github.com/right-track/right-track-agency-lirr/pkg/dataaggregator/source"
	"github.com/rs/zerolog/log"
)

// The decoded feed covers every stop so one cache entry serves all origins
const cacheKey = "GTFS-RT"

type Source struct {
	Settings config.GTFSRTSettings
	Cache    cachedresults.Cache
}

func (s *Source) GetName() string {
	return "GTFS-RT"
}

func (s *Source) Load(ctx context.Context, query source.Query) (*source.Result, error) {
	feed, err := s.LoadFeed(ctx, query.Now)
	if err != nil {
		return nil, err
	}

	result := &source.Result{
		Source:  ctdf.RealtimeRecordSourceGTFSRT,
		Updated: feed.Updated,
		Records: feed.Stops[query.Origin.PrimaryIdentifier],
		Trips:   map[string]*ctdf.RealtimeTrip{},
	}

	for _, record := range result.Records {
		if trip, exists := feed.Trips[record.TripID]; exists {
			result.Trips[record.TripID] = trip
		}
	}

	return result, nil
}

// LoadFeed returns the correlated feed from the cache, or downloads and decodes a fresh one.
// Only successfully decoded feeds are cached.
func (s *Source) LoadFeed(ctx context.Context, now time.Time) (*CorrelatedFeed, error) {
	if cached, found := cachedresults.GetJSON[*CorrelatedFeed](ctx, s.Cache, cacheKey); found && cached != nil {
		return cached, nil
	}

	headers := map[string]string{}
	for key, value := range s.Settings.Headers {
		headers[key] = value
	}
	if s.Settings.APIKey != "" && s.Settings.APIKeyHeader != "" {
		headers[s.Settings.APIKeyHeader] = s.Settings.APIKey
	}

	raw, err := source.Fetch(ctx, source.FetchRequest{
		Source:  s.GetName(),
		URL:     source.ExpandURL(s.Settings.URL, map[string]string{"apiKey": s.Settings.APIKey}),
		Headers: headers,
		Timeout: s.Settings.Timeout,
	})
	if err != nil {
		return nil, err
	}

	decoded, err := Decode(raw)
	if err != nil {
		log.Error().Err(err).Int("bytes", len(raw)).Msg("Failed to decode GTFS-RT feed")
		return nil, err
	}

	feed := Correlate(decoded, Suffixes{
		TripUpdate: s.Settings.TripSuffix,
		Vehicle:    s.Settings.VehicleSuffix,
	})
	if feed.Updated.IsZero() {
		feed.Updated = now
	}

	log.Debug().
		Int("entities", len(decoded.Entities)).
		Int("trips", len(feed.Trips)).
		Int("stops", len(feed.Stops)).
		Msg("Decoded GTFS-RT feed")

	cachedresults.SetJSON(ctx, s.Cache, cacheKey, feed, s.Settings.CacheTTL)

	return feed, nil
}
