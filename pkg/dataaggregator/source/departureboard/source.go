package departureboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/right-track/right-track-agency-lirr/pkg/cachedresults"
	"github.com/right-track/right-track-agency-lirr/pkg/config"
	"github.com/right-track/right-track-agency-lirr/pkg/ctdf"
	"github.com/right-track/right-track-agency-lirr/pkg/dataaggregator/source"
	"github.com/right-track/right-track-agency-lirr/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

const maxConcurrentBoards = 8

type Source struct {
	Settings config.DepartureBoardSettings
	Cache    cachedresults.Cache
	Location *time.Location
	Aliases  Aliases
}

type boardFetch struct {
	Destination *ctdf.Stop
	Records     []*ctdf.RealtimeRecord
	Err         error
}

func (s *Source) GetName() string {
	return "DepartureBoard"
}

func (s *Source) Load(ctx context.Context, query source.Query) (*source.Result, error) {
	if !s.Settings.PerDestination {
		records, err := s.loadBoard(ctx, query.Origin, nil, query.Now)
		if err != nil {
			return nil, err
		}

		return &source.Result{
			Source:  ctdf.RealtimeRecordSourceDepartureBoard,
			Updated: query.Now,
			Records: records,
		}, nil
	}

	destinations, err := query.Store.GetNextStops(ctx, query.Origin.PrimaryIdentifier)
	if err != nil {
		return nil, source.NewError(source.ErrorUpstreamUnavailable, "Could not list board destinations", err)
	}

	boardPool := pool.NewWithResults[boardFetch]().WithMaxGoroutines(maxConcurrentBoards)
	for _, destination := range destinations {
		if !destination.SupportsRealtime() {
			continue
		}

		destination := destination
		boardPool.Go(func() boardFetch {
			records, err := s.loadBoard(ctx, query.Origin, destination, query.Now)
			return boardFetch{Destination: destination, Records: records, Err: err}
		})
	}
	boards := boardPool.Wait()

	sort.Slice(boards, func(i, j int) bool {
		return boards[i].Destination.PrimaryIdentifier < boards[j].Destination.PrimaryIdentifier
	})

	var records []*ctdf.RealtimeRecord
	var lastErr error
	failures := 0
	for _, board := range boards {
		if board.Err != nil {
			failures++
			lastErr = board.Err
			continue
		}
		records = append(records, board.Records...)
	}

	if len(boards) > 0 && failures == len(boards) {
		return nil, lastErr
	}

	return &source.Result{
		Source:  ctdf.RealtimeRecordSourceDepartureBoard,
		Updated: query.Now,
		Records: dedupeRecords(records),
	}, nil
}

// loadBoard returns the cached board for origin, or origin and destination, or fetches a fresh one
func (s *Source) loadBoard(ctx context.Context, origin *ctdf.Stop, destination *ctdf.Stop, now time.Time) ([]*ctdf.RealtimeRecord, error) {
	key := fmt.Sprintf("departureboard:%s", origin.StatusID)
	values := map[string]string{
		"origin": origin.StatusID,
		"apiKey": s.Settings.APIKey,
	}
	if destination != nil {
		key = fmt.Sprintf("%s:%s", key, destination.StatusID)
		values["destination"] = destination.StatusID
	}

	if cached, found := cachedresults.GetJSON[[]*ctdf.RealtimeRecord](ctx, s.Cache, key); found {
		return cached, nil
	}

	document, err := source.Fetch(ctx, source.FetchRequest{
		Source:  s.GetName(),
		URL:     source.ExpandURL(s.Settings.URL, values),
		Headers: s.Settings.Headers,
		Timeout: s.Settings.Timeout,
	})
	if err != nil {
		return nil, err
	}

	records, err := Parse(document, "text/html", ParseOptions{
		Columns:    s.Settings.Columns,
		TimeFormat: s.Settings.TimeFormat,
		Location:   s.Location,
		Now:        now,
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to parse departure board")
		return nil, err
	}

	for _, record := range records {
		record.StopID = origin.PrimaryIdentifier
		if destination != nil {
			record.ViaStopID = destination.PrimaryIdentifier
		}
		if stopID, exists := s.Aliases.Lookup(record.DestinationName); exists {
			record.DestinationStopID = stopID
		}
	}

	cachedresults.SetJSON(ctx, s.Cache, key, records, s.Settings.CacheTTL)

	return records, nil
}

// dedupeRecords drops the copies of a train listed on the boards of several destinations
func dedupeRecords(records []*ctdf.RealtimeRecord) []*ctdf.RealtimeRecord {
	seen := map[string]bool{}

	util.InPlaceFilter(&records, func(record *ctdf.RealtimeRecord) bool {
		key := record.TripShortName
		if key == "" {
			key = fmt.Sprintf("%d|%s", record.ScheduledTime.Unix(), util.NormaliseName(record.DestinationName))
		}

		if seen[key] {
			return false
		}
		seen[key] = true
		return true
	})

	return records
}
