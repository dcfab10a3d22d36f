package dataaggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/right-track/right-track-agency-lirr/pkg/cachedresults"
	"github.com/right-track/right-track-agency-lirr/pkg/config"
	"github.com/right-track/right-track-agency-lirr/pkg/ctdf"
	"github.com/right-track/right-track-agency-lirr/pkg/dataaggregator/source"
	"github.com/right-track/right-track-agency-lirr/pkg/dataaggregator/source/departureboard"
	"github.com/right-track/right-track-agency-lirr/pkg/dataaggregator/source/gtfsrt"
	"github.com/right-track/right-track-agency-lirr/pkg/schedule"
	"github.com/rs/zerolog/log"
)

// FeedProvider is anything able to build live station feeds
type FeedProvider interface {
	IsFeedSupported(origin *ctdf.Stop) bool
	LoadFeed(ctx context.Context, store schedule.Store, origin *ctdf.Stop) (*ctdf.StationFeed, error)
}

type Aggregator struct {
	Settings *config.Settings
	Sources  []source.Source
	Cache    cachedresults.Cache

	Now func() time.Time
}

// New creates an Aggregator with a source registered for every configured feed
func New(settings *config.Settings, cache cachedresults.Cache) (*Aggregator, error) {
	aggregator := &Aggregator{
		Settings: settings,
		Cache:    cache,
		Now:      time.Now,
	}

	for _, sourceType := range settings.Sources {
		switch sourceType {
		case config.SourceGTFSRT:
			aggregator.RegisterSource(&gtfsrt.Source{
				Settings: settings.GTFSRT,
				Cache:    cache,
			})
		case config.SourceDepartureBoard:
			boardSource := &departureboard.Source{
				Settings: settings.DepartureBoard,
				Cache:    cache,
				Location: settings.Location(),
			}

			if settings.DepartureBoard.StopAliases != "" {
				aliases, err := departureboard.LoadAliases(settings.DepartureBoard.StopAliases)
				if err != nil {
					return nil, fmt.Errorf("loading stop aliases: %w", err)
				}
				boardSource.Aliases = aliases
			}

			aggregator.RegisterSource(boardSource)
		default:
			return nil, fmt.Errorf("unknown source type %q", sourceType)
		}
	}

	return aggregator, nil
}

func (a *Aggregator) RegisterSource(source source.Source) {
	a.Sources = append(a.Sources, source)

	log.Debug().Str("name", source.GetName()).Msg("Registering new Data Source")
}

func (a *Aggregator) IsFeedSupported(origin *ctdf.Stop) bool {
	return origin.SupportsRealtime()
}

// LoadFeed builds the live departure list for origin.
// Errors are always a *source.FeedError.
func (a *Aggregator) LoadFeed(ctx context.Context, store schedule.Store, origin *ctdf.Stop) (*ctdf.StationFeed, error) {
	if !a.IsFeedSupported(origin) {
		name := "unknown stop"
		if origin != nil {
			name = origin.PrimaryName
		}
		return nil, source.NewError(source.ErrorUnsupportedStation, fmt.Sprintf("%s has no live departures", name), nil)
	}

	now := time.Now()
	if a.Now != nil {
		now = a.Now()
	}
	location := a.Settings.Location()

	builder := &assembler{
		aggregator: a,
		resolver: &Resolver{
			Store:    store,
			Location: location,
		},
		store:  store,
		origin: origin,
		now:    now.In(location),
	}

	return builder.run(ctx)
}
