package dataaggregator

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/right-track/right-track-agency-lirr/pkg/ctdf"
	"github.com/right-track/right-track-agency-lirr/pkg/dataaggregator/source"
	"github.com/right-track/right-track-agency-lirr/pkg/metrics"
	"github.com/right-track/right-track-agency-lirr/pkg/schedule"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/iter"
)

type assemblerState string

const (
	stateIdle            assemblerState = "Idle"
	stateFetchingSources assemblerState = "FetchingSources"
	stateCorrelating     assemblerState = "Correlating"
	stateResolving       assemblerState = "Resolving"
	stateReconciling     assemblerState = "Reconciling"
	stateFiltering       assemblerState = "Filtering"
	stateSorting         assemblerState = "Sorting"
	stateDone            assemblerState = "Done"
	stateFailed          assemblerState = "Failed"
)

const (
	droppedBuildFailure = "build_failure"
	droppedDuplicate    = "duplicate"
	droppedWindow       = "window"
)

type sourceOutcome struct {
	Name   string
	Result *source.Result
	Err    error
}

// draft is one live observation at the origin on its way to becoming a departure
type draft struct {
	Record *ctdf.RealtimeRecord
	Live   *ctdf.RealtimeTrip

	// Board is the departure board row merged into a GTFS-RT draft for the same trip
	Board *ctdf.RealtimeRecord

	Trip        *ctdf.Trip
	Destination *ctdf.Stop
}

// assembler builds a single station feed, it is not reused between requests
type assembler struct {
	aggregator *Aggregator
	resolver   *Resolver
	store      schedule.Store

	origin *ctdf.Stop
	now    time.Time

	state assemblerState
}

func (a *assembler) transition(state assemblerState) {
	a.state = state

	log.Debug().
		Str("origin", a.origin.PrimaryIdentifier).
		Str("state", string(state)).
		Msg("Station feed build")
}

func (a *assembler) run(ctx context.Context) (*ctdf.StationFeed, error) {
	start := time.Now()
	a.transition(stateIdle)

	a.transition(stateFetchingSources)
	outcomes := a.fetchSources(ctx)

	var lastErr error
	failures := 0
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failures++
			lastErr = outcome.Err
		}
	}
	if failures == len(outcomes) {
		a.transition(stateFailed)
		metrics.FeedBuildDuration.WithLabelValues(metrics.OutcomeFailed).Observe(time.Since(start).Seconds())

		return nil, source.NewError(source.ErrorFeedUnavailable,
			fmt.Sprintf("No live data available for %s", a.origin.PrimaryName), lastErr)
	}

	a.transition(stateCorrelating)
	updated := a.now
	var liveDrafts, boardDrafts []*draft
	for _, outcome := range outcomes {
		if outcome.Result == nil {
			continue
		}

		switch outcome.Result.Source {
		case ctdf.RealtimeRecordSourceGTFSRT:
			if !outcome.Result.Updated.IsZero() {
				updated = outcome.Result.Updated
			}
			for _, record := range outcome.Result.Records {
				live := outcome.Result.GetTrip(record.TripID)
				if live == nil {
					live = &ctdf.RealtimeTrip{TripID: record.TripID, Stops: []*ctdf.RealtimeRecord{record}}
				}
				liveDrafts = append(liveDrafts, &draft{Record: record, Live: live})
			}
		default:
			for _, record := range outcome.Result.Records {
				boardDrafts = append(boardDrafts, &draft{Record: record})
			}
		}
	}

	a.transition(stateResolving)
	liveDrafts = a.resolveAll(ctx, liveDrafts)
	boardDrafts = a.resolveAll(ctx, boardDrafts)
	drafts := mergeDrafts(liveDrafts, boardDrafts)

	a.transition(stateReconciling)
	departures := a.buildAll(ctx, drafts)
	departures = dedupeDepartures(departures)

	a.transition(stateFiltering)
	kept := FilterDepartures(departures, a.origin, a.now, a.aggregator.Settings.Windows)
	metrics.DeparturesDropped.WithLabelValues(droppedWindow).Add(float64(len(departures) - len(kept)))
	departures = kept

	a.transition(stateSorting)
	SortDepartures(departures)

	a.transition(stateDone)
	metrics.FeedBuildDuration.WithLabelValues(metrics.OutcomeSuccess).Observe(time.Since(start).Seconds())

	return &ctdf.StationFeed{
		Origin:     a.origin,
		Updated:    updated,
		Departures: departures,
	}, nil
}

func (a *assembler) fetchSources(ctx context.Context) []sourceOutcome {
	query := source.Query{
		Origin: a.origin,
		Store:  a.store,
		Now:    a.now,
	}

	return iter.Map(a.aggregator.Sources, func(dataSource *source.Source) sourceOutcome {
		name := (*dataSource).GetName()

		result, err := (*dataSource).Load(ctx, query)
		if err != nil {
			metrics.SourceFailures.WithLabelValues(name, strconv.Itoa(source.ErrorCode(err))).Inc()
			log.Error().Err(err).
				Str("source", name).
				Str("origin", a.origin.PrimaryIdentifier).
				Msg("Data source failed, continuing without it")
		}

		return sourceOutcome{Name: name, Result: result, Err: err}
	})
}

func (a *assembler) resolveAll(ctx context.Context, drafts []*draft) []*draft {
	resolved := iter.Map(drafts, func(d **draft) *draft {
		return recoverBuild(a.origin, (*d).Record, func() *draft {
			a.resolve(ctx, *d)
			return *d
		})
	})

	return compact(resolved)
}

func (a *assembler) resolve(ctx context.Context, d *draft) {
	if d.Live != nil {
		d.Trip = a.resolver.ResolveLive(ctx, d.Live, a.now)

		if terminal := d.Trip.DestinationStopTime(); terminal != nil && terminal.Stop != nil {
			d.Destination = terminal.Stop
		} else if d.Live.DestinationStopID != "" {
			d.Destination = a.resolver.lookupStop(ctx, d.Live.DestinationStopID)
		}
		return
	}

	d.Trip, d.Destination = a.resolver.ResolveBoard(ctx, a.origin, d.Record)
}

// mergeDrafts folds board rows into the GTFS-RT draft of the same trip, the rest stay board only
func mergeDrafts(liveDrafts []*draft, boardDrafts []*draft) []*draft {
	byTrip := map[string]*draft{}
	for _, d := range liveDrafts {
		if _, exists := byTrip[d.Trip.PrimaryIdentifier]; !exists {
			byTrip[d.Trip.PrimaryIdentifier] = d
		}
	}

	drafts := liveDrafts
	for _, d := range boardDrafts {
		if live, exists := byTrip[d.Trip.PrimaryIdentifier]; exists && live.Board == nil {
			live.Board = d.Record
			continue
		}
		drafts = append(drafts, d)
	}

	return drafts
}

func (a *assembler) buildAll(ctx context.Context, drafts []*draft) []*ctdf.Departure {
	departures := iter.Map(drafts, func(d **draft) *ctdf.Departure {
		return recoverBuild(a.origin, (*d).Record, func() *ctdf.Departure {
			return a.build(ctx, *d)
		})
	})

	return compact(departures)
}

func (a *assembler) build(ctx context.Context, d *draft) *ctdf.Departure {
	if d.Live != nil {
		return a.buildLive(ctx, d)
	}
	return a.buildBoard(d)
}

func (a *assembler) buildLive(ctx context.Context, d *draft) *ctdf.Departure {
	estimated, hasEstimate := d.Record.EstimatedTime()

	scheduled, hasScheduled := d.Trip.DepartureAt(a.origin.PrimaryIdentifier)
	if !hasScheduled || d.Trip.Unscheduled {
		scheduled = estimated
	}

	signals := Signals{
		Label:              liveLabel(d, a.origin),
		FeedDelay:          liveDelay(d, scheduled, estimated, hasEstimate),
		ScheduledDeparture: scheduled,
		Track:              d.Record.Track,
	}

	if d.Board != nil {
		signals.BoardDelay = d.Board.Delay
		signals.Departed = d.Board.Departed
		if signals.Label == "" {
			signals.Label = d.Board.StatusText
		}
		if signals.Track == "" {
			signals.Track = d.Board.Track
		}
	}
	if d.Trip.Unscheduled {
		signals.Remark = ctdf.DepartureRemarkUnscheduled
	}

	return &ctdf.Departure{
		ScheduledDeparture: scheduled,
		Destination:        d.Destination,
		Trip:               d.Trip,
		Status:             Reconcile(signals),
		Position:           a.position(ctx, d),
	}
}

func (a *assembler) buildBoard(d *draft) *ctdf.Departure {
	scheduled, hasScheduled := d.Trip.DepartureAt(a.origin.PrimaryIdentifier)
	if !hasScheduled || d.Trip.Unscheduled {
		scheduled = d.Record.ScheduledTime
	}

	signals := Signals{
		Label:              d.Record.StatusText,
		BoardDelay:         d.Record.Delay,
		Departed:           d.Record.Departed,
		ScheduledDeparture: scheduled,
		Track:              d.Record.Track,
	}
	if d.Trip.Unscheduled {
		signals.Remark = ctdf.DepartureRemarkUnscheduled
	}

	return &ctdf.Departure{
		ScheduledDeparture: scheduled,
		Destination:        d.Destination,
		Trip:               d.Trip,
		Status:             Reconcile(signals),
	}
}

// liveLabel is the explicit status a GTFS-RT trip carries at the origin, if any
func liveLabel(d *draft, origin *ctdf.Stop) string {
	if d.Record.StatusText != "" {
		return d.Record.StatusText
	}
	if d.Live.Cancelled {
		return ctdf.DepartureStatusCancelled
	}

	vehicle := d.Live.Vehicle
	if vehicle == nil || vehicle.StopID == "" {
		return ""
	}

	if vehicle.StopID == origin.PrimaryIdentifier && vehicle.CurrentStatus != nil {
		switch *vehicle.CurrentStatus {
		case ctdf.VehicleStopStatusIncomingAt:
			return ctdf.DepartureStatusArriving
		case ctdf.VehicleStopStatusStoppedAt:
			return ctdf.DepartureStatusArrived
		}
		return ""
	}

	vehiclePosition, originPosition, known := stopPositions(d, vehicle.StopID, origin.PrimaryIdentifier)
	if known && vehiclePosition > originPosition {
		return ctdf.DepartureStatusDeparted
	}

	return ""
}

// stopPositions orders two stops along the trip, using the schedule when it has both
func stopPositions(d *draft, first string, second string) (int, int, bool) {
	if !d.Trip.Unscheduled {
		firstStopTime := d.Trip.GetStopTime(first)
		secondStopTime := d.Trip.GetStopTime(second)
		if firstStopTime != nil && secondStopTime != nil {
			return firstStopTime.StopSequence, secondStopTime.StopSequence, true
		}
	}

	firstIndex, secondIndex := -1, -1
	for index, stop := range d.Live.Stops {
		switch stop.StopID {
		case first:
			firstIndex = index
		case second:
			secondIndex = index
		}
	}

	return firstIndex, secondIndex, firstIndex >= 0 && secondIndex >= 0
}

// liveDelay is the delay the feed reports, or the difference between estimate and schedule
func liveDelay(d *draft, scheduled time.Time, estimated time.Time, hasEstimate bool) *time.Duration {
	if d.Record.Delay != nil {
		delay := *d.Record.Delay
		return &delay
	}
	if !hasEstimate {
		return nil
	}

	var delay time.Duration
	if !d.Trip.Unscheduled && !scheduled.IsZero() {
		delay = estimated.Sub(scheduled)
	}
	return &delay
}

func (a *assembler) position(ctx context.Context, d *draft) *ctdf.DeparturePosition {
	vehicle := d.Live.Vehicle
	if vehicle == nil || vehicle.Latitude == nil || vehicle.Longitude == nil || vehicle.CurrentStatus == nil || vehicle.StopID == "" {
		return nil
	}

	stopName := vehicle.StopID
	if stopTime := d.Trip.GetStopTime(vehicle.StopID); stopTime != nil && stopTime.Stop != nil {
		stopName = stopTime.Stop.PrimaryName
	} else if stop, err := a.store.GetStop(ctx, vehicle.StopID); err == nil {
		stopName = stop.PrimaryName
	}

	var description string
	switch *vehicle.CurrentStatus {
	case ctdf.VehicleStopStatusIncomingAt:
		description = fmt.Sprintf("Arriving at %s", stopName)
	case ctdf.VehicleStopStatusStoppedAt:
		description = fmt.Sprintf("Stopped at %s", stopName)
	case ctdf.VehicleStopStatusInTransitTo:
		description = fmt.Sprintf("In transit to %s", stopName)
	default:
		return nil
	}

	updated := vehicle.Updated
	if updated.IsZero() {
		updated = a.now
	}

	return &ctdf.DeparturePosition{
		Latitude:    *vehicle.Latitude,
		Longitude:   *vehicle.Longitude,
		Description: description,
		Updated:     updated,
	}
}

// dedupeDepartures keeps the first departure seen for each trip
func dedupeDepartures(departures []*ctdf.Departure) []*ctdf.Departure {
	seen := map[string]bool{}

	var unique []*ctdf.Departure
	for _, departure := range departures {
		identifier := departure.TripIdentifier()
		if seen[identifier] {
			metrics.DeparturesDropped.WithLabelValues(droppedDuplicate).Inc()
			continue
		}
		seen[identifier] = true
		unique = append(unique, departure)
	}

	return unique
}

// SortDepartures orders by scheduled departure, then destination name, then trip id
func SortDepartures(departures []*ctdf.Departure) {
	sort.SliceStable(departures, func(i, j int) bool {
		a, b := departures[i], departures[j]

		if !a.ScheduledDeparture.Equal(b.ScheduledDeparture) {
			return a.ScheduledDeparture.Before(b.ScheduledDeparture)
		}
		if a.DestinationName() != b.DestinationName() {
			return a.DestinationName() < b.DestinationName()
		}
		return a.TripIdentifier() < b.TripIdentifier()
	})
}

// recoverBuild contains a panic in a single departure so the rest of the feed still builds
func recoverBuild[T any](origin *ctdf.Stop, record *ctdf.RealtimeRecord, build func() *T) (result *T) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err := source.NewError(source.ErrorInternalBuildFailure, fmt.Sprintf("%v", recovered), nil)

			logEvent := log.Error().Err(err).Str("origin", origin.PrimaryIdentifier)
			if record != nil {
				logEvent = logEvent.Str("trip", record.TripID).Str("train", record.TripShortName)
			}
			logEvent.Msg("Dropped departure that failed to build")

			metrics.DeparturesDropped.WithLabelValues(droppedBuildFailure).Inc()
			result = nil
		}
	}()

	return build()
}

func compact[T any](values []*T) []*T {
	var kept []*T
	for _, value := range values {
		if value != nil {
			kept = append(kept, value)
		}
	}
	return kept
}
