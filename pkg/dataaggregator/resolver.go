package dataaggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/right-track/right-track-agency-lirr/pkg/ctdf"
	"github.com/right-track/right-track-agency-lirr/pkg/dataaggregator/source"
	"github.com/right-track/right-track-agency-lirr/pkg/schedule"
	"github.com/right-track/right-track-agency-lirr/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/iter"
)

// Resolver matches live observations to trips in the static schedule,
// synthesizing unscheduled trips when the schedule has no match
type Resolver struct {
	Store    schedule.Store
	Location *time.Location
}

// ResolveLive finds the static trip for a GTFS-RT trip
func (r *Resolver) ResolveLive(ctx context.Context, realtimeTrip *ctdf.RealtimeTrip, now time.Time) *ctdf.Trip {
	serviceDate := util.StartOfDay(now.In(r.Location))
	if realtimeTrip.StartDate != "" {
		if parsed, err := util.ParseServiceDate(realtimeTrip.StartDate, r.Location); err == nil {
			serviceDate = parsed
		}
	}

	trip, err := r.Store.GetTrip(ctx, realtimeTrip.TripID, serviceDate)
	if err == nil {
		return trip
	}
	if !errors.Is(err, schedule.ErrNotFound) {
		log.Error().Err(err).Str("trip", realtimeTrip.TripID).Msg("Failed to look up scheduled trip")
	}

	return r.synthesizeLive(ctx, realtimeTrip, serviceDate)
}

// synthesizeLive builds an unscheduled trip from the stops of the live trip that carry a time
func (r *Resolver) synthesizeLive(ctx context.Context, realtimeTrip *ctdf.RealtimeTrip, serviceDate time.Time) *ctdf.Trip {
	var timedStops []*ctdf.RealtimeRecord
	for _, record := range realtimeTrip.Stops {
		if record.HasTimestamp() {
			timedStops = append(timedStops, record)
		}
	}

	dayOrigin := util.ServiceDayOrigin(serviceDate)
	stopTimes := iter.Map(timedStops, func(record **ctdf.RealtimeRecord) *ctdf.StopTime {
		stopTime := &ctdf.StopTime{
			StopRef:      (*record).StopID,
			Stop:         r.lookupStop(ctx, (*record).StopID),
			StopSequence: (*record).StopSequence,
		}

		if !(*record).Arrival.IsZero() {
			stopTime.ArrivalTime = (*record).Arrival.Sub(dayOrigin)
		}
		if !(*record).Departure.IsZero() {
			stopTime.DepartureTime = (*record).Departure.Sub(dayOrigin)
		}
		if stopTime.ArrivalTime == 0 {
			stopTime.ArrivalTime = stopTime.DepartureTime
		}
		if stopTime.DepartureTime == 0 {
			stopTime.DepartureTime = stopTime.ArrivalTime
		}

		return stopTime
	})

	trip := &ctdf.Trip{
		PrimaryIdentifier: realtimeTrip.TripID,
		RouteRef:          realtimeTrip.RouteID,
		ServiceDate:       serviceDate,
		StopTimes:         stopTimes,
		Unscheduled:       true,
	}

	if realtimeTrip.RouteID != "" {
		if route, err := r.Store.GetRoute(ctx, realtimeTrip.RouteID); err == nil {
			trip.Route = route
		}
	}

	log.Debug().Str("trip", trip.PrimaryIdentifier).Int("stops", len(stopTimes)).Msg("Synthesized unscheduled trip")

	return trip
}

// ResolveBoard finds the static trip for a departure board row and the destination to show for it
func (r *Resolver) ResolveBoard(ctx context.Context, origin *ctdf.Stop, record *ctdf.RealtimeRecord) (*ctdf.Trip, *ctdf.Stop) {
	liveDestination := r.liveDestination(ctx, record)

	trip := r.findBoardTrip(ctx, origin, record, liveDestination)
	if trip == nil {
		trip = r.synthesizeBoard(origin, record, liveDestination)
		return trip, liveDestination
	}

	var staticDestination *ctdf.Stop
	if terminal := trip.DestinationStopTime(); terminal != nil {
		staticDestination = terminal.Stop
	}

	if staticDestination == nil {
		return trip, liveDestination
	}
	if record.DestinationName == "" || staticDestination.MatchesName(record.DestinationName) {
		return trip, staticDestination
	}

	mismatch := source.NewError(source.ErrorResolutionMismatch,
		fmt.Sprintf("board shows %s, schedule ends at %s", record.DestinationName, staticDestination.PrimaryName), nil)
	log.Warn().
		Err(mismatch).
		Str("origin", origin.PrimaryIdentifier).
		Str("trip", trip.PrimaryIdentifier).
		Msg("Live destination differs from schedule")

	if liveDestination.PrimaryIdentifier != "" {
		return trip, liveDestination
	}

	renamed := *staticDestination
	renamed.PrimaryName = record.DestinationName
	return trip, &renamed
}

func (r *Resolver) findBoardTrip(ctx context.Context, origin *ctdf.Stop, record *ctdf.RealtimeRecord, liveDestination *ctdf.Stop) *ctdf.Trip {
	if record.TripShortName != "" {
		for _, serviceDate := range r.candidateServiceDays(record.ScheduledTime) {
			trip, err := r.Store.GetTripByShortName(ctx, record.TripShortName, serviceDate)
			if err != nil {
				r.logLookupError(err, record)
				continue
			}
			if trip.HasStopTime(origin.PrimaryIdentifier) {
				return trip
			}
		}
	}

	if record.ScheduledTime.IsZero() {
		return nil
	}

	for _, destinationID := range util.RemoveDuplicateStrings([]string{liveDestination.PrimaryIdentifier, record.ViaStopID}, nil) {
		trip, err := r.Store.GetTripByDeparture(ctx, origin.PrimaryIdentifier, destinationID, record.ScheduledTime)
		if err != nil {
			r.logLookupError(err, record)
			continue
		}
		return trip
	}

	return nil
}

func (r *Resolver) synthesizeBoard(origin *ctdf.Stop, record *ctdf.RealtimeRecord, destination *ctdf.Stop) *ctdf.Trip {
	identifier := record.TripShortName
	if identifier == "" {
		identifier = fmt.Sprintf("%s|%s", record.ScheduledTime.In(r.Location).Format("1504"), util.NormaliseName(record.DestinationName))
	}

	scheduled := record.ScheduledTime.In(r.Location)
	serviceDate := util.StartOfDay(scheduled)
	offset := scheduled.Sub(util.ServiceDayOrigin(serviceDate))

	stopTimes := []*ctdf.StopTime{
		{
			StopRef:       origin.PrimaryIdentifier,
			Stop:          origin,
			ArrivalTime:   offset,
			DepartureTime: offset,
			StopSequence:  1,
		},
	}
	if destination.PrimaryIdentifier != "" && destination.PrimaryIdentifier != origin.PrimaryIdentifier {
		stopTimes = append(stopTimes, &ctdf.StopTime{
			StopRef:      destination.PrimaryIdentifier,
			Stop:         destination,
			StopSequence: 2,
		})
	}

	return &ctdf.Trip{
		PrimaryIdentifier: identifier,
		ShortName:         record.TripShortName,
		ServiceDate:       serviceDate,
		StopTimes:         stopTimes,
		Unscheduled:       true,
	}
}

// liveDestination is the stop the board names, or a bare stop carrying only the name
func (r *Resolver) liveDestination(ctx context.Context, record *ctdf.RealtimeRecord) *ctdf.Stop {
	if record.DestinationStopID != "" {
		if stop, err := r.Store.GetStop(ctx, record.DestinationStopID); err == nil {
			if record.DestinationName != "" {
				stop.PrimaryName = record.DestinationName
			}
			return stop
		}
	}

	if record.DestinationName != "" {
		if stop, err := r.Store.GetStopByName(ctx, record.DestinationName); err == nil {
			return stop
		}
	}

	return &ctdf.Stop{
		PrimaryName: record.DestinationName,
		StatusID:    ctdf.StopStatusIDUnsupported,
	}
}

func (r *Resolver) lookupStop(ctx context.Context, stopID string) *ctdf.Stop {
	stop, err := r.Store.GetStop(ctx, stopID)
	if err != nil {
		if !errors.Is(err, schedule.ErrNotFound) {
			log.Error().Err(err).Str("stop", stopID).Msg("Failed to look up stop")
		}
		return &ctdf.Stop{PrimaryIdentifier: stopID, PrimaryName: stopID, StatusID: ctdf.StopStatusIDUnsupported}
	}
	return stop
}

func (r *Resolver) candidateServiceDays(scheduled time.Time) []time.Time {
	local := scheduled.In(r.Location)
	return []time.Time{util.StartOfDay(local), util.PreviousDay(local)}
}

func (r *Resolver) logLookupError(err error, record *ctdf.RealtimeRecord) {
	if errors.Is(err, schedule.ErrNotFound) {
		return
	}
	log.Error().Err(err).Str("train", record.TripShortName).Msg("Failed to look up scheduled trip")
}
