package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/right-track/right-track-agency-lirr/pkg/ctdf"
	"github.com/right-track/right-track-agency-lirr/pkg/util"
)

var ErrNotFound = errors.New("not found in schedule")

// Store is the read-only static schedule, only ever used for point lookups.
// Trips are returned with ServiceDate set to the requested service day and
// callers own the returned values.
type Store interface {
	GetStop(ctx context.Context, id string) (*ctdf.Stop, error)
	GetStopByName(ctx context.Context, name string) (*ctdf.Stop, error)
	ListStops(ctx context.Context) ([]*ctdf.Stop, error)

	GetTrip(ctx context.Context, id string, serviceDate time.Time) (*ctdf.Trip, error)
	GetTripByShortName(ctx context.Context, shortName string, serviceDate time.Time) (*ctdf.Trip, error)
	GetTripByDeparture(ctx context.Context, origin string, destination string, departure time.Time) (*ctdf.Trip, error)

	GetRoute(ctx context.Context, id string) (*ctdf.Route, error)

	// GetNextStops lists the stops reachable without changing trains from origin
	GetNextStops(ctx context.Context, origin string) ([]*ctdf.Stop, error)
}

// departsBetween reports if the trip calls at origin and later at destination,
// leaving origin at departure when run on serviceDate
func departsBetween(trip *ctdf.Trip, origin string, destination string, departure time.Time, serviceDate time.Time) bool {
	originStopTime := trip.GetStopTime(origin)
	destinationStopTime := trip.GetStopTime(destination)

	if originStopTime == nil || destinationStopTime == nil {
		return false
	}
	if originStopTime.StopSequence >= destinationStopTime.StopSequence {
		return false
	}

	scheduled := util.ServiceDayOrigin(serviceDate).Add(originStopTime.DepartureTime)

	return scheduled.Truncate(time.Minute).Equal(departure.Truncate(time.Minute))
}

// candidateServiceDays are the service days a departure can belong to,
// trips running past midnight keep the previous day's service date
func candidateServiceDays(departure time.Time) []time.Time {
	return []time.Time{
		util.StartOfDay(departure),
		util.PreviousDay(departure),
	}
}

func stopsAfter(trip *ctdf.Trip, origin string) []string {
	var stops []string
	seenOrigin := false

	for _, stopTime := range trip.StopTimes {
		if seenOrigin {
			stops = append(stops, stopTime.StopRef)
		}
		if stopTime.StopRef == origin {
			seenOrigin = true
		}
	}

	return stops
}
