package dataaggregator

import (
	"time"

	"github.com/right-track/right-track-agency-lirr/pkg/config"
	"github.com/right-track/right-track-agency-lirr/pkg/ctdf"
	"github.com/right-track/right-track-agency-lirr/pkg/util"
)

// Keep decides if a departure is still worth showing on the feed for origin at now
func Keep(departure *ctdf.Departure, origin *ctdf.Stop, now time.Time, windows config.WindowSettings) bool {
	delta := departure.EffectiveDeparture().Sub(now)

	if delta <= -windows.MaxDeparted {
		return false
	}

	if hasLeft(departure, origin) && delta < -windows.DepartedGrace {
		return false
	}

	if delta > windows.MaxFuture {
		return false
	}

	return true
}

// FilterDepartures drops every departure Keep rejects, keeping the order of the rest
func FilterDepartures(departures []*ctdf.Departure, origin *ctdf.Stop, now time.Time, windows config.WindowSettings) []*ctdf.Departure {
	util.InPlaceFilter(&departures, func(departure *ctdf.Departure) bool {
		return Keep(departure, origin, now, windows)
	})

	return departures
}

// hasLeft is true once the train has gone, or has arrived at origin as its terminal
func hasLeft(departure *ctdf.Departure, origin *ctdf.Stop) bool {
	if departure.Status == nil {
		return false
	}

	switch departure.Status.Label {
	case ctdf.DepartureStatusDeparted:
		return true
	case ctdf.DepartureStatusArrived:
		terminal := departure.Trip.DestinationStopTime()
		return terminal != nil && origin != nil && terminal.StopRef == origin.PrimaryIdentifier
	}

	return false
}
