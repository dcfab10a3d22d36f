package peak

import (
	"time"

	"github.com/right-track/right-track-agency-lirr/pkg/ctdf"
	"github.com/right-track/right-track-agency-lirr/pkg/util"
	"golang.org/x/exp/slices"
)

// TerminalStopIDs are the City Terminal Zone stops
var TerminalStopIDs = []string{"8", "12", "1", "2", "15"}

const (
	DayCodeNone    = -1
	DayCodeWeekend = 0
	DayCodeWeekday = 1
	DayCodeMixed   = 2
)

const (
	directionOutbound = 0
	directionInbound  = 1
)

var (
	morningPeakStart = 6 * time.Hour
	morningPeakEnd   = 10 * time.Hour
	eveningPeakStart = 16 * time.Hour
	eveningPeakEnd   = 20 * time.Hour
)

type Classifier struct {
	Holidays Holidays
}

// Classify returns the day code of a peak trip and 0 for an off peak one.
// A trip is peak when it runs on weekdays and reaches a terminal in the morning
// peak inbound, or leaves one in the evening peak outbound.
func (c *Classifier) Classify(trip *ctdf.Trip, service *ctdf.ServiceCalendar) int {
	if !stopsAtTerminal(trip) {
		return 0
	}

	dayCode := c.DayCode(service)
	if dayCode <= DayCodeWeekend {
		return 0
	}

	if !operatesDuringPeak(trip) {
		return 0
	}

	return dayCode
}

// DayCode describes the days a service runs on, ignoring added dates that are holidays without peak service
func (c *Classifier) DayCode(service *ctdf.ServiceCalendar) int {
	if service == nil {
		return DayCodeNone
	}

	weekday := service.RunsOnWeekday()
	weekend := service.RunsOnWeekend()

	for _, added := range service.AddedDates {
		if c.Holidays.IsHoliday(added) {
			continue
		}

		switch added.Weekday() {
		case time.Saturday, time.Sunday:
			weekend = true
		default:
			weekday = true
		}
	}

	switch {
	case weekday && weekend:
		return DayCodeMixed
	case weekday:
		return DayCodeWeekday
	case weekend:
		return DayCodeWeekend
	default:
		return DayCodeNone
	}
}

func stopsAtTerminal(trip *ctdf.Trip) bool {
	for _, stopTime := range trip.StopTimes {
		if slices.Contains(TerminalStopIDs, stopTime.StopRef) {
			return true
		}
	}
	return false
}

func operatesDuringPeak(trip *ctdf.Trip) bool {
	if trip.DirectionID == nil {
		return false
	}

	for _, stopTime := range trip.StopTimes {
		if !slices.Contains(TerminalStopIDs, stopTime.StopRef) {
			continue
		}

		switch *trip.DirectionID {
		case directionInbound:
			if between(stopTime.ArrivalTime, morningPeakStart, morningPeakEnd) {
				return true
			}
		case directionOutbound:
			if between(stopTime.DepartureTime, eveningPeakStart, eveningPeakEnd) {
				return true
			}
		}
	}

	return false
}

func between(offset time.Duration, start time.Duration, end time.Duration) bool {
	return offset >= start && offset <= end
}

// ClassifyAll sets Peak on every trip, looking services up by their reference
func (c *Classifier) ClassifyAll(trips []*ctdf.Trip, services []*ctdf.ServiceCalendar) int {
	servicesByRef := map[string]*ctdf.ServiceCalendar{}
	for _, service := range services {
		servicesByRef[service.PrimaryIdentifier] = service
	}

	peakTrips := 0
	for _, trip := range trips {
		trip.Peak = c.Classify(trip, servicesByRef[trip.ServiceRef])
		if trip.Peak > 0 {
			peakTrips++
		}
	}

	return peakTrips
}

func serviceDateKey(date time.Time) string {
	return date.Format(util.ServiceDateFormat)
}
