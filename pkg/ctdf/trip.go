package ctdf

import (
	"time"

	"github.com/right-track/right-track-agency-lirr/pkg/util"
)

type Trip struct {
	PrimaryIdentifier string `groups:"basic" json:"id"`
	ShortName         string `groups:"basic" json:"shortName,omitempty"`

	RouteRef string `groups:"internal" json:"routeId,omitempty"`
	Route    *Route `groups:"basic" json:"route,omitempty" bson:"-"`

	ServiceRef  string    `groups:"internal" json:"serviceId,omitempty"`
	ServiceDate time.Time `groups:"basic" json:"serviceDate" bson:"-"`

	DirectionID *int `groups:"detailed" json:"directionId,omitempty"`

	// Peak is the weekday code of a peak trip, 0 when off peak
	Peak int `groups:"detailed" json:"peak"`

	StopTimes []*StopTime `groups:"detailed" json:"stopTimes"`

	// Unscheduled trips are built from live data when the static schedule has no match
	Unscheduled bool `groups:"basic" json:"unscheduled"`
}

type StopTime struct {
	StopRef string `groups:"internal" json:"stopId"`
	Stop    *Stop  `groups:"detailed" json:"stop,omitempty" bson:"-"`

	// Offsets from noon minus 12 hours of the service day, may go beyond 24 hours
	ArrivalTime   time.Duration `groups:"detailed" json:"arrivalTime"`
	DepartureTime time.Duration `groups:"detailed" json:"departureTime"`

	StopSequence int `groups:"detailed" json:"stopSequence"`
}

func (t *Trip) GetStopTime(stopRef string) *StopTime {
	if t == nil {
		return nil
	}

	for _, stopTime := range t.StopTimes {
		if stopTime.StopRef == stopRef {
			return stopTime
		}
	}

	return nil
}

func (t *Trip) HasStopTime(stopRef string) bool {
	return t.GetStopTime(stopRef) != nil
}

// DestinationStopTime is the last stop time of the trip
func (t *Trip) DestinationStopTime() *StopTime {
	if t == nil || len(t.StopTimes) == 0 {
		return nil
	}

	return t.StopTimes[len(t.StopTimes)-1]
}

// DepartureAt returns the absolute scheduled departure from the stop
func (t *Trip) DepartureAt(stopRef string) (time.Time, bool) {
	stopTime := t.GetStopTime(stopRef)
	if stopTime == nil || t.ServiceDate.IsZero() {
		return time.Time{}, false
	}

	offset := stopTime.DepartureTime
	if offset == 0 {
		offset = stopTime.ArrivalTime
	}

	return util.ServiceDayOrigin(t.ServiceDate).Add(offset), true
}
