package ctdf

import (
	"time"
)

const (
	DepartureStatusOnTime    = "On Time"
	DepartureStatusArriving  = "Arriving"
	DepartureStatusArrived   = "Arrived"
	DepartureStatusDeparted  = "Departed"
	DepartureStatusHeld      = "Held"
	DepartureStatusCancelled = "Cancelled"
	DepartureStatusScheduled = "Scheduled"

	DepartureStatusLatePrefix = "Late"
)

const DepartureRemarkUnscheduled = "Unscheduled Trip"

type Departure struct {
	ScheduledDeparture time.Time `groups:"basic" json:"scheduledDeparture"`

	Destination *Stop `groups:"basic" json:"destination"`
	Trip        *Trip `groups:"basic" json:"trip"`

	Status   *DepartureStatus   `groups:"basic" json:"status"`
	Position *DeparturePosition `groups:"basic" json:"position,omitempty"`
}

// EffectiveDeparture is the estimated departure when known, otherwise the scheduled one
func (d *Departure) EffectiveDeparture() time.Time {
	if d.Status != nil && !d.Status.EstimatedDeparture.IsZero() {
		return d.Status.EstimatedDeparture
	}
	return d.ScheduledDeparture
}

func (d *Departure) TripIdentifier() string {
	if d.Trip == nil {
		return ""
	}
	return d.Trip.PrimaryIdentifier
}

func (d *Departure) DestinationName() string {
	if d.Destination == nil {
		return ""
	}
	return d.Destination.PrimaryName
}

type DepartureStatus struct {
	Label string `groups:"basic" json:"label"`

	// Never negative
	DelaySeconds       int       `groups:"basic" json:"delaySeconds"`
	EstimatedDeparture time.Time `groups:"basic" json:"estimatedDeparture"`

	Track  string `groups:"basic" json:"track"`
	Remark string `groups:"basic" json:"remark,omitempty"`
}

type DeparturePosition struct {
	Latitude    float64   `groups:"basic" json:"lat"`
	Longitude   float64   `groups:"basic" json:"lon"`
	Description string    `groups:"basic" json:"description"`
	Updated     time.Time `groups:"basic" json:"updated"`
}
