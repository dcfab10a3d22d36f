package ctdf

import "time"

type RealtimeRecordSource string

const (
	RealtimeRecordSourceGTFSRT         RealtimeRecordSource = "GTFS-RT"
	RealtimeRecordSourceDepartureBoard RealtimeRecordSource = "DepartureBoard"
)

// RealtimeRecord is a single live observation of a trip at a stop, decoded from any source
type RealtimeRecord struct {
	Source RealtimeRecordSource

	TripID        string `json:",omitempty"`
	TripShortName string `json:",omitempty"`
	StopID        string
	StopSequence  int `json:",omitempty"`

	DestinationStopID string `json:",omitempty"`
	DestinationName   string `json:",omitempty"`

	// ViaStopID is a later stop the trip is known to call at
	ViaStopID string `json:",omitempty"`

	ScheduledTime time.Time `json:",omitempty"`
	Arrival       time.Time `json:",omitempty"`
	Departure     time.Time `json:",omitempty"`

	Track      string `json:",omitempty"`
	StatusText string `json:",omitempty"`

	// Delay is only set when the source reports one
	Delay    *time.Duration `json:",omitempty"`
	Departed bool           `json:",omitempty"`

	Vehicle *VehicleRecord `json:",omitempty"`
}

// EstimatedTime is the departure time, or the arrival time when the record has no departure
func (r *RealtimeRecord) EstimatedTime() (time.Time, bool) {
	if !r.Departure.IsZero() {
		return r.Departure, true
	}
	if !r.Arrival.IsZero() {
		return r.Arrival, true
	}
	return time.Time{}, false
}

func (r *RealtimeRecord) HasTimestamp() bool {
	return !r.Arrival.IsZero() || !r.Departure.IsZero()
}

type VehicleStopStatus int

const (
	VehicleStopStatusIncomingAt  VehicleStopStatus = 0
	VehicleStopStatusStoppedAt   VehicleStopStatus = 1
	VehicleStopStatusInTransitTo VehicleStopStatus = 2
)

type VehicleRecord struct {
	Latitude  *float64 `json:",omitempty"`
	Longitude *float64 `json:",omitempty"`

	CurrentStatus *VehicleStopStatus `json:",omitempty"`
	StopID        string             `json:",omitempty"`

	Updated time.Time `json:",omitempty"`
}

// RealtimeTrip holds everything a live source knows about a single trip
type RealtimeTrip struct {
	TripID    string
	RouteID   string `json:",omitempty"`
	StartDate string `json:",omitempty"`

	Cancelled bool `json:",omitempty"`

	DestinationStopID string `json:",omitempty"`

	Stops   []*RealtimeRecord
	Vehicle *VehicleRecord `json:",omitempty"`
}

func (t *RealtimeTrip) GetStop(stopID string) *RealtimeRecord {
	if t == nil {
		return nil
	}

	for _, stop := range t.Stops {
		if stop.StopID == stopID {
			return stop
		}
	}
	return nil
}
