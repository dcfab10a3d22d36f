package gtfsrt

import (
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/right-track/right-track-agency-lirr/pkg/ctdf"
	"github.com/right-track/right-track-agency-lirr/pkg/dataaggregator/source"
	"google.golang.org/protobuf/proto"
)

type Feed struct {
	// Zero when the feed header has no timestamp
	Updated  time.Time
	Entities []*Entity
}

type Entity struct {
	ID         string
	TripUpdate *TripUpdate
	Vehicle    *VehiclePosition
}

type TripUpdate struct {
	TripID    string
	RouteID   string
	StartDate string
	Cancelled bool

	StopTimeUpdates []*StopTimeUpdate
}

type StopTimeUpdate struct {
	StopID       string
	StopSequence int

	Arrival   time.Time
	Departure time.Time
	Delay     *time.Duration

	Track       string
	TrainStatus string

	Skipped bool
}

type VehiclePosition struct {
	Latitude  *float64
	Longitude *float64

	CurrentStatus *ctdf.VehicleStopStatus
	StopID        string
	Updated       time.Time
}

// Decode parses a serialised GTFS-realtime FeedMessage including the MTA railroad stop extension
func Decode(raw []byte) (*Feed, error) {
	feedMessage := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(raw, feedMessage); err != nil {
		return nil, source.NewError(source.ErrorDecodeFailure, "Malformed GTFS-RT payload", err)
	}

	feed := &Feed{
		Updated: convertTimestamp(feedMessage.GetHeader().GetTimestamp()),
	}

	for _, feedEntity := range feedMessage.GetEntity() {
		entity := &Entity{
			ID: feedEntity.GetId(),
		}

		if tripUpdate := feedEntity.GetTripUpdate(); tripUpdate != nil {
			entity.TripUpdate = decodeTripUpdate(tripUpdate)
		}
		if vehicle := feedEntity.GetVehicle(); vehicle != nil {
			entity.Vehicle = decodeVehicle(vehicle)
		}

		feed.Entities = append(feed.Entities, entity)
	}

	return feed, nil
}

func decodeTripUpdate(tripUpdate *gtfs.TripUpdate) *TripUpdate {
	trip := tripUpdate.GetTrip()

	decoded := &TripUpdate{
		TripID:    trip.GetTripId(),
		RouteID:   trip.GetRouteId(),
		StartDate: trip.GetStartDate(),
		Cancelled: trip.GetScheduleRelationship() == gtfs.TripDescriptor_CANCELED,
	}

	for _, stopTimeUpdate := range tripUpdate.GetStopTimeUpdate() {
		decodedStop := &StopTimeUpdate{
			StopID:       stopTimeUpdate.GetStopId(),
			StopSequence: int(stopTimeUpdate.GetStopSequence()),
			Arrival:      convertEventTime(stopTimeUpdate.GetArrival()),
			Departure:    convertEventTime(stopTimeUpdate.GetDeparture()),
			Skipped:      stopTimeUpdate.GetScheduleRelationship() == gtfs.TripUpdate_StopTimeUpdate_SKIPPED,
		}

		if departure := stopTimeUpdate.GetDeparture(); departure != nil && departure.Delay != nil {
			delay := time.Duration(departure.GetDelay()) * time.Second
			decodedStop.Delay = &delay
		} else if arrival := stopTimeUpdate.GetArrival(); arrival != nil && arrival.Delay != nil {
			delay := time.Duration(arrival.GetDelay()) * time.Second
			decodedStop.Delay = &delay
		}

		if railroad := railroadStopTimeUpdate(stopTimeUpdate); railroad != nil {
			decodedStop.Track = railroad.Track
			decodedStop.TrainStatus = railroad.TrainStatus
		}

		decoded.StopTimeUpdates = append(decoded.StopTimeUpdates, decodedStop)
	}

	return decoded
}

func decodeVehicle(vehicle *gtfs.VehiclePosition) *VehiclePosition {
	decoded := &VehiclePosition{
		StopID:  vehicle.GetStopId(),
		Updated: convertTimestamp(vehicle.GetTimestamp()),
	}

	if position := vehicle.GetPosition(); position != nil {
		latitude := float64(position.GetLatitude())
		longitude := float64(position.GetLongitude())

		decoded.Latitude = &latitude
		decoded.Longitude = &longitude
	}

	if vehicle.CurrentStatus != nil {
		status := ctdf.VehicleStopStatus(vehicle.GetCurrentStatus())
		decoded.CurrentStatus = &status
	}

	return decoded
}

func convertEventTime(event *gtfs.TripUpdate_StopTimeEvent) time.Time {
	if event == nil || event.GetTime() == 0 {
		return time.Time{}
	}
	return time.Unix(event.GetTime(), 0)
}

func convertTimestamp(timestamp uint64) time.Time {
	if timestamp == 0 {
		return time.Time{}
	}
	return time.Unix(int64(timestamp), 0)
}
