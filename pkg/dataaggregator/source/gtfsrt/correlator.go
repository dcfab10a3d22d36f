package gtfsrt

import (
	"sort"
	"strings"
	"time"

	"github.com/right-track/right-track-agency-lirr/pkg/ctdf"
)

type Suffixes struct {
	TripUpdate string
	Vehicle    string
}

// CombinedEntity is the trip update and vehicle halves of one logical trip, either may be missing
type CombinedEntity struct {
	ID         string
	TripUpdate *TripUpdate
	Vehicle    *VehiclePosition
}

type CorrelatedFeed struct {
	Updated time.Time

	Combined map[string]*CombinedEntity `json:"-"`

	Trips map[string]*ctdf.RealtimeTrip
	Stops map[string][]*ctdf.RealtimeRecord
}

// LogicalID strips the trip update or vehicle suffix from an entity id
func (s Suffixes) LogicalID(entityID string) string {
	if hasSuffix(entityID, s.TripUpdate) {
		return strings.TrimSuffix(entityID, s.TripUpdate)
	}
	if hasSuffix(entityID, s.Vehicle) {
		return strings.TrimSuffix(entityID, s.Vehicle)
	}
	return entityID
}

func hasSuffix(value string, suffix string) bool {
	return suffix != "" && strings.HasSuffix(value, suffix)
}

func Correlate(feed *Feed, suffixes Suffixes) *CorrelatedFeed {
	correlated := &CorrelatedFeed{
		Updated:  feed.Updated,
		Combined: map[string]*CombinedEntity{},
		Trips:    map[string]*ctdf.RealtimeTrip{},
		Stops:    map[string][]*ctdf.RealtimeRecord{},
	}

	var order []string
	for _, entity := range feed.Entities {
		logicalID := suffixes.LogicalID(entity.ID)

		combined, exists := correlated.Combined[logicalID]
		if !exists {
			combined = &CombinedEntity{ID: logicalID}
			correlated.Combined[logicalID] = combined
			order = append(order, logicalID)
		}

		// Ids without a recognised suffix contribute whichever half they carry
		if entity.TripUpdate != nil && !hasSuffix(entity.ID, suffixes.Vehicle) {
			combined.TripUpdate = entity.TripUpdate
		}
		if entity.Vehicle != nil && !hasSuffix(entity.ID, suffixes.TripUpdate) {
			combined.Vehicle = entity.Vehicle
		}
	}

	for _, logicalID := range order {
		combined := correlated.Combined[logicalID]

		trip := buildRealtimeTrip(combined)
		correlated.Trips[logicalID] = trip

		for _, stop := range trip.Stops {
			correlated.Stops[stop.StopID] = append(correlated.Stops[stop.StopID], stop)
		}
	}

	for stopID := range correlated.Stops {
		records := correlated.Stops[stopID]
		sort.SliceStable(records, func(i, j int) bool {
			a, _ := records[i].EstimatedTime()
			b, _ := records[j].EstimatedTime()
			return a.Before(b)
		})
	}

	return correlated
}

func buildRealtimeTrip(combined *CombinedEntity) *ctdf.RealtimeTrip {
	trip := &ctdf.RealtimeTrip{
		TripID: combined.ID,
	}

	if combined.Vehicle != nil {
		trip.Vehicle = &ctdf.VehicleRecord{
			Latitude:      combined.Vehicle.Latitude,
			Longitude:     combined.Vehicle.Longitude,
			CurrentStatus: combined.Vehicle.CurrentStatus,
			StopID:        combined.Vehicle.StopID,
			Updated:       combined.Vehicle.Updated,
		}
	}

	tripUpdate := combined.TripUpdate
	if tripUpdate == nil {
		return trip
	}

	trip.RouteID = tripUpdate.RouteID
	trip.StartDate = tripUpdate.StartDate
	trip.Cancelled = tripUpdate.Cancelled

	for _, stopTimeUpdate := range tripUpdate.StopTimeUpdates {
		if stopTimeUpdate.Skipped {
			continue
		}

		trip.Stops = append(trip.Stops, &ctdf.RealtimeRecord{
			Source:       ctdf.RealtimeRecordSourceGTFSRT,
			TripID:       combined.ID,
			StopID:       stopTimeUpdate.StopID,
			StopSequence: stopTimeUpdate.StopSequence,
			Arrival:      stopTimeUpdate.Arrival,
			Departure:    stopTimeUpdate.Departure,
			Track:        stopTimeUpdate.Track,
			StatusText:   stopTimeUpdate.TrainStatus,
			Delay:        stopTimeUpdate.Delay,
		})
	}

	if len(trip.Stops) > 0 {
		trip.DestinationStopID = trip.Stops[len(trip.Stops)-1].StopID
	}
	for _, stop := range trip.Stops {
		stop.DestinationStopID = trip.DestinationStopID
	}

	return trip
}
