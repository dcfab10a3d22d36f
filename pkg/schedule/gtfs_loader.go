package schedule

import (
	"fmt"
	"os"
	"time"

	"github.com/jamespfennell/gtfs"
	"github.com/right-track/right-track-agency-lirr/pkg/ctdf"
	"github.com/rs/zerolog/log"
)

// LoadGTFS builds a MemoryStore from a GTFS static zip archive
func LoadGTFS(path string) (*MemoryStore, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading gtfs archive %s: %w", path, err)
	}

	return ParseGTFS(content)
}

func ParseGTFS(content []byte) (*MemoryStore, error) {
	static, err := gtfs.ParseStatic(content, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("parsing gtfs archive: %w", err)
	}

	store := NewMemoryStore()

	for _, stop := range static.Stops {
		ctdfStop := &ctdf.Stop{
			PrimaryIdentifier: stop.Id,
			PrimaryName:       stop.Name,
			StatusID:          stop.Id,
			URL:               stop.Url,
		}
		if stop.Latitude != nil && stop.Longitude != nil {
			ctdfStop.Location = ctdf.NewPointLocation(*stop.Latitude, *stop.Longitude)
		}

		store.AddStop(ctdfStop)
	}

	for _, route := range static.Routes {
		store.AddRoute(&ctdf.Route{
			PrimaryIdentifier: route.Id,
			ShortName:         route.ShortName,
			LongName:          route.LongName,
		})
	}

	for _, service := range static.Services {
		calendar := &ctdf.ServiceCalendar{
			PrimaryIdentifier: service.Id,
			StartDate:         service.StartDate,
			EndDate:           service.EndDate,
			AddedDates:        service.AddedDates,
			RemovedDates:      service.RemovedDates,
		}
		calendar.Weekdays[time.Monday] = service.Monday
		calendar.Weekdays[time.Tuesday] = service.Tuesday
		calendar.Weekdays[time.Wednesday] = service.Wednesday
		calendar.Weekdays[time.Thursday] = service.Thursday
		calendar.Weekdays[time.Friday] = service.Friday
		calendar.Weekdays[time.Saturday] = service.Saturday
		calendar.Weekdays[time.Sunday] = service.Sunday

		store.AddService(calendar)
	}

	for i := range static.Trips {
		store.AddTrip(convertTrip(&static.Trips[i]))
	}

	log.Info().
		Int("stops", len(store.stops)).
		Int("routes", len(store.routes)).
		Int("trips", len(store.trips)).
		Msg("Loaded GTFS schedule")

	return store, nil
}

func convertTrip(scheduledTrip *gtfs.ScheduledTrip) *ctdf.Trip {
	trip := &ctdf.Trip{
		PrimaryIdentifier: scheduledTrip.ID,
		ShortName:         scheduledTrip.ShortName,
	}

	if scheduledTrip.Route != nil {
		trip.RouteRef = scheduledTrip.Route.Id
	}
	if scheduledTrip.Service != nil {
		trip.ServiceRef = scheduledTrip.Service.Id
	}

	// The gtfs package stores direction_id 1 as 1 and direction_id 0 as 2
	var directionID int
	switch uint8(scheduledTrip.DirectionId) {
	case 1:
		directionID = 1
		trip.DirectionID = &directionID
	case 2:
		directionID = 0
		trip.DirectionID = &directionID
	}

	for _, stopTime := range scheduledTrip.StopTimes {
		if stopTime.Stop == nil {
			continue
		}

		trip.StopTimes = append(trip.StopTimes, &ctdf.StopTime{
			StopRef:       stopTime.Stop.Id,
			ArrivalTime:   stopTime.ArrivalTime,
			DepartureTime: stopTime.DepartureTime,
			StopSequence:  stopTime.StopSequence,
		})
	}

	return trip
}
