package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/jinzhu/copier"
	"github.com/right-track/right-track-agency-lirr/pkg/ctdf"
	"github.com/right-track/right-track-agency-lirr/pkg/util"
)

// MemoryStore keeps the whole schedule in memory, it is built once and then only read
type MemoryStore struct {
	stops       map[string]*ctdf.Stop
	stopsByName map[string]*ctdf.Stop
	routes      map[string]*ctdf.Route
	services    map[string]*ctdf.ServiceCalendar

	trips            map[string]*ctdf.Trip
	tripsByShortName map[string][]*ctdf.Trip
	tripsByStop      map[string][]*ctdf.Trip
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stops:            map[string]*ctdf.Stop{},
		stopsByName:      map[string]*ctdf.Stop{},
		routes:           map[string]*ctdf.Route{},
		services:         map[string]*ctdf.ServiceCalendar{},
		trips:            map[string]*ctdf.Trip{},
		tripsByShortName: map[string][]*ctdf.Trip{},
		tripsByStop:      map[string][]*ctdf.Trip{},
	}
}

func (s *MemoryStore) AddStop(stop *ctdf.Stop) {
	s.stops[stop.PrimaryIdentifier] = stop
	s.stopsByName[util.NormaliseName(stop.PrimaryName)] = stop
}

func (s *MemoryStore) AddRoute(route *ctdf.Route) {
	s.routes[route.PrimaryIdentifier] = route
}

func (s *MemoryStore) AddService(service *ctdf.ServiceCalendar) {
	s.services[service.PrimaryIdentifier] = service
}

func (s *MemoryStore) AddTrip(trip *ctdf.Trip) {
	sort.SliceStable(trip.StopTimes, func(i, j int) bool {
		return trip.StopTimes[i].StopSequence < trip.StopTimes[j].StopSequence
	})

	s.trips[trip.PrimaryIdentifier] = trip

	if trip.ShortName != "" {
		s.tripsByShortName[trip.ShortName] = append(s.tripsByShortName[trip.ShortName], trip)
	}
	for _, stopTime := range trip.StopTimes {
		s.tripsByStop[stopTime.StopRef] = append(s.tripsByStop[stopTime.StopRef], trip)
	}
}

func (s *MemoryStore) Stops() []*ctdf.Stop {
	stops := make([]*ctdf.Stop, 0, len(s.stops))
	for _, stop := range s.stops {
		stops = append(stops, stop)
	}
	sort.Slice(stops, func(i, j int) bool {
		return stops[i].PrimaryIdentifier < stops[j].PrimaryIdentifier
	})
	return stops
}

func (s *MemoryStore) Routes() []*ctdf.Route {
	routes := make([]*ctdf.Route, 0, len(s.routes))
	for _, route := range s.routes {
		routes = append(routes, route)
	}
	return routes
}

func (s *MemoryStore) Services() []*ctdf.ServiceCalendar {
	services := make([]*ctdf.ServiceCalendar, 0, len(s.services))
	for _, service := range s.services {
		services = append(services, service)
	}
	return services
}

func (s *MemoryStore) Trips() []*ctdf.Trip {
	trips := make([]*ctdf.Trip, 0, len(s.trips))
	for _, trip := range s.trips {
		trips = append(trips, trip)
	}
	return trips
}

func (s *MemoryStore) GetStop(_ context.Context, id string) (*ctdf.Stop, error) {
	stop, exists := s.stops[id]
	if !exists {
		return nil, ErrNotFound
	}
	return copyStop(stop)
}

func (s *MemoryStore) GetStopByName(_ context.Context, name string) (*ctdf.Stop, error) {
	stop, exists := s.stopsByName[util.NormaliseName(name)]
	if !exists {
		return nil, ErrNotFound
	}
	return copyStop(stop)
}

func (s *MemoryStore) ListStops(_ context.Context) ([]*ctdf.Stop, error) {
	var stops []*ctdf.Stop
	for _, stop := range s.Stops() {
		stopCopy, err := copyStop(stop)
		if err != nil {
			return nil, err
		}
		stops = append(stops, stopCopy)
	}
	return stops, nil
}

func (s *MemoryStore) GetRoute(_ context.Context, id string) (*ctdf.Route, error) {
	route, exists := s.routes[id]
	if !exists {
		return nil, ErrNotFound
	}

	routeCopy := &ctdf.Route{}
	if err := copier.Copy(routeCopy, route); err != nil {
		return nil, err
	}
	return routeCopy, nil
}

func (s *MemoryStore) GetTrip(_ context.Context, id string, serviceDate time.Time) (*ctdf.Trip, error) {
	trip, exists := s.trips[id]
	if !exists || !s.runsOn(trip, serviceDate) {
		return nil, ErrNotFound
	}
	return s.copyTrip(trip, serviceDate)
}

func (s *MemoryStore) GetTripByShortName(_ context.Context, shortName string, serviceDate time.Time) (*ctdf.Trip, error) {
	for _, trip := range s.tripsByShortName[shortName] {
		if s.runsOn(trip, serviceDate) {
			return s.copyTrip(trip, serviceDate)
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetTripByDeparture(_ context.Context, origin string, destination string, departure time.Time) (*ctdf.Trip, error) {
	for _, serviceDate := range candidateServiceDays(departure) {
		for _, trip := range s.tripsByStop[origin] {
			if s.runsOn(trip, serviceDate) && departsBetween(trip, origin, destination, departure, serviceDate) {
				return s.copyTrip(trip, serviceDate)
			}
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetNextStops(_ context.Context, origin string) ([]*ctdf.Stop, error) {
	if _, exists := s.stops[origin]; !exists {
		return nil, ErrNotFound
	}

	var stopIDs []string
	for _, trip := range s.tripsByStop[origin] {
		stopIDs = append(stopIDs, stopsAfter(trip, origin)...)
	}
	stopIDs = util.RemoveDuplicateStrings(stopIDs, []string{origin})
	sort.Strings(stopIDs)

	var stops []*ctdf.Stop
	for _, stopID := range stopIDs {
		stop, exists := s.stops[stopID]
		if !exists {
			continue
		}
		stopCopy, err := copyStop(stop)
		if err != nil {
			return nil, err
		}
		stops = append(stops, stopCopy)
	}

	return stops, nil
}

// runsOn treats trips without a known calendar as running every day
func (s *MemoryStore) runsOn(trip *ctdf.Trip, serviceDate time.Time) bool {
	service, exists := s.services[trip.ServiceRef]
	if !exists {
		return true
	}
	return service.MatchDate(serviceDate)
}

func (s *MemoryStore) copyTrip(trip *ctdf.Trip, serviceDate time.Time) (*ctdf.Trip, error) {
	tripCopy := &ctdf.Trip{}
	if err := copier.CopyWithOption(tripCopy, trip, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}

	tripCopy.ServiceDate = util.StartOfDay(serviceDate)
	if route, exists := s.routes[trip.RouteRef]; exists {
		tripCopy.Route = &ctdf.Route{}
		if err := copier.Copy(tripCopy.Route, route); err != nil {
			return nil, err
		}
	}

	for _, stopTime := range tripCopy.StopTimes {
		if stop, exists := s.stops[stopTime.StopRef]; exists {
			stopCopy, err := copyStop(stop)
			if err != nil {
				return nil, err
			}
			stopTime.Stop = stopCopy
		}
	}

	return tripCopy, nil
}

func copyStop(stop *ctdf.Stop) (*ctdf.Stop, error) {
	stopCopy := &ctdf.Stop{}
	if err := copier.CopyWithOption(stopCopy, stop, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	return stopCopy, nil
}
