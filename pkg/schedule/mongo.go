package schedule

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/right-track/right-track-agency-lirr/pkg/ctdf"
	"github.com/right-track/right-track-agency-lirr/pkg/database"
	"github.com/right-track/right-track-agency-lirr/pkg/util"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const importBatchSize = 1000

// MongoStore reads the compiled schedule from the stops, trips, routes and services collections
type MongoStore struct {
	Database *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		Database: db,
	}
}

func (m *MongoStore) collection(name string) *mongo.Collection {
	return m.Database.Collection(name)
}

func (m *MongoStore) GetStop(ctx context.Context, id string) (*ctdf.Stop, error) {
	var stop *ctdf.Stop
	err := m.collection(database.StopsCollection).FindOne(ctx, bson.M{"primaryidentifier": id}).Decode(&stop)

	return stop, translateError(err)
}

func (m *MongoStore) GetStopByName(ctx context.Context, name string) (*ctdf.Stop, error) {
	findOptions := options.FindOne().SetCollation(&options.Collation{
		Locale:   "en",
		Strength: 2,
	})

	var stop *ctdf.Stop
	err := m.collection(database.StopsCollection).FindOne(ctx, bson.M{"primaryname": strings.TrimSpace(name)}, findOptions).Decode(&stop)

	return stop, translateError(err)
}

func (m *MongoStore) ListStops(ctx context.Context) ([]*ctdf.Stop, error) {
	cursor, err := m.collection(database.StopsCollection).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "primaryidentifier", Value: 1}}))
	if err != nil {
		return nil, err
	}

	var stops []*ctdf.Stop
	if err := cursor.All(ctx, &stops); err != nil {
		return nil, err
	}

	return stops, nil
}

func (m *MongoStore) GetRoute(ctx context.Context, id string) (*ctdf.Route, error) {
	var route *ctdf.Route
	err := m.collection(database.RoutesCollection).FindOne(ctx, bson.M{"primaryidentifier": id}).Decode(&route)

	return route, translateError(err)
}

func (m *MongoStore) GetTrip(ctx context.Context, id string, serviceDate time.Time) (*ctdf.Trip, error) {
	var trip *ctdf.Trip
	err := m.collection(database.TripsCollection).FindOne(ctx, bson.M{"primaryidentifier": id}).Decode(&trip)
	if err != nil {
		return nil, translateError(err)
	}

	runs, err := m.runsOn(ctx, trip, serviceDate)
	if err != nil {
		return nil, err
	}
	if !runs {
		return nil, ErrNotFound
	}

	return trip, m.populateTrip(ctx, trip, serviceDate)
}

func (m *MongoStore) GetTripByShortName(ctx context.Context, shortName string, serviceDate time.Time) (*ctdf.Trip, error) {
	trips, err := m.findTrips(ctx, bson.M{"shortname": shortName})
	if err != nil {
		return nil, err
	}

	for _, trip := range trips {
		runs, err := m.runsOn(ctx, trip, serviceDate)
		if err != nil {
			return nil, err
		}
		if runs {
			return trip, m.populateTrip(ctx, trip, serviceDate)
		}
	}

	return nil, ErrNotFound
}

func (m *MongoStore) GetTripByDeparture(ctx context.Context, origin string, destination string, departure time.Time) (*ctdf.Trip, error) {
	trips, err := m.findTrips(ctx, bson.M{
		"stoptimes.stopref": bson.M{"$all": bson.A{origin, destination}},
	})
	if err != nil {
		return nil, err
	}

	for _, serviceDate := range candidateServiceDays(departure) {
		for _, trip := range trips {
			if !departsBetween(trip, origin, destination, departure, serviceDate) {
				continue
			}

			runs, err := m.runsOn(ctx, trip, serviceDate)
			if err != nil {
				return nil, err
			}
			if runs {
				return trip, m.populateTrip(ctx, trip, serviceDate)
			}
		}
	}

	return nil, ErrNotFound
}

func (m *MongoStore) GetNextStops(ctx context.Context, origin string) ([]*ctdf.Stop, error) {
	trips, err := m.findTrips(ctx, bson.M{"stoptimes.stopref": origin})
	if err != nil {
		return nil, err
	}

	var stopIDs []string
	for _, trip := range trips {
		stopIDs = append(stopIDs, stopsAfter(trip, origin)...)
	}
	stopIDs = util.RemoveDuplicateStrings(stopIDs, []string{origin})

	if len(stopIDs) == 0 {
		return nil, nil
	}

	cursor, err := m.collection(database.StopsCollection).Find(ctx,
		bson.M{"primaryidentifier": bson.M{"$in": stopIDs}},
		options.Find().SetSort(bson.D{{Key: "primaryidentifier", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}

	var stops []*ctdf.Stop
	if err := cursor.All(ctx, &stops); err != nil {
		return nil, err
	}

	return stops, nil
}

// Import replaces the schedule collections with the contents of a MemoryStore
func (m *MongoStore) Import(ctx context.Context, store *MemoryStore) error {
	var stops []any
	for _, stop := range store.Stops() {
		stops = append(stops, stop)
	}
	var routes []any
	for _, route := range store.Routes() {
		routes = append(routes, route)
	}
	var services []any
	for _, service := range store.Services() {
		services = append(services, service)
	}
	var trips []any
	for _, trip := range store.Trips() {
		trips = append(trips, trip)
	}

	for collectionName, documents := range map[string][]any{
		database.StopsCollection:    stops,
		database.RoutesCollection:   routes,
		database.ServicesCollection: services,
		database.TripsCollection:    trips,
	} {
		if err := m.replaceCollection(ctx, collectionName, documents); err != nil {
			return err
		}

		log.Info().Str("collection", collectionName).Int("documents", len(documents)).Msg("Imported schedule collection")
	}

	return nil
}

func (m *MongoStore) replaceCollection(ctx context.Context, collectionName string, documents []any) error {
	collection := m.collection(collectionName)

	if _, err := collection.DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}

	var operations []mongo.WriteModel
	for _, document := range documents {
		bsonRep, err := bson.Marshal(document)
		if err != nil {
			return err
		}

		insertModel := mongo.NewInsertOneModel()
		insertModel.SetDocument(bsonRep)
		operations = append(operations, insertModel)

		if len(operations) >= importBatchSize {
			if _, err := collection.BulkWrite(ctx, operations, &options.BulkWriteOptions{}); err != nil {
				return err
			}
			operations = nil
		}
	}

	if len(operations) > 0 {
		if _, err := collection.BulkWrite(ctx, operations, &options.BulkWriteOptions{}); err != nil {
			return err
		}
	}

	return nil
}

func (m *MongoStore) findTrips(ctx context.Context, filter bson.M) ([]*ctdf.Trip, error) {
	cursor, err := m.collection(database.TripsCollection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	var trips []*ctdf.Trip
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, err
	}

	return trips, nil
}

func (m *MongoStore) runsOn(ctx context.Context, trip *ctdf.Trip, serviceDate time.Time) (bool, error) {
	if trip.ServiceRef == "" {
		return true, nil
	}

	var service *ctdf.ServiceCalendar
	err := m.collection(database.ServicesCollection).FindOne(ctx, bson.M{"primaryidentifier": trip.ServiceRef}).Decode(&service)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return true, nil
	} else if err != nil {
		return false, err
	}

	return service.MatchDate(serviceDate), nil
}

func (m *MongoStore) populateTrip(ctx context.Context, trip *ctdf.Trip, serviceDate time.Time) error {
	trip.ServiceDate = util.StartOfDay(serviceDate)

	if trip.RouteRef != "" {
		route, err := m.GetRoute(ctx, trip.RouteRef)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		trip.Route = route
	}

	var stopIDs []string
	for _, stopTime := range trip.StopTimes {
		stopIDs = append(stopIDs, stopTime.StopRef)
	}
	if len(stopIDs) == 0 {
		return nil
	}

	cursor, err := m.collection(database.StopsCollection).Find(ctx, bson.M{"primaryidentifier": bson.M{"$in": stopIDs}})
	if err != nil {
		return err
	}

	var stops []*ctdf.Stop
	if err := cursor.All(ctx, &stops); err != nil {
		return err
	}

	stopsByID := map[string]*ctdf.Stop{}
	for _, stop := range stops {
		stopsByID[stop.PrimaryIdentifier] = stop
	}
	for _, stopTime := range trip.StopTimes {
		stopTime.Stop = stopsByID[stopTime.StopRef]
	}

	return nil
}

func translateError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
