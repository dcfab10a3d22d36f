package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	StopsCollection    = "stops"
	TripsCollection    = "trips"
	RoutesCollection   = "routes"
	ServicesCollection = "services"

	DirectionsCollection = "directions"
)

func createIndexes() {
	createStopsIndexes()
	createTripsIndexes()
}

func createStopsIndexes() {
	stopsCollection := GetCollection(StopsCollection)
	_, err := stopsCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "primaryidentifier", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "primaryname", Value: 1}},
			Options: options.Index().SetCollation(&options.Collation{
				Locale:   "en",
				Strength: 2,
			}),
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}

	routesCollection := GetCollection(RoutesCollection)
	_, err = routesCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "primaryidentifier", Value: 1}},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}

func createTripsIndexes() {
	tripsCollection := GetCollection(TripsCollection)
	_, err := tripsCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "primaryidentifier", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "shortname", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "stoptimes.stopref", Value: 1}},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}

	servicesCollection := GetCollection(ServicesCollection)
	_, err = servicesCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "primaryidentifier", Value: 1}},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}
