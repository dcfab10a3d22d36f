package database

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/right-track/right-track-agency-lirr/pkg/util"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoInstance struct {
	Client   *mongo.Client
	Database *mongo.Database
}

var MongoGlobalInstance *MongoInstance

const defaultMongoConnectionString = "mongodb://localhost:27017/"
const defaultMongoDatabase = "lirr"

func Connect() error {
	connectionString := defaultMongoConnectionString
	dbName := defaultMongoDatabase

	env := util.GetEnvironmentVariables()

	if env["STATIONFEED_MONGODB_CONNECTION"] != "" {
		connectionString = env["STATIONFEED_MONGODB_CONNECTION"]
	}

	if env["STATIONFEED_MONGODB_DATABASE"] != "" {
		dbName = env["STATIONFEED_MONGODB_DATABASE"]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return err
	}

	MongoGlobalInstance = &MongoInstance{
		Client:   client,
		Database: client.Database(dbName),
	}

	retryBackoff := backoff.NewExponentialBackOff()
	retryBackoff.MaxElapsedTime = 30 * time.Second

	err = backoff.RetryNotify(func() error {
		return client.Ping(context.Background(), nil)
	}, retryBackoff, func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("retry", wait).Msg("MongoDB not reachable yet")
	})
	if err != nil {
		return err
	}

	createIndexes()

	return nil
}

func GetCollection(collectionName string) *mongo.Collection {
	return MongoGlobalInstance.Database.Collection(collectionName)
}
