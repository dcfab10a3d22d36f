package postcompile

import (
	"context"

	"github.com/right-track/right-track-agency-lirr/pkg/ctdf"
	"github.com/right-track/right-track-agency-lirr/pkg/database"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Apply corrects the imported schedule in place: branch names, direction descriptions and stop URLs
func Apply(ctx context.Context, db *mongo.Database) error {
	log.Info().Msg("Updating route names")
	var routeOperations []mongo.WriteModel
	for shortName, longName := range RouteLongNames {
		routeOperations = append(routeOperations, mongo.NewUpdateManyModel().
			SetFilter(bson.M{"shortname": shortName}).
			SetUpdate(bson.M{"$set": bson.M{"longname": longName}}))
	}
	if _, err := db.Collection(database.RoutesCollection).BulkWrite(ctx, routeOperations, &options.BulkWriteOptions{}); err != nil {
		return err
	}

	log.Info().Msg("Setting direction descriptions")
	var directionOperations []mongo.WriteModel
	for _, direction := range Directions {
		directionOperations = append(directionOperations, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"directionid": direction.DirectionID}).
			SetReplacement(direction).
			SetUpsert(true))
	}
	if _, err := db.Collection(database.DirectionsCollection).BulkWrite(ctx, directionOperations, &options.BulkWriteOptions{}); err != nil {
		return err
	}

	log.Info().Msg("Setting stop URLs")
	stopsCollection := db.Collection(database.StopsCollection)
	cursor, err := stopsCollection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"primaryidentifier": 1}))
	if err != nil {
		return err
	}

	var stops []*ctdf.Stop
	if err := cursor.All(ctx, &stops); err != nil {
		return err
	}

	var stopOperations []mongo.WriteModel
	for _, stop := range stops {
		stopOperations = append(stopOperations, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"primaryidentifier": stop.PrimaryIdentifier}).
			SetUpdate(bson.M{"$set": bson.M{"url": StopURL(stop.PrimaryIdentifier)}}))
	}
	if len(stopOperations) > 0 {
		if _, err := stopsCollection.BulkWrite(ctx, stopOperations, &options.BulkWriteOptions{}); err != nil {
			return err
		}
	}

	log.Info().Int("stops", len(stopOperations)).Msg("Schedule post-compile finished")

	return nil
}
