package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var indexes = map[string][]mongo.IndexModel{
	"companies": {
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	"users": {
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	"vehicles": {
		{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "registration", Value: 1}}},
	},
	"expenses": {
		{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "vehicle_id", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "status", Value: 1}}},
	},
	"payments": {
		{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "week_start", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "week_start", Value: 1}}},
	},
	"category_rules": {
		{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "pattern", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
}

// EnsureIndexes creates the indexes the stores query by. Existing indexes
// with the same keys are left alone.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("creating indexes on %s: %w", coll, err)
		}
	}

	return nil
}
