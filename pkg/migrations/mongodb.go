package migrations

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureHistoryIndexes creates the indexes the classification history
// collection is queried by. Safe to call on every startup.
func EnsureHistoryIndexes(ctx context.Context, db *mongo.Database, collectionName string) error {
	collection := db.Collection(collectionName)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "environment", Value: 1}, {Key: "evaluated_at", Value: -1}},
			Options: options.Index().SetName("idx_history_environment_evaluated_at"),
		},
		{
			Keys:    bson.D{{Key: "evaluated_at", Value: -1}},
			Options: options.Index().SetName("idx_history_evaluated_at"),
		},
		{
			Keys:    bson.D{{Key: "record_id", Value: 1}},
			Options: options.Index().SetName("idx_history_record_id"),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("failed to create history indexes: %w", err)
		}
	}

	return nil
}
