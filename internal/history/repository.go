package history

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"riskgrade/internal/constants"
	"riskgrade/pkg/metrics"
	"riskgrade/pkg/models"
)

// Entry is one archived classification pass, flattened for querying by
// environment and time.
type Entry struct {
	RecordID    string            `bson:"record_id" json:"record_id"`
	Environment string            `bson:"environment" json:"environment"`
	Source      string            `bson:"source,omitempty" json:"source,omitempty"`
	EvaluatedAt time.Time         `bson:"evaluated_at" json:"evaluated_at"`
	Levels      map[string]string `bson:"levels" json:"levels"`
	Warnings    []string          `bson:"warnings,omitempty" json:"warnings,omitempty"`
}

type Repository interface {
	Save(ctx context.Context, record models.RecordEnvelope) error
	ListRecent(ctx context.Context, environment string, limit int) ([]Entry, error)
}

type MongoDBRepository struct {
	collection *mongo.Collection
}

func NewRepository(db *mongo.Database, collectionName string) *MongoDBRepository {
	if collectionName == "" {
		collectionName = constants.DefaultHistoryCollection
	}
	return &MongoDBRepository{
		collection: db.Collection(collectionName),
	}
}

func (r *MongoDBRepository) Save(ctx context.Context, record models.RecordEnvelope) error {
	if record.Metadata.Classification == nil {
		return nil // nothing to archive
	}

	entry := Entry{
		RecordID:    record.ID,
		Environment: record.Environment,
		Source:      record.Source,
		EvaluatedAt: record.Metadata.Classification.EvaluatedAt,
		Levels:      record.Metadata.Classification.Levels,
		Warnings:    record.Metadata.Classification.Warnings,
	}

	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		metrics.HistoryWritesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	metrics.HistoryWritesTotal.WithLabelValues("success").Inc()
	return nil
}

func (r *MongoDBRepository) ListRecent(ctx context.Context, environment string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > constants.MaxLimit {
		limit = constants.DefaultLimit
	}

	filter := bson.M{}
	if environment != "" {
		filter["environment"] = environment
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "evaluated_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find history entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []Entry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode history entries: %w", err)
	}

	return entries, nil
}
