package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName holds processed request ids
const CollectionName = "processed_requests"

// ErrAlreadyProcessed is returned by MarkProcessed for a duplicate id
var ErrAlreadyProcessed = errors.New("request has already been processed")

// MongoStore persists processed request ids. Both methods honour a session
// context so the marker commits with the change it guards.
type MongoStore struct {
	collection *mongo.Collection
	retention  time.Duration
}

// NewMongoStore creates a store keeping records for retention
func NewMongoStore(db *mongo.Database, retention time.Duration) *MongoStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MongoStore{
		collection: db.Collection(CollectionName),
		retention:  retention,
	}
}

// IsProcessed reports whether requestID was already applied within scope,
// and to which aggregate
func (s *MongoStore) IsProcessed(ctx context.Context, scope, requestID string) (string, bool, error) {
	var record ProcessedRequest
	err := s.collection.FindOne(ctx, bson.M{"_id": DocumentID(scope, requestID)}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to check processed request: %w", err)
	}
	return record.AggregateID, true, nil
}

// MarkProcessed records requestID as applied to aggregateID
func (s *MongoStore) MarkProcessed(ctx context.Context, scope, requestID, aggregateID string) error {
	_, err := s.collection.InsertOne(ctx, NewProcessedRequest(scope, requestID, aggregateID, s.retention))
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyProcessed
	}
	if err != nil {
		return fmt.Errorf("failed to mark request processed: %w", err)
	}
	return nil
}

// EnsureIndexes creates the TTL and lookup indexes
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_ttl"),
		},
		{
			Keys:    bson.D{{Key: "aggregateId", Value: 1}, {Key: "processedAt", Value: -1}},
			Options: options.Index().SetName("idx_aggregate"),
		},
	}
	if _, err := s.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create idempotency indexes: %w", err)
	}
	return nil
}
