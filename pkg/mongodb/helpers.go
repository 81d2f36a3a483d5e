package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrVersionConflict is returned by SaveVersioned when the stored version moved
var ErrVersionConflict = errors.New("document version conflict")

// SaveVersioned inserts a document when version is zero, otherwise replaces it
// only if the stored version still equals version. The stored version becomes
// version+1 either way.
func SaveVersioned(ctx context.Context, coll *mongo.Collection, id string, version int64, doc interface{}) error {
	if version == 0 {
		if _, err := coll.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrVersionConflict
			}
			return fmt.Errorf("failed to insert %s: %w", coll.Name(), err)
		}
		return nil
	}

	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id, "version": version}, doc)
	if err != nil {
		return fmt.Errorf("failed to replace %s: %w", coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}

// FindByID decodes the document with the given id into out. It returns
// false with a nil error when no document matches.
func FindByID(ctx context.Context, coll *mongo.Collection, id string, out interface{}) (bool, error) {
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to find %s: %w", coll.Name(), err)
	}
	return true, nil
}

// FindAll runs a query and decodes every document
func FindAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]*T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var out []*T
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

// SortDescending creates a descending sort option
func SortDescending(field string) bson.D {
	return bson.D{{Key: field, Value: -1}}
}
