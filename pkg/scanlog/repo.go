package scanlog

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultLimit int64 = 100
	MaxLimit     int64 = 1000
)

type MongoRepo struct {
	collection *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{
		collection: db.Collection("scans"),
	}
}

func (r *MongoRepo) Record(ctx context.Context, e *Entry) error {
	if e.Outcome == "" {
		return errors.New("scan entry without outcome")
	}

	result, err := r.collection.InsertOne(ctx, e)
	if err != nil {
		return fmt.Errorf("failed to record scan: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		e.MongoID = oid
		e.ID = oid.Hex()
	}
	return nil
}

// ListByTarget returns the newest entries first.
func (r *MongoRepo) ListByTarget(ctx context.Context, targetID string, limit int64) ([]*Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "scanned_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"target_id": targetID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer cursor.Close(ctx)

	entries := make([]*Entry, 0)
	for cursor.Next(ctx) {
		var e Entry
		if err := cursor.Decode(&e); err != nil {
			continue
		}
		e.ID = e.MongoID.Hex()
		entries = append(entries, &e)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scans: %w", err)
	}

	return entries, nil
}
