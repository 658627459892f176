package mongo

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 10 * time.Second

func LoadDB(uri, dbName string) *mongo.Database {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatal("Cannot connect to Mongo:", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("Cannot ping Mongo:", err)
	}

	db := client.Database(dbName)
	if err := ensureIndexes(ctx, db); err != nil {
		log.Fatal("Cannot create Mongo indexes:", err)
	}
	return db
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("scans").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "target_id", Value: 1}, {Key: "scanned_at", Value: -1}},
	})
	return err
}
