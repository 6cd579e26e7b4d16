// Package mongo implements docstore.Store on MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists documents in a MongoDB database, one collection per record
// family.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials MongoDB, verifies connectivity and returns a Store bound to
// the named database.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dialCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &Store{client: client, db: client.Database(dbName)}, nil
}

// Close releases the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Exists implements docstore.Store.
func (s *Store) Exists(ctx context.Context, collection, key string) (bool, error) {
	n, err := s.db.Collection(collection).CountDocuments(ctx, bson.M{"_id": key}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("mongo count %s: %w", collection, err)
	}
	return n > 0, nil
}

// Set implements docstore.Store with an upsert keyed by _id, so replays of
// the same key are harmless.
func (s *Store) Set(ctx context.Context, collection, key string, fields map[string]any) error {
	doc := bson.M{"_id": key}
	for k, v := range fields {
		doc[k] = v
	}
	_, err := s.db.Collection(collection).ReplaceOne(
		ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo set %s/%s: %w", collection, key, err)
	}
	return nil
}

// Add implements docstore.Store; MongoDB generates the document id.
func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) error {
	doc := bson.M{}
	for k, v := range fields {
		doc[k] = v
	}
	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo add %s: %w", collection, err)
	}
	return nil
}
