package db

import (
	"context"
	"fmt"
	"time"

	"github.com/KidOfCoding/TripManagement/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DriversCollection   = "drivers"
	CustomersCollection = "customers"
	TripsCollection     = "trips"
	CountersCollection  = "counters"
)

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	uri := cfg.URI
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// Store groups the collection wrappers of one database.
type Store struct {
	Drivers   *MongoDriverCollection
	Customers *MongoCustomerCollection
	Trips     *MongoTripCollection
	Counters  *MongoCounterCollection
}

// NewStore wraps the collections of database.
func NewStore(database *mongo.Database) *Store {
	return &Store{
		Drivers:   &MongoDriverCollection{Collection: database.Collection(DriversCollection)},
		Customers: &MongoCustomerCollection{Collection: database.Collection(CustomersCollection)},
		Trips:     &MongoTripCollection{Collection: database.Collection(TripsCollection)},
		Counters:  &MongoCounterCollection{Collection: database.Collection(CountersCollection)},
	}
}

// EnsureIndexes creates the unique natural-key indexes and the trip query indexes.
// Creating an index that already exists is a no-op.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		DriversCollection: {
			{
				Keys:    bson.D{{Key: "contactNo", Value: 1}, {Key: "userId", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("contactNo_userId_unique"),
			},
		},
		CustomersCollection: {
			{
				Keys:    bson.D{{Key: "contactNo", Value: 1}, {Key: "userId", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("contactNo_userId_unique"),
			},
		},
		CountersCollection: {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("userId_unique"),
			},
		},
		TripsCollection: {
			{
				Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			},
			{
				Keys: bson.D{
					{Key: "userId", Value: 1},
					{Key: "customerId", Value: 1},
					{Key: "route.source", Value: 1},
					{Key: "route.destination", Value: 1},
					{Key: "status.tripStatus", Value: 1},
				},
			},
		},
	}

	for name, idx := range indexes {
		if _, err := database.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// upsertUpdate builds the update document of a find-or-create. Without refresh
// every field is only written on insert, so an existing record is returned untouched.
func upsertUpdate(fields bson.M, now time.Time, refresh bool) bson.M {
	if refresh {
		set := bson.M{"updatedAt": now}
		for k, v := range fields {
			set[k] = v
		}
		return bson.M{"$set": set, "$setOnInsert": bson.M{"createdAt": now}}
	}
	insert := bson.M{"createdAt": now, "updatedAt": now}
	for k, v := range fields {
		insert[k] = v
	}
	return bson.M{"$setOnInsert": insert}
}

func upsertOptions() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
}
