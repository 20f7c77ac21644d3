package db

import (
	"context"
	"fmt"
	"time"

	"github.com/KidOfCoding/TripManagement/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTripCollection implements TripCollection and TripAggregator for MongoDB.
type MongoTripCollection struct {
	Collection *mongo.Collection
}

// populateStages attaches the driver and customer documents to each trip.
func populateStages() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         DriversCollection,
			"localField":   "driverId",
			"foreignField": "_id",
			"as":           "driver",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$driver", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         CustomersCollection,
			"localField":   "customerId",
			"foreignField": "_id",
			"as":           "customer",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$customer", "preserveNullAndEmptyArrays": true}}},
	}
}

func (c *MongoTripCollection) aggregateViews(ctx context.Context, match bson.M, sort bson.D) ([]models.TripView, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}
	if len(sort) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sort}})
	}
	pipeline = append(pipeline, populateStages()...)

	cursor, err := c.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate trips: %w", err)
	}
	defer cursor.Close(ctx)

	trips := []models.TripView{}
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, fmt.Errorf("failed to decode trips: %w", err)
	}
	return trips, nil
}

// InsertTrip stores a new trip, assigning its ID and timestamps.
func (c *MongoTripCollection) InsertTrip(ctx context.Context, trip *models.Trip) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	if trip.ID.IsZero() {
		trip.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = now
	}
	trip.UpdatedAt = now

	if _, err := c.Collection.InsertOne(ctx, trip); err != nil {
		return mapError(err)
	}
	return nil
}

// FindOngoingTrip returns the account's ongoing trip for the customer and route, or ErrNotFound.
func (c *MongoTripCollection) FindOngoingTrip(ctx context.Context, accountID string, customerID primitive.ObjectID, source, destination string) (*models.Trip, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	filter := bson.M{
		"userId":            accountID,
		"customerId":        customerID,
		"route.source":      source,
		"route.destination": destination,
		"status.tripStatus": models.TripOngoing,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var trip models.Trip
	if err := c.Collection.FindOne(ctx, filter, opts).Decode(&trip); err != nil {
		return nil, mapError(err)
	}
	return &trip, nil
}

// FindTripByID returns the raw trip document.
func (c *MongoTripCollection) FindTripByID(ctx context.Context, accountID string, id primitive.ObjectID) (*models.Trip, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	var trip models.Trip
	if err := c.Collection.FindOne(ctx, bson.M{"_id": id, "userId": accountID}).Decode(&trip); err != nil {
		return nil, mapError(err)
	}
	return &trip, nil
}

// FindTripView returns the trip with driver and customer populated.
func (c *MongoTripCollection) FindTripView(ctx context.Context, accountID string, id primitive.ObjectID) (*models.TripView, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	trips, err := c.aggregateViews(ctx, bson.M{"_id": id, "userId": accountID}, nil)
	if err != nil {
		return nil, err
	}
	if len(trips) == 0 {
		return nil, ErrNotFound
	}
	return &trips[0], nil
}

// ListTrips returns the account's trips newest first. An empty status lists all of them.
func (c *MongoTripCollection) ListTrips(ctx context.Context, accountID string, status models.TripStatus) ([]models.TripView, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	match := bson.M{"userId": accountID}
	if status != "" {
		match["status.tripStatus"] = status
	}
	return c.aggregateViews(ctx, match, bson.D{{Key: "createdAt", Value: -1}})
}

// SetTripStatus moves the trip to status. A nil completedAt removes the field.
func (c *MongoTripCollection) SetTripStatus(ctx context.Context, accountID string, id primitive.ObjectID, status models.TripStatus, completedAt *time.Time) error {
	if c.Collection == nil {
		return ErrNilCollection
	}

	update := bson.M{"$set": bson.M{"status.tripStatus": status, "updatedAt": time.Now().UTC()}}
	if completedAt != nil {
		update["$set"].(bson.M)["completedAt"] = *completedAt
	} else {
		update["$unset"] = bson.M{"completedAt": ""}
	}
	return c.updateOne(ctx, accountID, id, update)
}

// SetPaymentFlags sets whichever payment flags are non-nil. status.tripStatus is never touched.
func (c *MongoTripCollection) SetPaymentFlags(ctx context.Context, accountID string, id primitive.ObjectID, customerPaid, driverPaid *bool) error {
	if c.Collection == nil {
		return ErrNilCollection
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if customerPaid != nil {
		set["status.customerPaid"] = *customerPaid
	}
	if driverPaid != nil {
		set["status.driverPaid"] = *driverPaid
	}
	return c.updateOne(ctx, accountID, id, bson.M{"$set": set})
}

// ReplaceTrip overwrites the stored trip with the same ID and account.
func (c *MongoTripCollection) ReplaceTrip(ctx context.Context, trip *models.Trip) error {
	if c.Collection == nil {
		return ErrNilCollection
	}

	trip.UpdatedAt = time.Now().UTC()
	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": trip.ID, "userId": trip.UserID}, trip)
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTrip removes the trip permanently.
func (c *MongoTripCollection) DeleteTrip(ctx context.Context, accountID string, id primitive.ObjectID) error {
	if c.Collection == nil {
		return ErrNilCollection
	}

	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": id, "userId": accountID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *MongoTripCollection) updateOne(ctx context.Context, accountID string, id primitive.ObjectID, update bson.M) error {
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id, "userId": accountID}, update)
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
