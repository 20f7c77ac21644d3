package db

import (
	"context"
	"fmt"
	"time"

	"github.com/KidOfCoding/TripManagement/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDriverCollection implements DriverCollection for MongoDB.
type MongoDriverCollection struct {
	Collection *mongo.Collection
}

// UpsertDriver finds the driver by (contactNo, userId) or inserts it in one round trip.
func (c *MongoDriverCollection) UpsertDriver(ctx context.Context, driver models.Driver, refresh bool) (*models.Driver, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	filter := bson.M{"contactNo": driver.ContactNo, "userId": driver.UserID}
	fields := bson.M{"name": driver.Name}
	if driver.VehicleNo != "" {
		fields["vehicleNo"] = driver.VehicleNo
	}

	var out models.Driver
	err := c.Collection.FindOneAndUpdate(ctx, filter, upsertUpdate(fields, time.Now().UTC(), refresh), upsertOptions()).Decode(&out)
	if err != nil {
		return nil, mapError(err)
	}
	return &out, nil
}

// DriverDirectory lists the account's drivers with trip count and total payout,
// highest payout first.
func (c *MongoDriverCollection) DriverDirectory(ctx context.Context, accountID string) ([]models.DriverSummary, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": accountID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         TripsCollection,
			"localField":   "_id",
			"foreignField": "driverId",
			"as":           "trips",
		}}},
		{{Key: "$project", Value: bson.M{
			"name":        1,
			"contactNo":   1,
			"vehicleNo":   1,
			"totalTrips":  bson.M{"$size": "$trips"},
			"totalEarned": bson.M{"$sum": "$trips.amounts.driverPaid"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "totalEarned", Value: -1}, {Key: "name", Value: 1}}}},
	}

	cursor, err := c.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate drivers: %w", err)
	}
	defer cursor.Close(ctx)

	drivers := []models.DriverSummary{}
	if err := cursor.All(ctx, &drivers); err != nil {
		return nil, fmt.Errorf("failed to decode drivers: %w", err)
	}
	return drivers, nil
}
