package db

import (
	"context"
	"fmt"
	"time"

	"github.com/KidOfCoding/TripManagement/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoCustomerCollection implements CustomerCollection for MongoDB.
type MongoCustomerCollection struct {
	Collection *mongo.Collection
}

// UpsertCustomer finds the customer by (contactNo, userId) or inserts it.
func (c *MongoCustomerCollection) UpsertCustomer(ctx context.Context, customer models.Customer, refresh bool) (*models.Customer, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	filter := bson.M{"contactNo": customer.ContactNo, "userId": customer.UserID}
	fields := bson.M{"name": customer.Name}
	if customer.Address != "" {
		fields["address"] = customer.Address
	}

	var out models.Customer
	err := c.Collection.FindOneAndUpdate(ctx, filter, upsertUpdate(fields, time.Now().UTC(), refresh), upsertOptions()).Decode(&out)
	if err != nil {
		return nil, mapError(err)
	}
	return &out, nil
}

// CustomerDirectory lists the account's customers with trip count and total spend.
func (c *MongoCustomerCollection) CustomerDirectory(ctx context.Context, accountID string) ([]models.CustomerSummary, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": accountID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         TripsCollection,
			"localField":   "_id",
			"foreignField": "customerId",
			"as":           "trips",
		}}},
		{{Key: "$project", Value: bson.M{
			"name":       1,
			"contactNo":  1,
			"address":    1,
			"totalTrips": bson.M{"$size": "$trips"},
			"totalSpent": bson.M{"$sum": "$trips.amounts.customerPaid"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "totalSpent", Value: -1}, {Key: "name", Value: 1}}}},
	}

	cursor, err := c.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate customers: %w", err)
	}
	defer cursor.Close(ctx)

	customers := []models.CustomerSummary{}
	if err := cursor.All(ctx, &customers); err != nil {
		return nil, fmt.Errorf("failed to decode customers: %w", err)
	}
	return customers, nil
}
