package db

import (
	"context"
	"fmt"
	"time"

	"github.com/KidOfCoding/TripManagement/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// PeriodTotals sums profit, driver pay and customer pay over the account's
// done trips created at or after since. No matching trips yields zero totals.
func (c *MongoTripCollection) PeriodTotals(ctx context.Context, accountID string, since time.Time) (models.PeriodTotals, error) {
	if c.Collection == nil {
		return models.PeriodTotals{}, ErrNilCollection
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"userId":            accountID,
			"status.tripStatus": models.TripDone,
			"createdAt":         bson.M{"$gte": since},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":              nil,
			"totalProfit":      bson.M{"$sum": "$profit"},
			"totalDriverPay":   bson.M{"$sum": "$amounts.driverPaid"},
			"totalCustomerPay": bson.M{"$sum": "$amounts.customerPaid"},
			"count":            bson.M{"$sum": 1},
		}}},
	}

	cursor, err := c.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return models.PeriodTotals{}, fmt.Errorf("failed to aggregate period totals: %w", err)
	}
	defer cursor.Close(ctx)

	var results []models.PeriodTotals
	if err := cursor.All(ctx, &results); err != nil {
		return models.PeriodTotals{}, fmt.Errorf("failed to decode period totals: %w", err)
	}
	if len(results) == 0 {
		return models.PeriodTotals{}, nil
	}
	return results[0], nil
}

// DuplicateSets groups the account's trips by source, destination, customer and
// charged amount and returns the groups holding more than one trip.
func (c *MongoTripCollection) DuplicateSets(ctx context.Context, accountID string) ([]models.DuplicateSet, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": accountID}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: 1}}}},
	}
	pipeline = append(pipeline, populateStages()...)
	pipeline = append(pipeline,
		bson.D{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"source":      "$route.source",
				"destination": "$route.destination",
				"customerId":  "$customerId",
				"amount":      "$amounts.customerPaid",
			},
			"trips": bson.M{"$push": "$$ROOT"},
			"count": bson.M{"$sum": 1},
		}}},
		bson.D{{Key: "$match", Value: bson.M{"count": bson.M{"$gt": 1}}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id.source", Value: 1}}}},
	)

	cursor, err := c.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate duplicate trips: %w", err)
	}
	defer cursor.Close(ctx)

	sets := []models.DuplicateSet{}
	if err := cursor.All(ctx, &sets); err != nil {
		return nil, fmt.Errorf("failed to decode duplicate trips: %w", err)
	}
	return sets, nil
}

// ReportTrips lists the account's done trips created in [from, to], oldest first.
func (c *MongoTripCollection) ReportTrips(ctx context.Context, accountID string, from, to time.Time) ([]models.TripView, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	match := bson.M{
		"userId":            accountID,
		"status.tripStatus": models.TripDone,
		"createdAt":         bson.M{"$gte": from, "$lte": to},
	}
	return c.aggregateViews(ctx, match, bson.D{{Key: "createdAt", Value: 1}})
}
