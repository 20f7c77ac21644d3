package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoCounterCollection keeps one {userId, seq} document per account.
type MongoCounterCollection struct {
	Collection *mongo.Collection
}

// NextTripNo increments and returns the account's trip sequence. The first call yields 1.
func (c *MongoCounterCollection) NextTripNo(ctx context.Context, accountID string) (int64, error) {
	if c.Collection == nil {
		return 0, ErrNilCollection
	}

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := c.Collection.FindOneAndUpdate(ctx,
		bson.M{"userId": accountID},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		upsertOptions(),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to increment trip counter: %w", mapError(err))
	}
	return counter.Seq, nil
}
