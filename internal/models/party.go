package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Driver is a driver known to one account, keyed by contact number.
type Driver struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	ContactNo string             `json:"contactNo" bson:"contactNo"`
	UserID    string             `json:"userId,omitempty" bson:"userId"`
	VehicleNo string             `json:"vehicleNo,omitempty" bson:"vehicleNo,omitempty"`
	CreatedAt time.Time          `json:"createdAt,omitempty" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt,omitempty" bson:"updatedAt"`
}

// Customer is a customer known to one account, keyed by contact number.
type Customer struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	ContactNo string             `json:"contactNo" bson:"contactNo"`
	UserID    string             `json:"userId,omitempty" bson:"userId"`
	Address   string             `json:"address,omitempty" bson:"address,omitempty"`
	CreatedAt time.Time          `json:"createdAt,omitempty" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt,omitempty" bson:"updatedAt"`
}

// NormalizeContactNo strips spaces, dashes, dots, parentheses and a leading '+'.
func NormalizeContactNo(contactNo string) string {
	var b strings.Builder
	for _, r := range contactNo {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
