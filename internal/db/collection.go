package db

import (
	"context"
	"time"

	"github.com/KidOfCoding/TripManagement/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DriverCollection defines the driver store operations.
type DriverCollection interface {
	// UpsertDriver returns the account's driver with driver.ContactNo, creating it
	// when missing. With refresh set, name and vehicle number are overwritten.
	UpsertDriver(ctx context.Context, driver models.Driver, refresh bool) (*models.Driver, error)
	DriverDirectory(ctx context.Context, accountID string) ([]models.DriverSummary, error)
}

// CustomerCollection defines the customer store operations.
type CustomerCollection interface {
	UpsertCustomer(ctx context.Context, customer models.Customer, refresh bool) (*models.Customer, error)
	CustomerDirectory(ctx context.Context, accountID string) ([]models.CustomerSummary, error)
}

// TripCollection defines the trip store operations. Every call is scoped to an account.
type TripCollection interface {
	InsertTrip(ctx context.Context, trip *models.Trip) error
	FindOngoingTrip(ctx context.Context, accountID string, customerID primitive.ObjectID, source, destination string) (*models.Trip, error)
	FindTripByID(ctx context.Context, accountID string, id primitive.ObjectID) (*models.Trip, error)
	FindTripView(ctx context.Context, accountID string, id primitive.ObjectID) (*models.TripView, error)
	ListTrips(ctx context.Context, accountID string, status models.TripStatus) ([]models.TripView, error)
	SetTripStatus(ctx context.Context, accountID string, id primitive.ObjectID, status models.TripStatus, completedAt *time.Time) error
	SetPaymentFlags(ctx context.Context, accountID string, id primitive.ObjectID, customerPaid, driverPaid *bool) error
	ReplaceTrip(ctx context.Context, trip *models.Trip) error
	DeleteTrip(ctx context.Context, accountID string, id primitive.ObjectID) error
}

// TripAggregator defines the read-only roll-ups over an account's trips.
type TripAggregator interface {
	PeriodTotals(ctx context.Context, accountID string, since time.Time) (models.PeriodTotals, error)
	DuplicateSets(ctx context.Context, accountID string) ([]models.DuplicateSet, error)
	ReportTrips(ctx context.Context, accountID string, from, to time.Time) ([]models.TripView, error)
}

// CounterCollection hands out per-account sequence numbers.
type CounterCollection interface {
	NextTripNo(ctx context.Context, accountID string) (int64, error)
}
