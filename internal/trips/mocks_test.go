package trips

import (
	"context"
	"time"

	"github.com/KidOfCoding/TripManagement/internal/events"
	"github.com/KidOfCoding/TripManagement/internal/models"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockDriverCollection is a mock implementation of db.DriverCollection
type MockDriverCollection struct {
	mock.Mock
}

func (m *MockDriverCollection) UpsertDriver(ctx context.Context, driver models.Driver, refresh bool) (*models.Driver, error) {
	args := m.Called(ctx, driver, refresh)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Driver), args.Error(1)
}

func (m *MockDriverCollection) DriverDirectory(ctx context.Context, accountID string) ([]models.DriverSummary, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).([]models.DriverSummary), args.Error(1)
}

// MockCustomerCollection is a mock implementation of db.CustomerCollection
type MockCustomerCollection struct {
	mock.Mock
}

func (m *MockCustomerCollection) UpsertCustomer(ctx context.Context, customer models.Customer, refresh bool) (*models.Customer, error) {
	args := m.Called(ctx, customer, refresh)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerCollection) CustomerDirectory(ctx context.Context, accountID string) ([]models.CustomerSummary, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).([]models.CustomerSummary), args.Error(1)
}

// MockTripCollection is a mock implementation of db.TripCollection
type MockTripCollection struct {
	mock.Mock
}

func (m *MockTripCollection) InsertTrip(ctx context.Context, trip *models.Trip) error {
	args := m.Called(ctx, trip)
	if trip.ID.IsZero() {
		trip.ID = primitive.NewObjectID()
	}
	return args.Error(0)
}

func (m *MockTripCollection) FindOngoingTrip(ctx context.Context, accountID string, customerID primitive.ObjectID, source, destination string) (*models.Trip, error) {
	args := m.Called(ctx, accountID, customerID, source, destination)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockTripCollection) FindTripByID(ctx context.Context, accountID string, id primitive.ObjectID) (*models.Trip, error) {
	args := m.Called(ctx, accountID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockTripCollection) FindTripView(ctx context.Context, accountID string, id primitive.ObjectID) (*models.TripView, error) {
	args := m.Called(ctx, accountID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TripView), args.Error(1)
}

func (m *MockTripCollection) ListTrips(ctx context.Context, accountID string, status models.TripStatus) ([]models.TripView, error) {
	args := m.Called(ctx, accountID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TripView), args.Error(1)
}

func (m *MockTripCollection) SetTripStatus(ctx context.Context, accountID string, id primitive.ObjectID, status models.TripStatus, completedAt *time.Time) error {
	args := m.Called(ctx, accountID, id, status, completedAt)
	return args.Error(0)
}

func (m *MockTripCollection) SetPaymentFlags(ctx context.Context, accountID string, id primitive.ObjectID, customerPaid, driverPaid *bool) error {
	args := m.Called(ctx, accountID, id, customerPaid, driverPaid)
	return args.Error(0)
}

func (m *MockTripCollection) ReplaceTrip(ctx context.Context, trip *models.Trip) error {
	args := m.Called(ctx, trip)
	return args.Error(0)
}

func (m *MockTripCollection) DeleteTrip(ctx context.Context, accountID string, id primitive.ObjectID) error {
	args := m.Called(ctx, accountID, id)
	return args.Error(0)
}

// MockCounterCollection is a mock implementation of db.CounterCollection
type MockCounterCollection struct {
	mock.Mock
}

func (m *MockCounterCollection) NextTripNo(ctx context.Context, accountID string) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

// MockPublisher is a mock implementation of events.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() {}

// MockInvalidator is a mock implementation of StatsInvalidator
type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) InvalidateStats(ctx context.Context, accountID string) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}
