package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/KidOfCoding/TripManagement/internal/config"
	"github.com/KidOfCoding/TripManagement/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestConnectMongo_BadURI(t *testing.T) {
	client, err := ConnectMongo(context.Background(), config.MongoConfig{URI: "mongodb://bad:uri", ConnectTimeout: time.Second})
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestParseID(t *testing.T) {
	_, err := ParseID("not-an-id")
	assert.ErrorIs(t, err, ErrNotFound)

	id, err := ParseID("64b7f0c2a1b2c3d4e5f60718")
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", id.Hex())
}

func TestNilCollection(t *testing.T) {
	ctx := context.Background()

	_, err := (&MongoDriverCollection{}).UpsertDriver(ctx, models.Driver{}, false)
	assert.ErrorIs(t, err, ErrNilCollection)

	_, err = (&MongoCustomerCollection{}).CustomerDirectory(ctx, "acct")
	assert.ErrorIs(t, err, ErrNilCollection)

	err = (&MongoTripCollection{}).InsertTrip(ctx, &models.Trip{})
	assert.ErrorIs(t, err, ErrNilCollection)

	_, err = (&MongoCounterCollection{}).NextTripNo(ctx, "acct")
	assert.ErrorIs(t, err, ErrNilCollection)
}

func TestUpsertUpdate(t *testing.T) {
	now := time.Now()

	create := upsertUpdate(bson.M{"name": "Sam"}, now, false)
	assert.NotContains(t, create, "$set")
	assert.Equal(t, "Sam", create["$setOnInsert"].(bson.M)["name"])

	refresh := upsertUpdate(bson.M{"name": "Sam"}, now, true)
	assert.Equal(t, "Sam", refresh["$set"].(bson.M)["name"])
	assert.NotContains(t, refresh["$setOnInsert"].(bson.M), "name")
}

// testStore connects to the MongoDB at MONGO_URI and returns a store over a
// freshly dropped test database. The test is skipped when MongoDB is unreachable.
func testStore(t *testing.T) (*Store, *mongo.Database) {
	t.Helper()

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	client, err := ConnectMongo(context.Background(), config.MongoConfig{URI: uri, ConnectTimeout: 2 * time.Second})
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	t.Cleanup(func() { client.Disconnect(context.Background()) })

	database := client.Database("test_trip_ledger")
	require.NoError(t, database.Drop(context.Background()))
	require.NoError(t, EnsureIndexes(context.Background(), database))
	return NewStore(database), database
}

func TestUpsertDriver_Integration(t *testing.T) {
	store, database := testStore(t)
	ctx := context.Background()

	first, err := store.Drivers.UpsertDriver(ctx, models.Driver{Name: "Sam", ContactNo: "9999999999", UserID: "acct-x"}, false)
	require.NoError(t, err)
	second, err := store.Drivers.UpsertDriver(ctx, models.Driver{Name: "Samuel", ContactNo: "9999999999", UserID: "acct-x"}, false)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Sam", second.Name, "create path must not rename an existing driver")

	other, err := store.Drivers.UpsertDriver(ctx, models.Driver{Name: "Sam", ContactNo: "9999999999", UserID: "acct-y"}, false)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	count, err := database.Collection(DriversCollection).CountDocuments(ctx, bson.M{"contactNo": "9999999999"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	refreshed, err := store.Drivers.UpsertDriver(ctx, models.Driver{Name: "Samuel", ContactNo: "9999999999", UserID: "acct-x", VehicleNo: "KA01"}, true)
	require.NoError(t, err)
	assert.Equal(t, first.ID, refreshed.ID)
	assert.Equal(t, "Samuel", refreshed.Name)
	assert.Equal(t, "KA01", refreshed.VehicleNo)
}

func TestUpsertCustomer_DuplicateInsertRejected_Integration(t *testing.T) {
	store, database := testStore(t)
	ctx := context.Background()

	_, err := store.Customers.UpsertCustomer(ctx, models.Customer{Name: "Ann", ContactNo: "8888888888", UserID: "acct-x"}, false)
	require.NoError(t, err)

	_, err = database.Collection(CustomersCollection).InsertOne(ctx, models.Customer{Name: "Ann", ContactNo: "8888888888", UserID: "acct-x"})
	assert.ErrorIs(t, mapError(err), ErrDuplicateKey)
}

func TestNextTripNo_Integration(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := store.Counters.NextTripNo(ctx, "acct-x")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := store.Counters.NextTripNo(ctx, "acct-y")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestTripLifecycle_Integration(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	driver, err := store.Drivers.UpsertDriver(ctx, models.Driver{Name: "Sam", ContactNo: "9999999999", UserID: "acct-x"}, false)
	require.NoError(t, err)
	customer, err := store.Customers.UpsertCustomer(ctx, models.Customer{Name: "Ann", ContactNo: "8888888888", UserID: "acct-x"}, false)
	require.NoError(t, err)

	trip := &models.Trip{
		UserID:     "acct-x",
		DriverID:   driver.ID,
		CustomerID: customer.ID,
		Route:      models.Route{Source: "Airport", Destination: "Hotel"},
		Amounts:    models.Amounts{CustomerPaid: 1000, DriverPaid: 600},
		Profit:     400,
		Status:     models.Status{TripStatus: models.TripOngoing},
	}
	require.NoError(t, store.Trips.InsertTrip(ctx, trip))
	require.False(t, trip.ID.IsZero())

	ongoing, err := store.Trips.FindOngoingTrip(ctx, "acct-x", customer.ID, "Airport", "Hotel")
	require.NoError(t, err)
	assert.Equal(t, trip.ID, ongoing.ID)

	_, err = store.Trips.FindTripByID(ctx, "acct-y", trip.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	view, err := store.Trips.FindTripView(ctx, "acct-x", trip.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Driver)
	assert.Equal(t, "Sam", view.Driver.Name)
	assert.Equal(t, "Ann", view.Customer.Name)

	paid := true
	require.NoError(t, store.Trips.SetPaymentFlags(ctx, "acct-x", trip.ID, nil, &paid))
	stored, err := store.Trips.FindTripByID(ctx, "acct-x", trip.ID)
	require.NoError(t, err)
	assert.True(t, stored.Status.DriverPaid)
	assert.Equal(t, models.TripOngoing, stored.Status.TripStatus)

	now := time.Now().UTC()
	require.NoError(t, store.Trips.SetTripStatus(ctx, "acct-x", trip.ID, models.TripDone, &now))
	_, err = store.Trips.FindOngoingTrip(ctx, "acct-x", customer.ID, "Airport", "Hotel")
	assert.ErrorIs(t, err, ErrNotFound)

	totals, err := store.Trips.PeriodTotals(ctx, "acct-x", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, totals.Count)
	assert.Equal(t, 400.0, totals.TotalProfit)

	empty, err := store.Trips.PeriodTotals(ctx, "acct-y", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.PeriodTotals{}, empty)

	report, err := store.Trips.ReportTrips(ctx, "acct-x", now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, report, 1)

	drivers, err := store.Drivers.DriverDirectory(ctx, "acct-x")
	require.NoError(t, err)
	require.Len(t, drivers, 1)
	assert.Equal(t, 1, drivers[0].TotalTrips)
	assert.Equal(t, 600.0, drivers[0].TotalEarned)

	require.NoError(t, store.Trips.DeleteTrip(ctx, "acct-x", trip.ID))
	assert.ErrorIs(t, store.Trips.DeleteTrip(ctx, "acct-x", trip.ID), ErrNotFound)
}

func TestDuplicateSets_Integration(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	customer, err := store.Customers.UpsertCustomer(ctx, models.Customer{Name: "Ann", ContactNo: "8888888888", UserID: "acct-x"}, false)
	require.NoError(t, err)

	newTrip := func() *models.Trip {
		return &models.Trip{
			UserID:     "acct-x",
			CustomerID: customer.ID,
			Route:      models.Route{Source: "School", Destination: "Home"},
			Amounts:    models.Amounts{CustomerPaid: 500},
			Status:     models.Status{TripStatus: models.TripDone},
		}
	}
	first, second := newTrip(), newTrip()
	require.NoError(t, store.Trips.InsertTrip(ctx, first))
	require.NoError(t, store.Trips.InsertTrip(ctx, second))

	sets, err := store.Trips.DuplicateSets(ctx, "acct-x")
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, 2, sets[0].Count)
	assert.Equal(t, "School", sets[0].Key.Source)
	assert.Equal(t, 500.0, sets[0].Key.Amount)
	require.NotNil(t, sets[0].Trips[0].Customer)
	assert.Equal(t, "Ann", sets[0].Trips[0].Customer.Name)

	require.NoError(t, store.Trips.DeleteTrip(ctx, "acct-x", second.ID))
	sets, err = store.Trips.DuplicateSets(ctx, "acct-x")
	require.NoError(t, err)
	assert.Empty(t, sets)
}
