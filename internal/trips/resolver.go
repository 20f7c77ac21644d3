package trips

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/KidOfCoding/TripManagement/internal/db"
	"github.com/KidOfCoding/TripManagement/internal/models"
	"github.com/sirupsen/logrus"
)

// Resolver finds or creates the driver and customer referenced by a trip form.
type Resolver struct {
	drivers   db.DriverCollection
	customers db.CustomerCollection
	log       logrus.FieldLogger
}

func NewResolver(drivers db.DriverCollection, customers db.CustomerCollection, log logrus.FieldLogger) *Resolver {
	return &Resolver{drivers: drivers, customers: customers, log: log}
}

// ResolveDriver returns the account's driver with the input's contact number.
// With refresh set the stored name and vehicle number are overwritten.
func (r *Resolver) ResolveDriver(ctx context.Context, accountID string, in models.DriverInput, refresh bool) (*models.Driver, error) {
	driver := models.Driver{
		Name:      strings.TrimSpace(in.Name),
		ContactNo: models.NormalizeContactNo(in.ContactNo),
		UserID:    accountID,
		VehicleNo: strings.TrimSpace(in.VehicleNo),
	}
	if driver.ContactNo == "" {
		return nil, validationError("driver contact number is required")
	}

	out, err := r.drivers.UpsertDriver(ctx, driver, refresh)
	if errors.Is(err, db.ErrDuplicateKey) {
		// a concurrent request inserted the same driver; the retry matches it
		r.log.WithFields(logrus.Fields{"account_id": accountID, "contact_no": driver.ContactNo}).Debug("driver upsert raced, retrying")
		out, err = r.drivers.UpsertDriver(ctx, driver, refresh)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve driver: %w", err)
	}
	return out, nil
}

// ResolveCustomer returns the account's customer with the input's contact number.
func (r *Resolver) ResolveCustomer(ctx context.Context, accountID string, in models.CustomerInput, refresh bool) (*models.Customer, error) {
	customer := models.Customer{
		Name:      strings.TrimSpace(in.Name),
		ContactNo: models.NormalizeContactNo(in.ContactNo),
		UserID:    accountID,
		Address:   strings.TrimSpace(in.Address),
	}
	if customer.ContactNo == "" {
		return nil, validationError("customer contact number is required")
	}

	out, err := r.customers.UpsertCustomer(ctx, customer, refresh)
	if errors.Is(err, db.ErrDuplicateKey) {
		r.log.WithFields(logrus.Fields{"account_id": accountID, "contact_no": customer.ContactNo}).Debug("customer upsert raced, retrying")
		out, err = r.customers.UpsertCustomer(ctx, customer, refresh)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve customer: %w", err)
	}
	return out, nil
}
