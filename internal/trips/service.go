package trips

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KidOfCoding/TripManagement/internal/db"
	"github.com/KidOfCoding/TripManagement/internal/events"
	"github.com/KidOfCoding/TripManagement/internal/models"
	"github.com/sirupsen/logrus"
)

// StatsInvalidator drops cached stats after an account's trips change.
type StatsInvalidator interface {
	InvalidateStats(ctx context.Context, accountID string) error
}

// Service implements the trip lifecycle. Every method is scoped to accountID.
type Service struct {
	resolver  *Resolver
	trips     db.TripCollection
	counters  db.CounterCollection
	publisher events.Publisher
	stats     StatsInvalidator
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewService(resolver *Resolver, trips db.TripCollection, counters db.CounterCollection, publisher events.Publisher, stats StatsInvalidator, log logrus.FieldLogger) *Service {
	return &Service{
		resolver:  resolver,
		trips:     trips,
		counters:  counters,
		publisher: publisher,
		stats:     stats,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateResult is the outcome of Create. Reused is set when an ongoing trip
// for the same customer and route was returned instead of a new one.
type CreateResult struct {
	Trip   *models.TripView
	Reused bool
}

// Create resolves the driver and customer and records a new ongoing trip,
// unless one is already ongoing for the same customer, source and destination.
func (s *Service) Create(ctx context.Context, accountID string, req *models.TripRequest) (*CreateResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	driver, err := s.resolver.ResolveDriver(ctx, accountID, req.Driver, false)
	if err != nil {
		return nil, err
	}
	customer, err := s.resolver.ResolveCustomer(ctx, accountID, req.Customer, false)
	if err != nil {
		return nil, err
	}

	source := strings.TrimSpace(req.Trip.Source)
	destination := strings.TrimSpace(req.Trip.Destination)

	existing, err := s.trips.FindOngoingTrip(ctx, accountID, customer.ID, source, destination)
	switch {
	case err == nil:
		s.log.WithFields(logrus.Fields{"account_id": accountID, "trip_id": existing.ID.Hex()}).Info("Reusing ongoing trip")
		view, err := s.trips.FindTripView(ctx, accountID, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load ongoing trip: %w", err)
		}
		return &CreateResult{Trip: view, Reused: true}, nil
	case !errors.Is(err, db.ErrNotFound):
		return nil, fmt.Errorf("failed to look up ongoing trip: %w", err)
	}

	tripNo, err := s.counters.NextTripNo(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stops := newStops(req.Trip.Stops, destination)
	trip := &models.Trip{
		TripNo:     tripNo,
		UserID:     accountID,
		DriverID:   driver.ID,
		CustomerID: customer.ID,
		Route: models.Route{
			Source:      source,
			Destination: destination,
			FromAddress: strings.TrimSpace(req.Trip.FromAddress),
			ToAddress:   strings.TrimSpace(req.Trip.ToAddress),
			Stops:       stops,
		},
		ServiceType:       serviceTypeOrDefault(req.Trip.ServiceType),
		TripType:          tripTypeOrDefault(req.Trip.TripType, len(stops)),
		DistanceKM:        float64(req.Trip.DistanceKM),
		Car:               strings.TrimSpace(req.Trip.Car),
		Amounts:           models.Amounts{CustomerPaid: float64(req.Customer.MoneyIn), DriverPaid: float64(req.Driver.MoneyOut)},
		AdvancePayment:    advancePayment(req.Customer.AdvancePayment),
		IntermediateStays: staysOrEmpty(req.Trip.IntermediateStays),
		ClosingExpenses:   []models.ClosingExpense{},
		Status:            models.Status{TripStatus: models.TripOngoing},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	trip.RecalculateProfit()

	if err := s.trips.InsertTrip(ctx, trip); err != nil {
		return nil, fmt.Errorf("failed to insert trip: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"account_id": accountID,
		"trip_id":    trip.ID.Hex(),
		"trip_no":    trip.TripNo,
		"profit":     trip.Profit,
	}).Info("Trip created")
	s.emit(ctx, events.TripCreated, trip)

	return &CreateResult{
		Trip:   &models.TripView{Trip: *trip, Driver: driver, Customer: customer},
		Reused: false,
	}, nil
}

// List returns the account's trips, newest first. Unknown status values list every trip.
func (s *Service) List(ctx context.Context, accountID string, status string) ([]models.TripView, error) {
	filter := models.TripStatus(status)
	if !models.IsValidTripStatus(filter) {
		filter = ""
	}
	trips, err := s.trips.ListTrips(ctx, accountID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return trips, nil
}

// Complete marks the trip done. Completing a done trip changes nothing.
func (s *Service) Complete(ctx context.Context, accountID, id string) (*models.TripView, error) {
	return s.transition(ctx, accountID, id, models.TripDone, events.TripCompleted)
}

// Reopen moves a done trip back to ongoing. Reopening an ongoing trip changes nothing.
func (s *Service) Reopen(ctx context.Context, accountID, id string) (*models.TripView, error) {
	return s.transition(ctx, accountID, id, models.TripOngoing, events.TripReopened)
}

func (s *Service) transition(ctx context.Context, accountID, id string, target models.TripStatus, eventType string) (*models.TripView, error) {
	tripID, err := db.ParseID(id)
	if err != nil {
		return nil, err
	}
	trip, err := s.trips.FindTripByID(ctx, accountID, tripID)
	if err != nil {
		return nil, err
	}

	if trip.Status.TripStatus != target {
		var completedAt *time.Time
		if target == models.TripDone {
			now := s.now()
			completedAt = &now
		}
		if err := s.trips.SetTripStatus(ctx, accountID, tripID, target, completedAt); err != nil {
			return nil, fmt.Errorf("failed to set trip status: %w", err)
		}
		trip.Status.TripStatus = target
		trip.CompletedAt = completedAt
		s.log.WithFields(logrus.Fields{"account_id": accountID, "trip_id": id, "status": target}).Info("Trip status changed")
		s.emit(ctx, eventType, trip)
	}

	return s.trips.FindTripView(ctx, accountID, tripID)
}

// SetPayment sets the customer-paid and driver-paid flags independently of the trip status.
func (s *Service) SetPayment(ctx context.Context, accountID, id string, req models.PaymentRequest) (*models.TripView, error) {
	if req.CustomerPaid == nil && req.DriverPaid == nil {
		return nil, validationError("customerPaid or driverPaid is required")
	}
	tripID, err := db.ParseID(id)
	if err != nil {
		return nil, err
	}

	if err := s.trips.SetPaymentFlags(ctx, accountID, tripID, req.CustomerPaid, req.DriverPaid); err != nil {
		return nil, fmt.Errorf("failed to set payment flags: %w", err)
	}

	view, err := s.trips.FindTripView(ctx, accountID, tripID)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.TripPayment, &view.Trip)
	return view, nil
}

// Update edits the trip, or closes it when the request settles it (see
// models.TripRequest.IsClose).
func (s *Service) Update(ctx context.Context, accountID, id string, req *models.TripRequest) (*models.TripView, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	tripID, err := db.ParseID(id)
	if err != nil {
		return nil, err
	}
	trip, err := s.trips.FindTripByID(ctx, accountID, tripID)
	if err != nil {
		return nil, err
	}

	driver, err := s.resolver.ResolveDriver(ctx, accountID, req.Driver, true)
	if err != nil {
		return nil, err
	}
	customer, err := s.resolver.ResolveCustomer(ctx, accountID, req.Customer, true)
	if err != nil {
		return nil, err
	}
	trip.DriverID = driver.ID
	trip.CustomerID = customer.ID

	eventType := events.TripUpdated
	if req.IsClose(trip.Status.TripStatus) {
		s.applyClose(trip, req)
		eventType = events.TripClosed
	} else {
		applyEdit(trip, req)
	}
	trip.RecalculateProfit()

	if err := s.trips.ReplaceTrip(ctx, trip); err != nil {
		return nil, fmt.Errorf("failed to save trip: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"account_id": accountID,
		"trip_id":    id,
		"event":      eventType,
		"profit":     trip.Profit,
	}).Info("Trip saved")
	s.emit(ctx, eventType, trip)

	return &models.TripView{Trip: *trip, Driver: driver, Customer: customer}, nil
}

// applyCommon copies the fields shared by edit and close. The close form
// carries no vehicle or addresses, so on close blank values keep the stored ones.
func applyCommon(trip *models.Trip, req *models.TripRequest, closing bool) {
	in := req.Trip
	trip.Route.Source = strings.TrimSpace(in.Source)
	trip.Route.Destination = strings.TrimSpace(in.Destination)
	assign := func(dst *string, v string) {
		v = strings.TrimSpace(v)
		if v != "" || !closing {
			*dst = v
		}
	}
	assign(&trip.Route.FromAddress, in.FromAddress)
	assign(&trip.Route.ToAddress, in.ToAddress)
	assign(&trip.Car, in.Car)
	if in.ServiceType != "" {
		trip.ServiceType = in.ServiceType
	}
	if in.TripType != "" {
		trip.TripType = in.TripType
	}
	if in.DistanceKM > 0 {
		trip.DistanceKM = float64(in.DistanceKM)
	}
	if in.IntermediateStays != nil {
		trip.IntermediateStays = in.IntermediateStays
	}
	if in.ClosingExpenses != nil {
		trip.ClosingExpenses = withClosingExpenseIDs(in.ClosingExpenses)
	}
	if in.PaymentDetails != nil {
		trip.PaymentDetails = payment(in.PaymentDetails)
	}
	if adv := advancePayment(req.Customer.AdvancePayment); adv != nil {
		trip.AdvancePayment = adv
	}
	trip.Amounts.CustomerPaid = float64(req.Customer.MoneyIn)
}

func applyEdit(trip *models.Trip, req *models.TripRequest) {
	applyCommon(trip, req, false)
	trip.Route.Stops = mergeStops(trip.Route.Stops, req.Trip.Stops, false)
	trip.Amounts.DriverPaid = float64(req.Driver.MoneyOut)
}

func (s *Service) applyClose(trip *models.Trip, req *models.TripRequest) {
	applyCommon(trip, req, true)
	trip.Route.Stops = mergeStops(trip.Route.Stops, req.Trip.Stops, true)

	driverCost := float64(req.Driver.MoneyOut)
	if req.Trip.DriverPayEnabled != nil && !*req.Trip.DriverPayEnabled {
		driverCost = 0
	}
	trip.Amounts.DriverPaid = driverCost

	if n := len(trip.Route.Stops); n > 0 && trip.Route.Stops[n-1].Location != "" {
		trip.Route.Destination = trip.Route.Stops[n-1].Location
	}

	if trip.Status.TripStatus != models.TripDone || trip.CompletedAt == nil {
		now := s.now()
		trip.CompletedAt = &now
	}
	trip.Status.TripStatus = models.TripDone
}

// Delete removes the trip permanently.
func (s *Service) Delete(ctx context.Context, accountID, id string) error {
	tripID, err := db.ParseID(id)
	if err != nil {
		return err
	}
	if err := s.trips.DeleteTrip(ctx, accountID, tripID); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"account_id": accountID, "trip_id": id}).Info("Trip deleted")
	s.emit(ctx, events.TripDeleted, &models.Trip{ID: tripID, UserID: accountID})
	return nil
}

// emit publishes the event and drops the account's cached stats. Neither
// failure fails the request; the write has already happened.
func (s *Service) emit(ctx context.Context, eventType string, trip *models.Trip) {
	fields := logrus.Fields{"account_id": trip.UserID, "trip_id": trip.ID.Hex(), "event": eventType}
	if err := s.publisher.Publish(ctx, events.NewTripEvent(eventType, trip)); err != nil {
		s.log.WithFields(fields).WithError(err).Warn("Failed to publish trip event")
	}
	if err := s.stats.InvalidateStats(ctx, trip.UserID); err != nil {
		s.log.WithFields(fields).WithError(err).Warn("Failed to invalidate stats cache")
	}
}

func serviceTypeOrDefault(t models.ServiceType) models.ServiceType {
	if t == "" {
		return models.ServiceCabWithDriver
	}
	return t
}

func tripTypeOrDefault(t models.TripType, stops int) models.TripType {
	if t != "" {
		return t
	}
	if stops > 1 {
		return models.TripMulti
	}
	return models.TripSingle
}

func advancePayment(in *models.PaymentInput) *models.Payment {
	if in == nil || (in.Amount == 0 && in.VoucherNo == "" && in.Mode == "") {
		return nil
	}
	return payment(in)
}

func payment(in *models.PaymentInput) *models.Payment {
	return &models.Payment{
		Amount:    float64(in.Amount),
		VoucherNo: strings.TrimSpace(in.VoucherNo),
		Mode:      strings.TrimSpace(in.Mode),
		Notes:     strings.TrimSpace(in.Notes),
	}
}

func staysOrEmpty(stays []models.Stay) []models.Stay {
	if stays == nil {
		return []models.Stay{}
	}
	return stays
}
