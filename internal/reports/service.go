package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KidOfCoding/TripManagement/internal/cache"
	"github.com/KidOfCoding/TripManagement/internal/db"
	"github.com/KidOfCoding/TripManagement/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DateLayout is the format of report start and end dates.
const DateLayout = "2006-01-02"

// ErrInvalidRange is returned for unparsable dates or a start after the end.
var ErrInvalidRange = errors.New("invalid date range")

// Service serves the read-only roll-ups over an account's trips.
type Service struct {
	trips     db.TripAggregator
	drivers   db.DriverCollection
	customers db.CustomerCollection
	cache     cache.StatsCache
	loc       *time.Location
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewService(trips db.TripAggregator, drivers db.DriverCollection, customers db.CustomerCollection, statsCache cache.StatsCache, loc *time.Location, log logrus.FieldLogger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		trips:     trips,
		drivers:   drivers,
		customers: customers,
		cache:     statsCache,
		loc:       loc,
		log:       log,
		now:       time.Now,
	}
}

// PeriodStarts returns local midnight today, the most recent Sunday and the
// first of the month, all in now's location.
func PeriodStarts(now time.Time) (today, week, month time.Time) {
	y, m, d := now.Date()
	today = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	week = today.AddDate(0, 0, -int(today.Weekday()))
	month = time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	return today, week, month
}

// Stats returns today/week/month totals over done trips, served from the
// cache when possible.
func (s *Service) Stats(ctx context.Context, accountID string) (models.TripStats, error) {
	logger := s.log.WithField("account_id", accountID)

	today, week, month := PeriodStarts(s.now().In(s.loc))
	day := today.Format(DateLayout)

	cached, err := s.cache.GetStats(ctx, accountID, day)
	if err == nil {
		return *cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logger.WithError(err).Warn("Stats cache read failed")
	}

	var stats models.TripStats
	periods := []struct {
		since time.Time
		into  *models.PeriodTotals
	}{
		{today, &stats.Today},
		{week, &stats.Week},
		{month, &stats.Month},
	}
	for _, p := range periods {
		totals, err := s.trips.PeriodTotals(ctx, accountID, p.since)
		if err != nil {
			return models.TripStats{}, fmt.Errorf("failed to compute stats: %w", err)
		}
		totals.TotalProfit = models.RoundMoney(totals.TotalProfit)
		totals.TotalDriverPay = models.RoundMoney(totals.TotalDriverPay)
		totals.TotalCustomerPay = models.RoundMoney(totals.TotalCustomerPay)
		*p.into = totals
	}

	if err := s.cache.SetStats(ctx, accountID, day, stats); err != nil {
		logger.WithError(err).Warn("Stats cache write failed")
	}
	return stats, nil
}

// Duplicates returns groups of trips sharing source, destination, customer and charged amount.
func (s *Service) Duplicates(ctx context.Context, accountID string) ([]models.DuplicateSet, error) {
	sets, err := s.trips.DuplicateSets(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find duplicate trips: %w", err)
	}
	return sets, nil
}

// People returns the driver and customer directories with their totals.
func (s *Service) People(ctx context.Context, accountID string) (*models.People, error) {
	drivers, err := s.drivers.DriverDirectory(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	customers, err := s.customers.CustomerDirectory(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return &models.People{Drivers: drivers, Customers: customers}, nil
}

// Report lists done trips created between startDate and endDate inclusive.
// Either date may be empty and then defaults to today.
func (s *Service) Report(ctx context.Context, accountID, startDate, endDate string) (*models.Report, error) {
	start, end, err := s.parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	trips, err := s.trips.ReportTrips(ctx, accountID, start, end.AddDate(0, 0, 1).Add(-time.Millisecond))
	if err != nil {
		return nil, fmt.Errorf("failed to load report trips: %w", err)
	}

	return &models.Report{
		StartDate: start.Format(DateLayout),
		EndDate:   end.Format(DateLayout),
		Trips:     trips,
		Totals:    reportTotals(trips),
	}, nil
}

func (s *Service) parseRange(startDate, endDate string) (time.Time, time.Time, error) {
	today := s.now().In(s.loc).Format(DateLayout)
	if startDate == "" {
		startDate = today
	}
	if endDate == "" {
		endDate = today
	}

	start, err := time.ParseInLocation(DateLayout, startDate, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: startDate %q must be YYYY-MM-DD", ErrInvalidRange, startDate)
	}
	end, err := time.ParseInLocation(DateLayout, endDate, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: endDate %q must be YYYY-MM-DD", ErrInvalidRange, endDate)
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: startDate is after endDate", ErrInvalidRange)
	}
	return start, end, nil
}

func reportTotals(trips []models.TripView) models.ReportTotals {
	customerPaid, driverPaid, profit := decimal.Zero, decimal.Zero, decimal.Zero
	for _, t := range trips {
		customerPaid = customerPaid.Add(decimal.NewFromFloat(t.Amounts.CustomerPaid))
		driverPaid = driverPaid.Add(decimal.NewFromFloat(t.Amounts.DriverPaid))
		profit = profit.Add(decimal.NewFromFloat(t.Profit))
	}
	return models.ReportTotals{
		CustomerPaid: customerPaid.Round(2).InexactFloat64(),
		DriverPaid:   driverPaid.Round(2).InexactFloat64(),
		Profit:       profit.Round(2).InexactFloat64(),
		Count:        len(trips),
	}
}
