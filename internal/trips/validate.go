package trips

import (
	"strings"

	"github.com/KidOfCoding/TripManagement/internal/models"
)

// validateRequest checks a create/edit/close form. The HTTP layer binds the same
// rules; this keeps the service safe for other callers.
func validateRequest(req *models.TripRequest) error {
	if req == nil {
		return validationError("request body is required")
	}
	if strings.TrimSpace(req.Driver.Name) == "" {
		return validationError("driver name is required")
	}
	if len(models.NormalizeContactNo(req.Driver.ContactNo)) != 10 {
		return validationError("driver contact number must have 10 digits")
	}
	if strings.TrimSpace(req.Customer.Name) == "" {
		return validationError("customer name is required")
	}
	if len(models.NormalizeContactNo(req.Customer.ContactNo)) != 10 {
		return validationError("customer contact number must have 10 digits")
	}
	if strings.TrimSpace(req.Trip.Source) == "" || strings.TrimSpace(req.Trip.Destination) == "" {
		return validationError("source and destination are required")
	}
	if req.Driver.MoneyOut < 0 || req.Customer.MoneyIn < 0 || req.Trip.DistanceKM < 0 {
		return validationError("amounts must not be negative")
	}
	if req.Trip.Status != "" && !models.IsValidTripStatus(req.Trip.Status) {
		return validationError("unknown trip status %q", req.Trip.Status)
	}
	switch req.Trip.ServiceType {
	case "", models.ServiceCabWithDriver, models.ServiceDriverOnly:
	default:
		return validationError("unknown service type %q", req.Trip.ServiceType)
	}
	switch req.Trip.TripType {
	case "", models.TripSingle, models.TripMulti:
	default:
		return validationError("unknown trip type %q", req.Trip.TripType)
	}
	for _, stop := range req.Trip.Stops {
		for _, e := range stop.Expenses {
			if e.Amount < 0 {
				return validationError("expense amounts must not be negative")
			}
		}
	}
	if p := req.Trip.PaymentDetails; p != nil && p.Amount < 0 {
		return validationError("settlement amount must not be negative")
	}
	for _, e := range req.Trip.ClosingExpenses {
		if e.Amount < 0 {
			return validationError("expense amounts must not be negative")
		}
	}
	return nil
}
