package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TripStatus is the lifecycle state of a trip.
type TripStatus string

const (
	TripOngoing TripStatus = "ongoing"
	TripDone    TripStatus = "done"
)

// IsValidTripStatus reports whether s is one of the known lifecycle states.
func IsValidTripStatus(s TripStatus) bool {
	return s == TripOngoing || s == TripDone
}

// ServiceType distinguishes a chauffeured cab from a driver-only booking.
type ServiceType string

const (
	ServiceCabWithDriver ServiceType = "cab_with_driver"
	ServiceDriverOnly    ServiceType = "driver_only"
)

// TripType marks single or multi-leg trips.
type TripType string

const (
	TripSingle TripType = "single"
	TripMulti  TripType = "multi"
)

// Expense is an itemized cost attached to a stop (toll, parking, food...).
type Expense struct {
	ID     primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Type   string             `json:"type" bson:"type"`
	Amount float64            `json:"amount" bson:"amount"`
}

// ClosingExpense is a trip-level cost recorded when the trip is closed (fuel, etc.).
type ClosingExpense struct {
	ID          primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	ExpenseType string             `json:"expenseType" bson:"expenseType"`
	Amount      float64            `json:"amount" bson:"amount"`
}

// Stop is a location on the route. The last stop is the final destination.
type Stop struct {
	ID       primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Location string             `json:"location" bson:"location"`
	Expenses []Expense          `json:"expenses" bson:"expenses"`
}

// Route holds the trip's endpoints and ordered stops.
type Route struct {
	Source      string `json:"source" bson:"source"`
	Destination string `json:"destination" bson:"destination"`
	FromAddress string `json:"fromAddress,omitempty" bson:"fromAddress,omitempty"`
	ToAddress   string `json:"toAddress,omitempty" bson:"toAddress,omitempty"`
	Stops       []Stop `json:"stops" bson:"stops"`
}

// Stay is a time-bounded halt at an intermediate location.
type Stay struct {
	Location    string     `json:"location" bson:"location"`
	DurationMin int        `json:"durationMin" bson:"durationMin"`
	ArrivedAt   *time.Time `json:"arrivedAt,omitempty" bson:"arrivedAt,omitempty"`
	DepartedAt  *time.Time `json:"departedAt,omitempty" bson:"departedAt,omitempty"`
}

// Payment records an advance or the final settlement.
type Payment struct {
	Amount    float64 `json:"amount" bson:"amount"`
	VoucherNo string  `json:"voucherNo,omitempty" bson:"voucherNo,omitempty"`
	Mode      string  `json:"mode,omitempty" bson:"mode,omitempty"` // "cash", "upi", "bank", "card"
	Notes     string  `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Amounts holds what the customer was charged and what the driver is owed.
type Amounts struct {
	CustomerPaid float64 `json:"customerPaid" bson:"customerPaid"`
	DriverPaid   float64 `json:"driverPaid" bson:"driverPaid"`
}

// Status is the lifecycle state plus two independent payment flags.
type Status struct {
	TripStatus   TripStatus `json:"tripStatus" bson:"tripStatus"`
	CustomerPaid bool       `json:"customerPaid" bson:"customerPaid"`
	DriverPaid   bool       `json:"driverPaid" bson:"driverPaid"`
}

// Trip represents a dispatched trip between a customer and a driver.
type Trip struct {
	ID                primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	TripNo            int64              `json:"tripNo" bson:"tripNo"`
	UserID            string             `json:"userId" bson:"userId"`
	DriverID          primitive.ObjectID `json:"driverId" bson:"driverId"`
	CustomerID        primitive.ObjectID `json:"customerId" bson:"customerId"`
	Route             Route              `json:"route" bson:"route"`
	ServiceType       ServiceType        `json:"serviceType,omitempty" bson:"serviceType,omitempty"`
	TripType          TripType           `json:"tripType,omitempty" bson:"tripType,omitempty"`
	DistanceKM        float64            `json:"distanceKM,omitempty" bson:"distanceKM,omitempty"`
	Car               string             `json:"car" bson:"car"`
	Amounts           Amounts            `json:"amounts" bson:"amounts"`
	AdvancePayment    *Payment           `json:"advancePayment,omitempty" bson:"advancePayment,omitempty"`
	IntermediateStays []Stay             `json:"intermediateStays" bson:"intermediateStays"`
	ClosingExpenses   []ClosingExpense   `json:"closingExpenses" bson:"closingExpenses"`
	PaymentDetails    *Payment           `json:"paymentDetails,omitempty" bson:"paymentDetails,omitempty"`
	Profit            float64            `json:"profit" bson:"profit"`
	Status            Status             `json:"status" bson:"status"`
	CompletedAt       *time.Time         `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	CreatedAt         time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// TripView is a trip with its driver and customer populated. The JSON keys
// driverId/customerId carry the populated documents, matching what clients render.
type TripView struct {
	Trip     `bson:",inline"`
	Driver   *Driver   `json:"driverId" bson:"driver,omitempty"`
	Customer *Customer `json:"customerId" bson:"customer,omitempty"`
}

// MarshalJSON writes the raw reference id for a party whose record is missing.
func (v TripView) MarshalJSON() ([]byte, error) {
	type view TripView
	var driver, customer interface{} = v.DriverID, v.CustomerID
	if v.Driver != nil {
		driver = v.Driver
	}
	if v.Customer != nil {
		customer = v.Customer
	}
	return json.Marshal(struct {
		view
		Driver   interface{} `json:"driverId"`
		Customer interface{} `json:"customerId"`
	}{view(v), driver, customer})
}

// StopExpenseTotal sums every expense across all stops.
func (t *Trip) StopExpenseTotal() float64 {
	total := 0.0
	for _, s := range t.Route.Stops {
		for _, e := range s.Expenses {
			total += e.Amount
		}
	}
	return total
}

// ClosingExpenseTotal sums the closing expenses.
func (t *Trip) ClosingExpenseTotal() float64 {
	total := 0.0
	for _, e := range t.ClosingExpenses {
		total += e.Amount
	}
	return total
}

// RecalculateProfit recomputes Profit from the trip's amounts and expenses.
func (t *Trip) RecalculateProfit() {
	t.Profit = CalculateProfit(t.Amounts.CustomerPaid, t.Amounts.DriverPaid, t.Route.Stops, t.ClosingExpenses)
}
