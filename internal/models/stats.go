package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// PeriodTotals aggregates completed trips over one period.
type PeriodTotals struct {
	TotalProfit      float64 `json:"totalProfit" bson:"totalProfit"`
	TotalDriverPay   float64 `json:"totalDriverPay" bson:"totalDriverPay"`
	TotalCustomerPay float64 `json:"totalCustomerPay" bson:"totalCustomerPay"`
	Count            int64   `json:"count" bson:"count"`
}

// TripStats holds today/week/month totals. Empty periods are zero values, never nil.
type TripStats struct {
	Today PeriodTotals `json:"today"`
	Week  PeriodTotals `json:"week"`
	Month PeriodTotals `json:"month"`
}

// DuplicateKey is the grouping key of a duplicate set.
type DuplicateKey struct {
	Source      string             `json:"source" bson:"source"`
	Destination string             `json:"destination" bson:"destination"`
	CustomerID  primitive.ObjectID `json:"customerId" bson:"customerId"`
	Amount      float64            `json:"amount" bson:"amount"`
}

// DuplicateSet is a group of trips sharing source, destination, customer and amount.
type DuplicateSet struct {
	Key   DuplicateKey `json:"_id" bson:"_id"`
	Trips []TripView   `json:"trips" bson:"trips"`
	Count int          `json:"count" bson:"count"`
}

// DriverSummary is a driver with their trip count and total payout.
type DriverSummary struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Name        string             `json:"name" bson:"name"`
	ContactNo   string             `json:"contactNo" bson:"contactNo"`
	VehicleNo   string             `json:"vehicleNo,omitempty" bson:"vehicleNo,omitempty"`
	TotalTrips  int                `json:"totalTrips" bson:"totalTrips"`
	TotalEarned float64            `json:"totalEarned" bson:"totalEarned"`
}

// CustomerSummary is a customer with their trip count and total spend.
type CustomerSummary struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id"`
	Name       string             `json:"name" bson:"name"`
	ContactNo  string             `json:"contactNo" bson:"contactNo"`
	Address    string             `json:"address,omitempty" bson:"address,omitempty"`
	TotalTrips int                `json:"totalTrips" bson:"totalTrips"`
	TotalSpent float64            `json:"totalSpent" bson:"totalSpent"`
}

// People is the directory of drivers and customers of one account.
type People struct {
	Drivers   []DriverSummary   `json:"drivers"`
	Customers []CustomerSummary `json:"customers"`
}

// ReportTotals are the running totals of a ranged report.
type ReportTotals struct {
	CustomerPaid float64 `json:"customerPaid"`
	DriverPaid   float64 `json:"driverPaid"`
	Profit       float64 `json:"profit"`
	Count        int     `json:"count"`
}

// Report lists completed trips in a date range.
type Report struct {
	StartDate string       `json:"startDate"`
	EndDate   string       `json:"endDate"`
	Trips     []TripView   `json:"trips"`
	Totals    ReportTotals `json:"totals"`
}
