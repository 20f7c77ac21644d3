package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Amount is a money value that also accepts numeric strings ("600", "") from form-driven clients.
type Amount float64

// UnmarshalJSON accepts a JSON number, a numeric string, an empty string or null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", s)
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}

// DriverInput is the driver section of a trip form.
type DriverInput struct {
	Name      string `json:"name" binding:"required"`
	ContactNo string `json:"contactNo" binding:"required,phone10"`
	VehicleNo string `json:"vehicleNo"`
	MoneyOut  Amount `json:"moneyOut" binding:"gte=0"`
}

// PaymentInput is an advance collected at booking time or the settlement
// recorded at close. Forms send an empty amount until one is typed.
type PaymentInput struct {
	Amount    Amount `json:"amount" binding:"gte=0"`
	VoucherNo string `json:"voucherNo"`
	Mode      string `json:"mode"`
	Notes     string `json:"notes"`
}

// CustomerInput is the customer section of a trip form.
type CustomerInput struct {
	Name           string        `json:"name" binding:"required"`
	ContactNo      string        `json:"contactNo" binding:"required,phone10"`
	Address        string        `json:"address"`
	MoneyIn        Amount        `json:"moneyIn" binding:"gte=0"`
	AdvancePayment *PaymentInput `json:"advancePayment"`
}

// TripInput is the trip section of a create, edit or close form.
type TripInput struct {
	Source            string           `json:"source" binding:"required"`
	Destination       string           `json:"destination" binding:"required"`
	FromAddress       string           `json:"fromAddress"`
	ToAddress         string           `json:"toAddress"`
	Car               string           `json:"car"`
	Status            TripStatus       `json:"status"`
	ServiceType       ServiceType      `json:"serviceType"`
	TripType          TripType         `json:"tripType"`
	DistanceKM        Amount           `json:"distanceKM" binding:"gte=0"`
	Stops             []Stop           `json:"stops"`
	IntermediateStays []Stay           `json:"intermediateStays"`
	ClosingExpenses   []ClosingExpense `json:"closingExpenses"`
	PaymentDetails    *PaymentInput    `json:"paymentDetails"`
	DriverPayEnabled  *bool            `json:"driverPayEnabled"`
}

// TripRequest is the body of POST /trips and PUT /trips/:id.
type TripRequest struct {
	Driver   DriverInput   `json:"driver"`
	Customer CustomerInput `json:"customer"`
	Trip     TripInput     `json:"trip"`
}

// IsClose reports whether the request closes a trip currently in the given
// status. Submitting status done closes an ongoing trip. A trip that is
// already done is only closed again when a settlement field is present, so
// a plain edit of a done trip keeps its recorded expenses.
func (r *TripRequest) IsClose(current TripStatus) bool {
	if r.Trip.Status != TripDone {
		return false
	}
	if current != TripDone {
		return true
	}
	return r.Trip.ClosingExpenses != nil || r.Trip.PaymentDetails != nil || r.Trip.DriverPayEnabled != nil
}

// PaymentRequest toggles payment flags. Nil fields are left unchanged.
type PaymentRequest struct {
	CustomerPaid *bool `json:"customerPaid"`
	DriverPaid   *bool `json:"driverPaid"`
}
