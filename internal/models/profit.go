package models

import "github.com/shopspring/decimal"

// CalculateProfit returns customerPaid - driverPaid - every stop and closing
// expense, rounded to two decimal places.
func CalculateProfit(customerPaid, driverPaid float64, stops []Stop, closing []ClosingExpense) float64 {
	profit := decimal.NewFromFloat(customerPaid).Sub(decimal.NewFromFloat(driverPaid))
	for _, s := range stops {
		for _, e := range s.Expenses {
			profit = profit.Sub(decimal.NewFromFloat(e.Amount))
		}
	}
	for _, e := range closing {
		profit = profit.Sub(decimal.NewFromFloat(e.Amount))
	}
	f, _ := profit.Round(2).Float64()
	return f
}

// RoundMoney rounds an amount to two decimal places.
func RoundMoney(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
