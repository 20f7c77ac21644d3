package trips

import (
	"strings"

	"github.com/KidOfCoding/TripManagement/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// mergeStops rebuilds the stop list from the submitted stops while keeping
// the identity and expenses of stored stops. A submitted stop matches a stored
// one by _id, else by location (first unused stop with that location).
//
// A nil expense list always keeps the stored expenses. An empty list keeps them
// on edit and clears them on close, where the submitted expenses are final.
func mergeStops(stored, incoming []models.Stop, closing bool) []models.Stop {
	if incoming == nil {
		return stored
	}

	used := make([]bool, len(stored))
	merged := make([]models.Stop, 0, len(incoming))
	for _, in := range incoming {
		stop := models.Stop{
			Location: strings.TrimSpace(in.Location),
			Expenses: in.Expenses,
		}
		if i := matchStop(stored, used, in); i >= 0 {
			used[i] = true
			stop.ID = stored[i].ID
			if in.Expenses == nil || (!closing && len(in.Expenses) == 0) {
				stop.Expenses = stored[i].Expenses
			}
		}
		if stop.ID.IsZero() {
			stop.ID = primitive.NewObjectID()
		}
		stop.Expenses = withExpenseIDs(stop.Expenses)
		merged = append(merged, stop)
	}
	return merged
}

func matchStop(stored []models.Stop, used []bool, in models.Stop) int {
	if !in.ID.IsZero() {
		for i, s := range stored {
			if !used[i] && s.ID == in.ID {
				return i
			}
		}
	}
	location := strings.TrimSpace(in.Location)
	for i, s := range stored {
		if !used[i] && strings.EqualFold(strings.TrimSpace(s.Location), location) {
			return i
		}
	}
	return -1
}

func withExpenseIDs(expenses []models.Expense) []models.Expense {
	if expenses == nil {
		return nil
	}
	out := make([]models.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.ID.IsZero() {
			e.ID = primitive.NewObjectID()
		}
		e.Type = strings.TrimSpace(e.Type)
		out = append(out, e)
	}
	return out
}

func withClosingExpenseIDs(expenses []models.ClosingExpense) []models.ClosingExpense {
	if expenses == nil {
		return nil
	}
	out := make([]models.ClosingExpense, 0, len(expenses))
	for _, e := range expenses {
		if e.ID.IsZero() {
			e.ID = primitive.NewObjectID()
		}
		e.ExpenseType = strings.TrimSpace(e.ExpenseType)
		out = append(out, e)
	}
	return out
}

// newStops assigns ids to the stops of a new trip. A trip without stops gets
// a single stop at its destination.
func newStops(stops []models.Stop, destination string) []models.Stop {
	if len(stops) == 0 {
		return []models.Stop{{ID: primitive.NewObjectID(), Location: destination, Expenses: []models.Expense{}}}
	}
	out := make([]models.Stop, 0, len(stops))
	for _, s := range stops {
		expenses := withExpenseIDs(s.Expenses)
		if expenses == nil {
			expenses = []models.Expense{}
		}
		out = append(out, models.Stop{
			ID:       primitive.NewObjectID(),
			Location: strings.TrimSpace(s.Location),
			Expenses: expenses,
		})
	}
	return out
}
