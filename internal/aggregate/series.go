package aggregate

import (
	"time"

	"finboard/internal/core"
	"finboard/internal/recurrence"
)

// DefaultSeriesMonths is the trailing window of the income/expense chart.
const DefaultSeriesMonths = 6

// IncomeExpenseSeries buckets the ledger by calendar month over the months
// trailing window ending with today's month, oldest first. Months without
// activity are present with zero totals.
func IncomeExpenseSeries(ledger []core.Transaction, today core.Date, months int) []core.MonthPoint {
	if months <= 0 {
		return []core.MonthPoint{}
	}

	first := core.NewDate(today.Year(), today.Month(), 1)
	first = recurrence.AddMonths(first, -(months - 1))

	points := make([]core.MonthPoint, months)
	for i := range points {
		m := recurrence.AddMonths(first, i)
		points[i] = core.MonthPoint{
			Year:  m.Year(),
			Month: m.Month(),
			Label: time.Month(m.Month()).String()[:3] + " " + m.Format("2006"),
		}
	}

	for _, t := range ledger {
		i := (t.Date.Year()-first.Year())*12 + t.Date.Month() - first.Month()
		if i < 0 || i >= months {
			continue
		}
		switch {
		case t.IsIncome():
			points[i].Income = points[i].Income.Add(t.Amount)
		case t.IsExpense():
			points[i].Expense = points[i].Expense.Add(t.Amount.Abs())
		}
	}
	return points
}
