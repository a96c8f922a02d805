// Package forecast projects a book's balance forward by replaying future
// occurrences of its recurring rules.
package forecast

import (
	"finboard/internal/core"
	"finboard/internal/recurrence"
)

// DefaultHorizonDays is the length of the projected series.
const DefaultHorizonDays = 30

// Forecast returns horizonDays points starting at start. The running balance
// starts at the sum of every amount in ledger; each day it moves by the
// signed amount of every rule that has an occurrence exactly on that day.
// Point i holds the balance at the end of start+i days.
func Forecast(ledger []core.Transaction, rules []core.RecurringRule, horizonDays int, start core.Date) []core.ForecastPoint {
	if horizonDays <= 0 {
		return []core.ForecastPoint{}
	}

	last := start.AddDays(horizonDays - 1)
	deltas := make([]int64, horizonDays)
	for _, rule := range rules {
		signed := rule.Signed().Cents
		for day := range recurrence.Occurrences(rule, start, last) {
			deltas[start.DaysUntil(day)] += signed
		}
	}

	balance := core.Sum(ledger)
	points := make([]core.ForecastPoint, horizonDays)
	for i := range points {
		balance = balance.Add(core.Cents(deltas[i]))
		points[i] = core.ForecastPoint{Date: start.AddDays(i), Balance: balance}
	}
	return points
}
