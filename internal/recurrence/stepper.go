// Package recurrence computes occurrence dates of recurring rules.
//
// Each frequency has its own Stepper that encapsulates calendar arithmetic
// for that cadence. Occurrences are always computed from the rule's start
// date (the anchor) as anchor + n periods, never by chaining steps, so a
// clamped month end does not drift: a rule anchored on Jan 31 occurs on
// Feb 29 (or 28), Mar 31, Apr 30, and so on.
package recurrence

import (
	"fmt"

	"finboard/internal/core"
)

// Stepper is the strategy interface for one frequency.
type Stepper interface {
	// Step returns the n-th occurrence after anchor (n = 0 is anchor itself).
	Step(anchor core.Date, n int) core.Date
	// Periods returns a lower bound for the index of the first occurrence
	// on or after ref. It must never overshoot that index.
	Periods(anchor, ref core.Date) int
}

// DailyStepper advances by calendar days.
type DailyStepper struct{}

func (DailyStepper) Step(anchor core.Date, n int) core.Date { return anchor.AddDays(n) }

func (DailyStepper) Periods(anchor, ref core.Date) int { return anchor.DaysUntil(ref) }

// WeeklyStepper advances by seven calendar days.
type WeeklyStepper struct{}

func (WeeklyStepper) Step(anchor core.Date, n int) core.Date { return anchor.AddDays(7 * n) }

func (WeeklyStepper) Periods(anchor, ref core.Date) int { return anchor.DaysUntil(ref) / 7 }

// MonthlyStepper advances by calendar months, clamping the anchor day to the
// last day of shorter months.
type MonthlyStepper struct{}

func (MonthlyStepper) Step(anchor core.Date, n int) core.Date { return AddMonths(anchor, n) }

func (MonthlyStepper) Periods(anchor, ref core.Date) int {
	return (ref.Year()-anchor.Year())*12 + ref.Month() - anchor.Month()
}

// YearlyStepper advances by calendar years. Feb 29 anchors fall on Feb 28
// in non-leap years.
type YearlyStepper struct{}

func (YearlyStepper) Step(anchor core.Date, n int) core.Date { return AddMonths(anchor, 12*n) }

func (YearlyStepper) Periods(anchor, ref core.Date) int { return ref.Year() - anchor.Year() }

// AddMonths adds n calendar months to d. When the target month is shorter
// than d's day, the result is the last day of the target month.
func AddMonths(d core.Date, n int) core.Date {
	total := d.Year()*12 + (d.Month() - 1) + n
	year, month := total/12, total%12+1
	if month < 1 {
		// total is negative only for dates before year 0.
		month += 12
		year--
	}
	day := d.Day()
	if last := core.DaysInMonth(year, month); day > last {
		day = last
	}
	return core.NewDate(year, month, day)
}

// steppers maps frequencies to their strategies.
var steppers = map[core.Frequency]Stepper{
	core.Daily:   DailyStepper{},
	core.Weekly:  WeeklyStepper{},
	core.Monthly: MonthlyStepper{},
	core.Yearly:  YearlyStepper{},
}

// StepperFor returns the stepper of a frequency.
func StepperFor(f core.Frequency) (Stepper, error) {
	s, ok := steppers[f]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", f)
	}
	return s, nil
}
