package recurrence

import (
	"iter"

	"finboard/internal/core"
)

// Schedulable reports whether a rule can produce occurrences at all. Rules
// failing this check yield no occurrence instead of an error.
func Schedulable(rule core.RecurringRule) bool {
	if rule.StartDate.IsZero() || rule.Amount.Cents <= 0 {
		return false
	}
	if rule.HasEnd() && rule.EndDate.Before(rule.StartDate) {
		return false
	}
	_, err := StepperFor(rule.Frequency)
	return err == nil
}

// NextOnOrAfter returns the earliest occurrence of rule that is on or after
// ref and inside the rule's active window. The boolean is false when no such
// occurrence exists.
func NextOnOrAfter(rule core.RecurringRule, ref core.Date) (core.Date, bool) {
	_, d, ok := firstIndex(rule, ref)
	return d, ok
}

// Occurrences yields the occurrence dates of rule between from and to, both
// inclusive, in ascending order. The sequence is finite and can be ranged
// over any number of times.
func Occurrences(rule core.RecurringRule, from, to core.Date) iter.Seq[core.Date] {
	return func(yield func(core.Date) bool) {
		n, d, ok := firstIndex(rule, from)
		if !ok {
			return
		}
		s, _ := StepperFor(rule.Frequency)
		for ; !d.After(to) && !pastEnd(rule, d); n++ {
			if !yield(d) {
				return
			}
			d = s.Step(rule.StartDate, n+1)
		}
	}
}

// IsOccurrence reports whether day is exactly an occurrence of rule.
func IsOccurrence(rule core.RecurringRule, day core.Date) bool {
	d, ok := NextOnOrAfter(rule, day)
	return ok && d.Equal(day)
}

// firstIndex finds the index and date of the first occurrence on or after ref.
func firstIndex(rule core.RecurringRule, ref core.Date) (int, core.Date, bool) {
	if !Schedulable(rule) {
		return 0, core.Date{}, false
	}
	if ref.Before(rule.StartDate) {
		return 0, rule.StartDate, true
	}

	s, _ := StepperFor(rule.Frequency)
	n := max(s.Periods(rule.StartDate, ref), 0)
	d := s.Step(rule.StartDate, n)
	for d.Before(ref) {
		n++
		d = s.Step(rule.StartDate, n)
	}

	if pastEnd(rule, d) {
		return 0, core.Date{}, false
	}
	return n, d, true
}

func pastEnd(rule core.RecurringRule, d core.Date) bool {
	return rule.HasEnd() && d.After(rule.EndDate)
}
