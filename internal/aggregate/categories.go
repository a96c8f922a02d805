// Package aggregate derives read-only views from a ledger: per-category
// totals, a monthly income/expense series and filtered, paginated lists.
//
// Everything here is recomputed from the ledger passed in; nothing is cached.
package aggregate

import (
	"strings"

	"finboard/internal/core"
)

// ByCategory totals the ledger per category, in the order of defs.
//
// Positive amounts always go to the reserved Income category. Other amounts
// add their absolute value to the category named by the transaction; when
// that category is not defined (for example it was deleted, or the
// transaction has none) the amount goes to Other if it exists and is dropped
// otherwise. Income is appended when defs does not contain it.
func ByCategory(ledger []core.Transaction, defs []core.Category) []core.SpendingCategory {
	out := make([]core.SpendingCategory, 0, len(defs)+1)
	index := make(map[string]int, len(defs)+1)
	for _, d := range defs {
		if _, dup := index[d.Label]; dup {
			continue
		}
		index[d.Label] = len(out)
		out = append(out, core.SpendingCategory{Label: d.Label, Color: d.Color})
	}
	if _, ok := index[core.CategoryIncome]; !ok {
		index[core.CategoryIncome] = len(out)
		out = append(out, core.SpendingCategory{Label: core.CategoryIncome})
	}

	for _, t := range ledger {
		label := t.Category
		if t.IsIncome() {
			label = core.CategoryIncome
		}
		i, ok := index[label]
		if !ok {
			if i, ok = index[core.CategoryOther]; !ok {
				continue
			}
		}
		out[i].Value = out[i].Value.Add(t.Amount.Abs())
	}
	return out
}

// Spent returns the value of label in aggregates, or zero.
func Spent(aggregates []core.SpendingCategory, label string) core.Money {
	for _, a := range aggregates {
		if strings.EqualFold(a.Label, label) {
			return a.Value
		}
	}
	return core.Money{}
}

// Total sums the values of all aggregates.
func Total(aggregates []core.SpendingCategory) core.Money {
	var total core.Money
	for _, a := range aggregates {
		total = total.Add(a.Value)
	}
	return total
}
