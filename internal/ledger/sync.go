// Package ledger expands recurring rules into concrete transactions and
// merges them into a book's ledger.
//
// Identity encodes idempotence: a posted occurrence always gets the id
// "T-recurring-<ruleID>-<YYYY-MM-DD>", so re-running synchronization for the
// same rules and day never posts the same occurrence twice.
package ledger

import (
	"cmp"
	"slices"
	"strings"

	"finboard/internal/core"
	"finboard/internal/recurrence"
)

// RecurringPrefix starts the id of every transaction posted from a rule.
const RecurringPrefix = "T-recurring"

// RecurringSuffix is appended to the rule description on posted transactions.
const RecurringSuffix = " (Recurring)"

// TransactionID derives the ledger id of a rule occurrence.
func TransactionID(ruleID string, occurrence core.Date) string {
	return RecurringPrefix + "-" + ruleID + "-" + occurrence.String()
}

// IsRecurring reports whether a transaction was posted from a rule.
func IsRecurring(t core.Transaction) bool {
	return strings.HasPrefix(t.ID, RecurringPrefix+"-")
}

// Due returns the transactions that synchronizing existing against rules on
// today would add, in rule order then date order. existing is not modified.
func Due(existing []core.Transaction, rules []core.RecurringRule, today core.Date) []core.Transaction {
	seen := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		seen[t.ID] = struct{}{}
	}

	var staged []core.Transaction
	for _, rule := range rules {
		for day := range recurrence.Occurrences(rule, rule.StartDate, today) {
			id := TransactionID(rule.ID, day)
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			staged = append(staged, core.Transaction{
				ID:          id,
				Description: rule.Description + RecurringSuffix,
				Date:        day,
				Amount:      rule.Signed(),
				Status:      core.Completed,
				Category:    rule.Category,
			})
		}
	}
	return staged
}

// Synchronize returns a new ledger holding existing plus every due rule
// occurrence up to and including today, sorted by date descending. Entries
// on the same date keep their relative order. existing is not modified.
//
// Synchronize is idempotent: feeding its result back with the same rules and
// today returns an identical ledger.
func Synchronize(existing []core.Transaction, rules []core.RecurringRule, today core.Date) []core.Transaction {
	ledger, _ := SynchronizeCount(existing, rules, today)
	return ledger
}

// SynchronizeCount is Synchronize that also reports how many transactions
// were posted.
func SynchronizeCount(existing []core.Transaction, rules []core.RecurringRule, today core.Date) ([]core.Transaction, int) {
	staged := Due(existing, rules, today)
	out := make([]core.Transaction, 0, len(existing)+len(staged))
	out = append(out, existing...)
	out = append(out, staged...)
	SortByDateDesc(out)
	return out, len(staged)
}

// SortByDateDesc orders txs newest first, in place and stable.
func SortByDateDesc(txs []core.Transaction) {
	slices.SortStableFunc(txs, func(a, b core.Transaction) int {
		return cmp.Compare(b.Date.Unix(), a.Date.Unix())
	})
}

// Insert returns a copy of txs with t added and the result re-sorted.
func Insert(txs []core.Transaction, t core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs)+1)
	out = append(out, t)
	out = append(out, txs...)
	SortByDateDesc(out)
	return out
}

// Replace returns a copy of txs with the transaction of the same id swapped
// for t. The boolean is false when no such transaction exists.
func Replace(txs []core.Transaction, t core.Transaction) ([]core.Transaction, bool) {
	i := slices.IndexFunc(txs, func(x core.Transaction) bool { return x.ID == t.ID })
	if i < 0 {
		return txs, false
	}
	out := slices.Clone(txs)
	out[i] = t
	SortByDateDesc(out)
	return out, true
}

// Remove returns a copy of txs without the transaction id.
func Remove(txs []core.Transaction, id string) ([]core.Transaction, bool) {
	out := slices.DeleteFunc(slices.Clone(txs), func(x core.Transaction) bool { return x.ID == id })
	return out, len(out) != len(txs)
}

// Relabel returns a copy of txs where every transaction in category from is
// moved to category to.
func Relabel(txs []core.Transaction, from, to string) []core.Transaction {
	out := slices.Clone(txs)
	for i := range out {
		if out[i].Category == from {
			out[i].Category = to
		}
	}
	return out
}
