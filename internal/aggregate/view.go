package aggregate

import (
	"fmt"

	"finboard/internal/core"
)

// DefaultPageSize is the number of transactions per page.
const DefaultPageSize = 10

// TypeFilter restricts a view by the sign of the amount.
type TypeFilter string

const (
	AllTypes     TypeFilter = ""
	IncomeOnly   TypeFilter = "income"
	ExpensesOnly TypeFilter = "expense"
)

// ParseTypeFilter accepts "", "all", "income" and "expense".
func ParseTypeFilter(s string) (TypeFilter, error) {
	switch s {
	case "", "all":
		return AllTypes, nil
	case string(IncomeOnly):
		return IncomeOnly, nil
	case string(ExpensesOnly):
		return ExpensesOnly, nil
	}
	return AllTypes, fmt.Errorf("unknown type filter %q", s)
}

// Filter is the AND of its active predicates. Zero values are inactive.
type Filter struct {
	Category string // exact match; "" or "all" matches every category
	Type     TypeFilter
	Start    core.Date // inclusive
	End      core.Date // inclusive
}

// Match reports whether t passes every active predicate.
func (f Filter) Match(t core.Transaction) bool {
	if f.Category != "" && f.Category != "all" && t.Category != f.Category {
		return false
	}
	switch f.Type {
	case IncomeOnly:
		if !t.IsIncome() {
			return false
		}
	case ExpensesOnly:
		if !t.IsExpense() {
			return false
		}
	}
	if !f.Start.IsZero() && t.Date.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && t.Date.After(f.End) {
		return false
	}
	return true
}

// Apply returns the transactions of ledger matching f, in ledger order.
func Apply(ledger []core.Transaction, f Filter) []core.Transaction {
	out := make([]core.Transaction, 0, len(ledger))
	for _, t := range ledger {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Page is one slice of a filtered list. Index is zero based.
type Page struct {
	Items []core.Transaction
	Index int
	Size  int
	Total int
	Pages int
}

// Paginate slices txs into pages of size and returns page index. An index
// past the last page is clamped to the last page.
func Paginate(txs []core.Transaction, index, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := (len(txs) + size - 1) / size
	index = max(min(index, pages-1), 0)

	lo := min(index*size, len(txs))
	hi := min(lo+size, len(txs))
	return Page{
		Items: txs[lo:hi],
		Index: index,
		Size:  size,
		Total: len(txs),
		Pages: pages,
	}
}

// View is a filtered, paginated window over a ledger. Changing the filter or
// the page size moves back to the first page; replacing the ledger keeps the
// current page when it still exists.
type View struct {
	ledger   []core.Transaction
	filter   Filter
	size     int
	index    int
	filtered []core.Transaction
}

// NewView builds a view over ledger showing the first page.
func NewView(ledger []core.Transaction, size int) *View {
	if size <= 0 {
		size = DefaultPageSize
	}
	v := &View{ledger: ledger, size: size}
	v.refresh()
	return v
}

func (v *View) SetLedger(ledger []core.Transaction) {
	v.ledger = ledger
	v.refresh()
}

func (v *View) SetFilter(f Filter) {
	v.filter = f
	v.index = 0
	v.refresh()
}

func (v *View) SetPageSize(size int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	v.size = size
	v.index = 0
	v.refresh()
}

// Goto selects page index, clamped to the available pages.
func (v *View) Goto(index int) {
	v.index = index
	v.clamp()
}

func (v *View) Filter() Filter { return v.filter }

// Filtered returns every transaction passing the filter, unpaginated.
func (v *View) Filtered() []core.Transaction { return v.filtered }

func (v *View) Page() Page {
	return Paginate(v.filtered, v.index, v.size)
}

func (v *View) refresh() {
	v.filtered = Apply(v.ledger, v.filter)
	v.clamp()
}

func (v *View) clamp() {
	pages := (len(v.filtered) + v.size - 1) / v.size
	v.index = max(min(v.index, pages-1), 0)
}
