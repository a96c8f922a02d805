// Package insight turns category aggregates, budgets, upcoming bills and
// savings goals into a short, prioritized list of messages.
package insight

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finboard/internal/aggregate"
	"finboard/internal/core"
)

const (
	DefaultMaxInsights    = 3
	DefaultBillWindowDays = 7
	// WarnPercent is the share of a budget above which spending is flagged.
	WarnPercent = 85
)

var (
	goalLow  = decimal.RequireFromString("0.75")
	goalHigh = decimal.NewFromInt(1)
)

// Analyzer holds the presentation settings of the insight list.
type Analyzer struct {
	Currency       string
	MaxInsights    int
	BillWindowDays int
}

// NewAnalyzer returns an Analyzer with the default cap and bill window.
func NewAnalyzer(currency string) *Analyzer {
	return &Analyzer{
		Currency:       currency,
		MaxInsights:    DefaultMaxInsights,
		BillWindowDays: DefaultBillWindowDays,
	}
}

// Analyze evaluates, in priority order:
//
//  1. budgets whose category spend exceeds the limit (alert)
//  2. budgets with spend above 85% of the limit, up to the limit (info)
//  3. the largest bill due within the bill window from today (info)
//  4. the goal with the highest completion, if strictly between 75% and 100% (success)
//
// When nothing matched, a single "stable" info is returned. The result never
// holds more than MaxInsights entries and is never empty.
func (a *Analyzer) Analyze(aggregates []core.SpendingCategory, budgets []core.Budget, bills []core.Bill, goals []core.Goal, today core.Date) []core.FinancialInsight {
	var out []core.FinancialInsight

	for _, b := range budgets {
		if b.Limit.Cents <= 0 {
			continue
		}
		spent := aggregate.Spent(aggregates, b.Category)
		if spent.Cents > b.Limit.Cents {
			out = append(out, core.FinancialInsight{
				ID:      "budget-exceeded-" + slug(b.Category),
				Kind:    core.InsightAlert,
				Message: fmt.Sprintf("You have exceeded your budget for %s, spending %s.", b.Category, spent.Display(a.Currency)),
			})
		}
	}

	for _, b := range budgets {
		if b.Limit.Cents <= 0 {
			continue
		}
		spent := aggregate.Spent(aggregates, b.Category)
		if nearLimit(spent, b.Limit) {
			out = append(out, core.FinancialInsight{
				ID:      "budget-warning-" + slug(b.Category),
				Kind:    core.InsightInfo,
				Message: fmt.Sprintf("You have used over %d%% of your budget for %s.", WarnPercent, b.Category),
			})
		}
	}

	if bill, ok := largestDue(bills, today, a.billWindow()); ok {
		out = append(out, core.FinancialInsight{
			ID:   "bill-" + bill.ID,
			Kind: core.InsightInfo,
			Message: fmt.Sprintf("Upcoming bill: %s of %s is due on %s.",
				bill.Name, bill.Amount.Display(a.Currency), bill.DueDate),
		})
	}

	if goal, ratio, ok := closestGoal(goals); ok && ratio.GreaterThan(goalLow) && ratio.LessThan(goalHigh) {
		out = append(out, core.FinancialInsight{
			ID:   "goal-" + goal.ID,
			Kind: core.InsightSuccess,
			Message: fmt.Sprintf("You're close to your goal %s: %s%% complete.",
				goal.Name, ratio.Shift(2).Floor().String()),
		})
	}

	if len(out) == 0 {
		return []core.FinancialInsight{{
			ID:      "stable",
			Kind:    core.InsightInfo,
			Message: "Your finances look stable. Keep up the good work!",
		}}
	}

	if limit := a.maxInsights(); len(out) > limit {
		out = out[:limit]
	}
	return out
}

// nearLimit reports WarnPercent% < spent/limit <= 100%.
func nearLimit(spent, limit core.Money) bool {
	if spent.Cents > limit.Cents {
		return false
	}
	return decimal.NewFromInt(spent.Cents).Mul(decimal.NewFromInt(100)).
		GreaterThan(decimal.NewFromInt(limit.Cents).Mul(decimal.NewFromInt(WarnPercent)))
}

// largestDue picks the largest bill due in [today, today+window]. Ties keep
// the first bill listed.
func largestDue(bills []core.Bill, today core.Date, window int) (core.Bill, bool) {
	last := today.AddDays(window)
	var (
		best  core.Bill
		found bool
	)
	for _, b := range bills {
		if b.DueDate.Before(today) || b.DueDate.After(last) {
			continue
		}
		if !found || b.Amount.Cents > best.Amount.Cents {
			best, found = b, true
		}
	}
	return best, found
}

// closestGoal returns the goal with the highest current/target ratio.
func closestGoal(goals []core.Goal) (core.Goal, decimal.Decimal, bool) {
	var (
		best  core.Goal
		ratio decimal.Decimal
		found bool
	)
	for _, g := range goals {
		if g.Target.Cents <= 0 {
			continue
		}
		r := decimal.NewFromInt(g.Current.Cents).Div(decimal.NewFromInt(g.Target.Cents))
		if !found || r.GreaterThan(ratio) {
			best, ratio, found = g, r, true
		}
	}
	return best, ratio, found
}

func (a *Analyzer) maxInsights() int {
	if a.MaxInsights <= 0 {
		return DefaultMaxInsights
	}
	return a.MaxInsights
}

func (a *Analyzer) billWindow() int {
	if a.BillWindowDays < 0 {
		return DefaultBillWindowDays
	}
	return a.BillWindowDays
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}
