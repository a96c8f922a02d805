package core

// InsightKind classifies a FinancialInsight for display.
type InsightKind string

const (
	InsightAlert   InsightKind = "alert"
	InsightInfo    InsightKind = "info"
	InsightSuccess InsightKind = "success"
)

// SpendingCategory is the accumulated spend (or income) of one category.
type SpendingCategory struct {
	Label string
	Color string
	Value Money
}

// FinancialInsight is a short message derived from the current aggregates.
// It is rebuilt on every pass and never stored.
type FinancialInsight struct {
	ID      string
	Kind    InsightKind
	Message string
}

// ForecastPoint is the projected running balance at the end of Date.
type ForecastPoint struct {
	Date    Date
	Balance Money
}

// MonthPoint is the income and expense total of one calendar month.
// Expense is reported as a positive amount.
type MonthPoint struct {
	Year    int
	Month   int // 1-12
	Label   string
	Income  Money
	Expense Money
}
