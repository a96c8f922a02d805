package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

const (
	Completed Status = "Completed"
	Pending   Status = "Pending"
)

const (
	Personal Book = "personal"
	Business Book = "business"
)

// Reserved category labels. CategoryIncome captures every positive amount,
// CategoryOther receives spend whose category is unknown.
const (
	CategoryIncome  = "Income"
	CategoryOther   = "Other"
	CategorySavings = "Savings"
)

type (
	Frequency string
	TxType    string
	Status    string
	Book      string

	// RecurringRule is a template for a repeating income or expense.
	// Amount is unsigned; Type decides the sign of derived transactions.
	RecurringRule struct {
		ID          string
		Description string
		Amount      Money
		Type        TxType
		Category    string
		Frequency   Frequency
		StartDate   Date
		EndDate     Date // zero when the rule is open-ended
	}

	// Transaction is a ledger entry. Amount is signed: positive is income.
	Transaction struct {
		ID          string
		Description string
		Date        Date
		Amount      Money
		Status      Status
		Category    string
	}

	Budget struct {
		Category string
		Limit    Money
	}

	// Category is a spending category definition. Color is opaque to the
	// aggregation code and only carried through for display.
	Category struct {
		Label string
		Color string
	}

	Bill struct {
		ID      string
		Name    string
		DueDate Date
		Amount  Money
	}

	Goal struct {
		ID      string
		Name    string
		Target  Money
		Current Money
	}

	// Snapshot is everything one book holds. It is loaded, transformed and
	// saved as a whole.
	Snapshot struct {
		Book         Book
		Transactions []Transaction
		Rules        []RecurringRule
		Budgets      []Budget
		Categories   []Category
		Bills        []Bill
		Goals        []Goal
	}
)

var (
	ErrInvalidDate        = errors.New("date cannot be zero")
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyCategory      = errors.New("empty category")
	ErrInvalidFrequency   = errors.New("invalid frequency")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrEndBeforeStart     = errors.New("end date must not be before start date")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrReservedCategory   = errors.New("reserved category")
	ErrDuplicateCategory  = errors.New("category already exists")
	ErrInvalidBook        = errors.New("invalid book")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyName          = errors.New("empty name")
)

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

func (s Status) Valid() bool {
	return s == Completed || s == Pending
}

func (b Book) Valid() bool {
	return b == Personal || b == Business
}

// ParseBook maps a path segment to a Book.
func ParseBook(s string) (Book, error) {
	b := Book(strings.ToLower(strings.TrimSpace(s)))
	if !b.Valid() {
		return "", ErrInvalidBook
	}
	return b, nil
}

// HasEnd reports whether the rule carries an explicit end date.
func (r RecurringRule) HasEnd() bool {
	return !r.EndDate.IsZero()
}

// Signed returns the amount a single occurrence moves the balance by.
func (r RecurringRule) Signed() Money {
	if r.Type == Income {
		return r.Amount
	}
	return r.Amount.Neg()
}

func (r RecurringRule) Validate() error {
	if err := r.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}

	if r.HasEnd() {
		if err := r.EndDate.Validate(); err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
		if r.EndDate.Before(r.StartDate) {
			return ErrEndBeforeStart
		}
	}

	if !r.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if !r.Type.Valid() {
		return ErrInvalidType
	}
	if err := validateDescription(r.Description); err != nil {
		return err
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (t Transaction) IsIncome() bool  { return t.Amount.Cents > 0 }
func (t Transaction) IsExpense() bool { return t.Amount.Cents < 0 }

// Validate checks a manually authored transaction.
func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := validateDescription(t.Description); err != nil {
		return err
	}
	if t.Amount.Cents == 0 {
		return ErrInvalidAmount
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	return b.Limit.Validate()
}

func (b Bill) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if err := b.DueDate.Validate(); err != nil {
		return err
	}
	return b.Amount.Validate()
}

// Validate checks a goal. Current may be zero but never negative.
func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if g.Current.Cents < 0 {
		return ErrInvalidAmount
	}
	return g.Target.Validate()
}

// FindCategory returns the index of label in the snapshot categories, or -1.
// Matching is case-insensitive, like the duplicate check on creation.
func (s *Snapshot) FindCategory(label string) int {
	for i, c := range s.Categories {
		if strings.EqualFold(c.Label, strings.TrimSpace(label)) {
			return i
		}
	}
	return -1
}

// Clone returns a copy whose slices share no backing arrays with s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Book:         s.Book,
		Transactions: slices.Clone(s.Transactions),
		Rules:        slices.Clone(s.Rules),
		Budgets:      slices.Clone(s.Budgets),
		Categories:   slices.Clone(s.Categories),
		Bills:        slices.Clone(s.Bills),
		Goals:        slices.Clone(s.Goals),
	}
}

func validateDescription(d string) error {
	if len(strings.TrimSpace(d)) == 0 {
		return ErrEmptyDescription
	}
	if len(d) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}
