package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func validRule() RecurringRule {
	return RecurringRule{
		ID:          "PR01",
		Description: "Rent Payment",
		Amount:      Cents(220000),
		Type:        Expense,
		Category:    "Housing",
		Frequency:   Monthly,
		StartDate:   NewDate(2024, 1, 1),
	}
}

func TestRecurringRuleValidate(t *testing.T) {
	if err := validRule().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*RecurringRule)
		wantErr error
	}{
		{"zero amount", func(r *RecurringRule) { r.Amount = Cents(0) }, ErrInvalidAmount},
		{"negative amount", func(r *RecurringRule) { r.Amount = Cents(-5) }, ErrInvalidAmount},
		{"end before start", func(r *RecurringRule) { r.EndDate = NewDate(2023, 12, 31) }, ErrEndBeforeStart},
		{"bad frequency", func(r *RecurringRule) { r.Frequency = "hourly" }, ErrInvalidFrequency},
		{"bad type", func(r *RecurringRule) { r.Type = "transfer" }, ErrInvalidType},
		{"empty description", func(r *RecurringRule) { r.Description = "  " }, ErrEmptyDescription},
		{"empty category", func(r *RecurringRule) { r.Category = "" }, ErrEmptyCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRule()
			tt.mutate(&r)
			if err := r.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("zero start date", func(t *testing.T) {
		r := validRule()
		r.StartDate = Date{}
		if err := r.Validate(); err == nil {
			t.Fatal("expected error for zero start date")
		}
	})

	t.Run("end equal to start", func(t *testing.T) {
		r := validRule()
		r.EndDate = r.StartDate
		if err := r.Validate(); err != nil {
			t.Fatalf("expected ok, got %v", err)
		}
	})
}

func TestRecurringRuleSigned(t *testing.T) {
	r := validRule()
	if got := r.Signed(); got.Cents != -220000 {
		t.Errorf("expense Signed() = %d, want -220000", got.Cents)
	}
	r.Type = Income
	if got := r.Signed(); got.Cents != 220000 {
		t.Errorf("income Signed() = %d, want 220000", got.Cents)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ID:          "T1",
		Description: "Groceries",
		Date:        NewDate(2024, 9, 18),
		Amount:      Cents(-18075),
		Status:      Completed,
		Category:    "Groceries",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !good.IsExpense() || good.IsIncome() {
		t.Fatalf("negative amount should be an expense")
	}

	bads := []Transaction{
		{Description: "a", Date: Date{}, Amount: Cents(1), Status: Completed},
		{Description: "", Date: NewDate(2024, 1, 1), Amount: Cents(1), Status: Completed},
		{Description: "a", Date: NewDate(2024, 1, 1), Amount: Cents(0), Status: Completed},
		{Description: "a", Date: NewDate(2024, 1, 1), Amount: Cents(1), Status: "Done"},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseBook(t *testing.T) {
	if b, err := ParseBook(" Personal "); err != nil || b != Personal {
		t.Fatalf("ParseBook = %q, %v", b, err)
	}
	if _, err := ParseBook("shared"); !errors.Is(err, ErrInvalidBook) {
		t.Fatalf("expected ErrInvalidBook, got %v", err)
	}
}

func TestSnapshotFindCategory(t *testing.T) {
	s := Snapshot{Categories: []Category{{Label: "Housing"}, {Label: "Other"}}}
	if i := s.FindCategory("housing"); i != 0 {
		t.Errorf("FindCategory(housing) = %d, want 0", i)
	}
	if i := s.FindCategory("Travel"); i != -1 {
		t.Errorf("FindCategory(Travel) = %d, want -1", i)
	}
}
