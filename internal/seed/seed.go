// Package seed loads book snapshots from TOML files. The embedded sample
// provides the personal and business books used on first start.
package seed

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"finboard/internal/core"
)

//go:embed sample.toml
var sample string

type file struct {
	Personal book `toml:"personal"`
	Business book `toml:"business"`
}

type book struct {
	Categories   []category    `toml:"categories"`
	Transactions []transaction `toml:"transactions"`
	Rules        []rule        `toml:"rules"`
	Budgets      []budget      `toml:"budgets"`
	Bills        []bill        `toml:"bills"`
	Goals        []goal        `toml:"goals"`
}

type category struct {
	Label string `toml:"label"`
	Color string `toml:"color"`
}

type transaction struct {
	ID          string    `toml:"id"`
	Description string    `toml:"description"`
	Date        core.Date `toml:"date"`
	Amount      float64   `toml:"amount"`
	Status      string    `toml:"status"`
	Category    string    `toml:"category"`
}

type rule struct {
	ID          string    `toml:"id"`
	Description string    `toml:"description"`
	Amount      float64   `toml:"amount"`
	Type        string    `toml:"type"`
	Category    string    `toml:"category"`
	Frequency   string    `toml:"frequency"`
	StartDate   core.Date `toml:"start_date"`
	EndDate     core.Date `toml:"end_date"`
}

type budget struct {
	Category string  `toml:"category"`
	Limit    float64 `toml:"limit"`
}

type bill struct {
	ID      string    `toml:"id"`
	Name    string    `toml:"name"`
	DueDate core.Date `toml:"due_date"`
	Amount  float64   `toml:"amount"`
}

type goal struct {
	ID      string  `toml:"id"`
	Name    string  `toml:"name"`
	Target  float64 `toml:"target"`
	Current float64 `toml:"current"`
}

// Sample returns the embedded personal and business books.
func Sample() ([]core.Snapshot, error) {
	var f file
	if _, err := toml.Decode(sample, &f); err != nil {
		return nil, fmt.Errorf("decode embedded sample: %w", err)
	}
	return f.snapshots()
}

// Load decodes books from r.
func Load(r io.Reader) ([]core.Snapshot, error) {
	var f file
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return f.snapshots()
}

// LoadFile decodes books from path, or the embedded sample when path is empty.
func LoadFile(path string) ([]core.Snapshot, error) {
	if path == "" {
		return Sample()
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer fh.Close()
	return Load(fh)
}

func (f file) snapshots() ([]core.Snapshot, error) {
	personal, err := f.Personal.snapshot(core.Personal)
	if err != nil {
		return nil, err
	}
	business, err := f.Business.snapshot(core.Business)
	if err != nil {
		return nil, err
	}
	return []core.Snapshot{personal, business}, nil
}

func (b book) snapshot(name core.Book) (core.Snapshot, error) {
	s := core.Snapshot{Book: name}

	for _, c := range b.Categories {
		s.Categories = append(s.Categories, core.Category{Label: c.Label, Color: c.Color})
	}
	for _, t := range b.Transactions {
		tx := core.Transaction{
			ID:          t.ID,
			Description: t.Description,
			Date:        t.Date,
			Amount:      core.MoneyFromFloat(t.Amount),
			Status:      core.Status(t.Status),
			Category:    t.Category,
		}
		if tx.Status == "" {
			tx.Status = core.Completed
		}
		if !tx.Status.Valid() {
			return core.Snapshot{}, fmt.Errorf("%s transaction %s: %w", name, t.ID, core.ErrInvalidStatus)
		}
		s.Transactions = append(s.Transactions, tx)
	}
	for _, r := range b.Rules {
		rr := core.RecurringRule{
			ID:          r.ID,
			Description: r.Description,
			Amount:      core.MoneyFromFloat(r.Amount),
			Type:        core.TxType(r.Type),
			Category:    r.Category,
			Frequency:   core.Frequency(r.Frequency),
			StartDate:   r.StartDate,
			EndDate:     r.EndDate,
		}
		if err := rr.Validate(); err != nil {
			return core.Snapshot{}, fmt.Errorf("%s rule %s: %w", name, r.ID, err)
		}
		s.Rules = append(s.Rules, rr)
	}
	for _, bu := range b.Budgets {
		budget := core.Budget{Category: bu.Category, Limit: core.MoneyFromFloat(bu.Limit)}
		if err := budget.Validate(); err != nil {
			return core.Snapshot{}, fmt.Errorf("%s budget %s: %w", name, bu.Category, err)
		}
		s.Budgets = append(s.Budgets, budget)
	}
	for _, bl := range b.Bills {
		bill := core.Bill{ID: bl.ID, Name: bl.Name, DueDate: bl.DueDate, Amount: core.MoneyFromFloat(bl.Amount)}
		if err := bill.Validate(); err != nil {
			return core.Snapshot{}, fmt.Errorf("%s bill %s: %w", name, bl.ID, err)
		}
		s.Bills = append(s.Bills, bill)
	}
	for _, g := range b.Goals {
		goal := core.Goal{ID: g.ID, Name: g.Name, Target: core.MoneyFromFloat(g.Target), Current: core.MoneyFromFloat(g.Current)}
		if err := goal.Validate(); err != nil {
			return core.Snapshot{}, fmt.Errorf("%s goal %s: %w", name, g.ID, err)
		}
		s.Goals = append(s.Goals, goal)
	}
	return s, nil
}
