package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"finboard/internal/aggregate"
	"finboard/internal/amqp"
	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/forecast"
	"finboard/internal/insight"
	"finboard/internal/ledger"
	"finboard/internal/log"
	"finboard/internal/recurrence"
)

var ErrNotFound = errors.New("not found")

// Palette cycled through when a category is created without a color.
var categoryColors = []string{"#f472b6", "#38bdf8", "#fb923c", "#a78bfa", "#facc15"}

// Store loads and saves whole book snapshots.
type Store interface {
	Load(ctx context.Context, book core.Book) (core.Snapshot, error)
	Save(ctx context.Context, s core.Snapshot) error
	HasBook(ctx context.Context, book core.Book) (bool, error)
}

// Publisher announces synchronization passes that posted transactions.
type Publisher interface {
	PublishLedgerSync(ctx context.Context, msg *amqp.LedgerSyncMessage) error
}

// Options configures the derived views of a book.
type Options struct {
	Currency       string
	HorizonDays    int
	SeriesMonths   int
	BillWindowDays int
	PageSize       int
	// CacheTTL keeps loaded snapshots for reads; zero always hits the store.
	CacheTTL time.Duration
	// Now is the clock used for "today"; time.Now when nil.
	Now func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Currency:       string(core.DefaultCurrency),
		HorizonDays:    forecast.DefaultHorizonDays,
		SeriesMonths:   aggregate.DefaultSeriesMonths,
		BillWindowDays: insight.DefaultBillWindowDays,
		PageSize:       aggregate.DefaultPageSize,
	}
}

// BookService owns one book. Every mutation loads the snapshot, applies the
// change, re-synchronizes the ledger and saves the result.
type BookService struct {
	book     core.Book
	store    Store
	pub      Publisher
	analyzer *insight.Analyzer
	opts     Options
	cache    *cache.LRUCache[core.Snapshot]

	mu sync.RWMutex
}

func NewBookService(book core.Book, store Store, pub Publisher, opts Options) *BookService {
	a := insight.NewAnalyzer(opts.Currency)
	a.BillWindowDays = opts.BillWindowDays
	s := &BookService{
		book:     book,
		store:    store,
		pub:      pub,
		analyzer: a,
		opts:     opts,
	}
	if opts.CacheTTL > 0 {
		s.cache = cache.NewLRUCache[core.Snapshot](1, opts.CacheTTL)
	}
	return s
}

func (s *BookService) Book() core.Book { return s.book }

func (s *BookService) Currency() string { return s.opts.Currency }

// Today is the service's current calendar date.
func (s *BookService) Today() core.Date {
	if s.opts.Now != nil {
		return core.DateOf(s.opts.Now())
	}
	return core.DateOf(time.Now())
}

// Snapshot returns the stored state of the book. With a cache TTL set, a
// snapshot loaded or saved within the TTL is served without a store read.
func (s *BookService) Snapshot(ctx context.Context) (core.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cache != nil {
		if snap, ok := s.cache.Get(string(s.book)); ok {
			return snap.Clone(), nil
		}
	}
	snap, err := s.store.Load(ctx, s.book)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("load book %s: %w", s.book, err)
	}
	s.remember(snap)
	return snap, nil
}

// View returns the snapshot with every recurring occurrence due by today
// posted. Nothing is saved; the next mutation or sync persists them.
func (s *BookService) View(ctx context.Context) (core.Snapshot, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	snap.Transactions = ledger.Synchronize(snap.Transactions, snap.Rules, s.Today())
	return snap, nil
}

func (s *BookService) remember(snap core.Snapshot) {
	if s.cache != nil {
		s.cache.Set(string(s.book), snap.Clone())
	}
}

// Sync posts every due recurring occurrence up to today and returns how many
// transactions were added.
func (s *BookService) Sync(ctx context.Context) (int, error) {
	_, posted, err := s.update(ctx, "sync", func(*core.Snapshot) error { return nil })
	return posted, err
}

func (s *BookService) Categories(ctx context.Context) ([]core.SpendingCategory, error) {
	snap, err := s.View(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.ByCategory(snap.Transactions, snap.Categories), nil
}

func (s *BookService) Series(ctx context.Context) ([]core.MonthPoint, error) {
	snap, err := s.View(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.IncomeExpenseSeries(snap.Transactions, s.Today(), s.opts.SeriesMonths), nil
}

func (s *BookService) Insights(ctx context.Context) ([]core.FinancialInsight, error) {
	snap, err := s.View(ctx)
	if err != nil {
		return nil, err
	}
	aggs := aggregate.ByCategory(snap.Transactions, snap.Categories)
	return s.analyzer.Analyze(aggs, snap.Budgets, snap.Bills, snap.Goals, s.Today()), nil
}

func (s *BookService) Forecast(ctx context.Context) ([]core.ForecastPoint, error) {
	snap, err := s.View(ctx)
	if err != nil {
		return nil, err
	}
	return forecast.Forecast(snap.Transactions, snap.Rules, s.opts.HorizonDays, s.Today()), nil
}

// Transactions returns one page of the filtered ledger.
func (s *BookService) Transactions(ctx context.Context, f aggregate.Filter, page, size int) (aggregate.Page, error) {
	snap, err := s.View(ctx)
	if err != nil {
		return aggregate.Page{}, err
	}
	if size <= 0 {
		size = s.opts.PageSize
	}
	v := aggregate.NewView(snap.Transactions, size)
	v.SetFilter(f)
	v.Goto(page)
	return v.Page(), nil
}

// Filtered returns every transaction matching f, unpaginated.
func (s *BookService) Filtered(ctx context.Context, f aggregate.Filter) ([]core.Transaction, error) {
	snap, err := s.View(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.Apply(snap.Transactions, f), nil
}

// RecurringStatus is a rule with its next occurrence on or after today.
// Expired is set when the rule has no further occurrence.
type RecurringStatus struct {
	Rule     core.RecurringRule
	Next     core.Date
	Expired  bool
	DueToday bool
}

func (s *BookService) Recurring(ctx context.Context) ([]RecurringStatus, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	today := s.Today()
	out := make([]RecurringStatus, 0, len(snap.Rules))
	for _, r := range snap.Rules {
		next, ok := recurrence.NextOnOrAfter(r, today)
		out = append(out, RecurringStatus{
			Rule:     r,
			Next:     next,
			Expired:  !ok,
			DueToday: recurrence.IsOccurrence(r, today),
		})
	}
	return out, nil
}

func (s *BookService) AddRule(ctx context.Context, rule core.RecurringRule) (core.RecurringRule, error) {
	rule.ID = "R-" + uuid.NewString()
	rule.Description = strings.TrimSpace(rule.Description)
	if err := rule.Validate(); err != nil {
		return core.RecurringRule{}, fmt.Errorf("add rule: %w", err)
	}
	_, _, err := s.update(ctx, "add_rule", func(snap *core.Snapshot) error {
		i := snap.FindCategory(rule.Category)
		if i < 0 {
			return fmt.Errorf("category %q: %w", rule.Category, core.ErrUnknownCategory)
		}
		rule.Category = snap.Categories[i].Label
		snap.Rules = append([]core.RecurringRule{rule}, snap.Rules...)
		return nil
	})
	if err != nil {
		return core.RecurringRule{}, err
	}
	return rule, nil
}

// UpdateRule replaces the rule with the same ID. Transactions already posted
// from the old definition are kept.
func (s *BookService) UpdateRule(ctx context.Context, rule core.RecurringRule) error {
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	_, _, err := s.update(ctx, "update_rule", func(snap *core.Snapshot) error {
		i := snap.FindCategory(rule.Category)
		if i < 0 {
			return fmt.Errorf("category %q: %w", rule.Category, core.ErrUnknownCategory)
		}
		rule.Category = snap.Categories[i].Label
		for j := range snap.Rules {
			if snap.Rules[j].ID == rule.ID {
				snap.Rules[j] = rule
				return nil
			}
		}
		return fmt.Errorf("rule %s: %w", rule.ID, ErrNotFound)
	})
	return err
}

func (s *BookService) DeleteRule(ctx context.Context, id string) error {
	_, _, err := s.update(ctx, "delete_rule", func(snap *core.Snapshot) error {
		for j := range snap.Rules {
			if snap.Rules[j].ID == id {
				snap.Rules = append(snap.Rules[:j], snap.Rules[j+1:]...)
				return nil
			}
		}
		return fmt.Errorf("rule %s: %w", id, ErrNotFound)
	})
	return err
}

// ExpenseInput is a manually entered expense. Amount is unsigned.
type ExpenseInput struct {
	Description string
	Date        core.Date
	Amount      core.Money
	Category    string
}

// AddExpense records a completed expense; the amount is stored negative.
// An expense without a category is filed under Other.
func (s *BookService) AddExpense(ctx context.Context, in ExpenseInput) (core.Transaction, error) {
	if strings.TrimSpace(in.Category) == "" {
		in.Category = core.CategoryOther
	}
	if err := in.Amount.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("add expense: %w", err)
	}
	t := core.Transaction{
		ID:          "T-" + uuid.NewString(),
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
		Amount:      in.Amount.Neg(),
		Status:      core.Completed,
		Category:    in.Category,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("add expense: %w", err)
	}
	_, _, err := s.update(ctx, "add_expense", func(snap *core.Snapshot) error {
		i := snap.FindCategory(t.Category)
		if i < 0 {
			return fmt.Errorf("category %q: %w", t.Category, core.ErrUnknownCategory)
		}
		t.Category = snap.Categories[i].Label
		snap.Transactions = ledger.Insert(snap.Transactions, t)
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// UpdateTransaction replaces the transaction with the same ID and returns
// it as stored. The category resolves to its canonical label; an empty one
// becomes Other.
func (s *BookService) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Description = strings.TrimSpace(t.Description)
	if strings.TrimSpace(t.Category) == "" {
		t.Category = core.CategoryOther
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	_, _, err := s.update(ctx, "update_transaction", func(snap *core.Snapshot) error {
		i := snap.FindCategory(t.Category)
		if i < 0 {
			return fmt.Errorf("category %q: %w", t.Category, core.ErrUnknownCategory)
		}
		t.Category = snap.Categories[i].Label
		txs, ok := ledger.Replace(snap.Transactions, t)
		if !ok {
			return fmt.Errorf("transaction %s: %w", t.ID, ErrNotFound)
		}
		snap.Transactions = txs
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// DeleteTransaction removes a transaction. Deleting a posted recurring
// occurrence re-posts it on the next synchronization while the rule exists.
func (s *BookService) DeleteTransaction(ctx context.Context, id string) error {
	_, _, err := s.update(ctx, "delete_transaction", func(snap *core.Snapshot) error {
		txs, ok := ledger.Remove(snap.Transactions, id)
		if !ok {
			return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
		}
		snap.Transactions = txs
		return nil
	})
	return err
}

// SetBudget creates or replaces the budget of category.
func (s *BookService) SetBudget(ctx context.Context, category string, limit core.Money) (core.Budget, error) {
	b := core.Budget{Category: strings.TrimSpace(category), Limit: limit}
	if err := b.Validate(); err != nil {
		return core.Budget{}, fmt.Errorf("set budget: %w", err)
	}
	_, _, err := s.update(ctx, "set_budget", func(snap *core.Snapshot) error {
		i := snap.FindCategory(b.Category)
		if i < 0 {
			return fmt.Errorf("category %q: %w", b.Category, core.ErrUnknownCategory)
		}
		b.Category = snap.Categories[i].Label
		for j := range snap.Budgets {
			if strings.EqualFold(snap.Budgets[j].Category, b.Category) {
				snap.Budgets[j] = b
				return nil
			}
		}
		snap.Budgets = append(snap.Budgets, b)
		return nil
	})
	if err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

// AddCategory appends a category. Labels are unique ignoring case.
func (s *BookService) AddCategory(ctx context.Context, label, color string) (core.Category, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return core.Category{}, fmt.Errorf("add category: %w", core.ErrEmptyCategory)
	}
	c := core.Category{Label: label, Color: color}
	_, _, err := s.update(ctx, "add_category", func(snap *core.Snapshot) error {
		if snap.FindCategory(label) >= 0 {
			return fmt.Errorf("category %q: %w", label, core.ErrDuplicateCategory)
		}
		if c.Color == "" {
			c.Color = categoryColors[len(snap.Categories)%len(categoryColors)]
		}
		snap.Categories = append(snap.Categories, c)
		return nil
	})
	if err != nil {
		return core.Category{}, err
	}
	return c, nil
}

// RenameCategory relabels a category together with its transactions, rules
// and budget. Reserved categories cannot be renamed.
func (s *BookService) RenameCategory(ctx context.Context, oldLabel, newLabel string) error {
	newLabel = strings.TrimSpace(newLabel)
	if newLabel == "" {
		return fmt.Errorf("rename category: %w", core.ErrEmptyCategory)
	}
	_, _, err := s.update(ctx, "rename_category", func(snap *core.Snapshot) error {
		i := snap.FindCategory(oldLabel)
		if i < 0 {
			return fmt.Errorf("category %q: %w", oldLabel, ErrNotFound)
		}
		from := snap.Categories[i].Label
		if isReserved(from) {
			return fmt.Errorf("category %q: %w", from, core.ErrReservedCategory)
		}
		if j := snap.FindCategory(newLabel); j >= 0 && j != i {
			return fmt.Errorf("category %q: %w", newLabel, core.ErrDuplicateCategory)
		}
		snap.Categories[i].Label = newLabel
		relabel(snap, from, newLabel)
		return nil
	})
	return err
}

// DeleteCategory removes a category and moves its transactions and rules to
// Other. Its budget is dropped.
func (s *BookService) DeleteCategory(ctx context.Context, label string) error {
	_, _, err := s.update(ctx, "delete_category", func(snap *core.Snapshot) error {
		i := snap.FindCategory(label)
		if i < 0 {
			return fmt.Errorf("category %q: %w", label, ErrNotFound)
		}
		from := snap.Categories[i].Label
		if isReserved(from) {
			return fmt.Errorf("category %q: %w", from, core.ErrReservedCategory)
		}
		snap.Categories = append(snap.Categories[:i], snap.Categories[i+1:]...)
		budgets := snap.Budgets[:0]
		for _, b := range snap.Budgets {
			if b.Category != from {
				budgets = append(budgets, b)
			}
		}
		snap.Budgets = budgets
		relabel(snap, from, core.CategoryOther)
		return nil
	})
	return err
}

// ContributeToGoal adds amount to a goal and records it as a Savings expense
// dated today.
func (s *BookService) ContributeToGoal(ctx context.Context, goalID string, amount core.Money) (core.Goal, error) {
	if err := amount.Validate(); err != nil {
		return core.Goal{}, fmt.Errorf("contribute to goal: %w", err)
	}
	var goal core.Goal
	_, _, err := s.update(ctx, "contribute_goal", func(snap *core.Snapshot) error {
		for j := range snap.Goals {
			if snap.Goals[j].ID != goalID {
				continue
			}
			snap.Goals[j].Current = snap.Goals[j].Current.Add(amount)
			goal = snap.Goals[j]
			snap.Transactions = ledger.Insert(snap.Transactions, core.Transaction{
				ID:          "G-" + uuid.NewString(),
				Description: "Contribution to " + goal.Name,
				Date:        s.Today(),
				Amount:      amount.Neg(),
				Status:      core.Completed,
				Category:    core.CategorySavings,
			})
			return nil
		}
		return fmt.Errorf("goal %s: %w", goalID, ErrNotFound)
	})
	if err != nil {
		return core.Goal{}, err
	}
	return goal, nil
}

// ShareText renders a plain-text summary of one transaction.
func (s *BookService) ShareText(ctx context.Context, id string) (string, error) {
	snap, err := s.View(ctx)
	if err != nil {
		return "", err
	}
	for _, t := range snap.Transactions {
		if t.ID == id {
			return fmt.Sprintf("Transaction Details:\n- Description: %s\n- Amount: %s\n- Date: %s\n- Status: %s",
				t.Description, t.Amount.Display(s.opts.Currency), t.Date, t.Status), nil
		}
	}
	return "", fmt.Errorf("transaction %s: %w", id, ErrNotFound)
}

// update runs mutate on the stored snapshot, re-synchronizes the ledger and
// saves. A failing mutate leaves the store untouched.
func (s *BookService) update(ctx context.Context, op string, mutate func(*core.Snapshot) error) (core.Snapshot, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx, s.book)
	if err != nil {
		return core.Snapshot{}, 0, fmt.Errorf("load book %s: %w", s.book, err)
	}
	if err := mutate(&snap); err != nil {
		return core.Snapshot{}, 0, err
	}

	today := s.Today()
	var posted int
	snap.Transactions, posted = ledger.SynchronizeCount(snap.Transactions, snap.Rules, today)

	if err := s.store.Save(ctx, snap); err != nil {
		if s.cache != nil {
			s.cache.Delete(string(s.book))
		}
		return core.Snapshot{}, 0, fmt.Errorf("save book %s: %w", s.book, err)
	}
	s.remember(snap)

	slog.InfoContext(ctx, "Book updated",
		log.FieldComponent, log.ComponentServices,
		log.FieldBook, s.book,
		log.FieldOperation, op,
		log.FieldPosted, posted,
		"transactions", len(snap.Transactions))

	if posted > 0 {
		s.publish(ctx, snap, posted, today)
	}
	return snap, posted, nil
}

func (s *BookService) publish(ctx context.Context, snap core.Snapshot, posted int, today core.Date) {
	if s.pub == nil {
		return
	}
	msg := amqp.NewLedgerSyncMessage(string(s.book), posted, core.Sum(snap.Transactions).Cents, today.String())
	if err := s.pub.PublishLedgerSync(ctx, msg); err != nil {
		// The ledger is saved; the event is best effort.
		slog.ErrorContext(ctx, "Failed to publish ledger sync message",
			log.FieldComponent, log.ComponentServices,
			log.FieldBook, s.book, log.FieldPosted, posted, log.FieldError, err)
	}
}

func relabel(snap *core.Snapshot, from, to string) {
	snap.Transactions = ledger.Relabel(snap.Transactions, from, to)
	for j := range snap.Rules {
		if snap.Rules[j].Category == from {
			snap.Rules[j].Category = to
		}
	}
	for j := range snap.Budgets {
		if snap.Budgets[j].Category == from {
			snap.Budgets[j].Category = to
		}
	}
}

func isReserved(label string) bool {
	return strings.EqualFold(label, core.CategoryIncome) || strings.EqualFold(label, core.CategoryOther)
}
