package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"finboard/internal/aggregate"
	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/ledger"
	"finboard/internal/storage/memory"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.LedgerSyncMessage
	err  error
}

func (p *recordingPublisher) PublishLedgerSync(_ context.Context, msg *amqp.LedgerSyncMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

func testSnapshot() core.Snapshot {
	return core.Snapshot{
		Book: core.Personal,
		Categories: []core.Category{
			{Label: "Housing", Color: "#71E6E9"},
			{Label: "Groceries", Color: "#A1F0F2"},
			{Label: "Savings", Color: "#10b981"},
			{Label: "Other", Color: "#9CA3AF"},
			{Label: "Income", Color: "#22c55e"},
		},
		Transactions: []core.Transaction{
			{ID: "T1", Description: "Groceries - Walmart", Date: core.NewDate(2024, 9, 18), Amount: core.Cents(-18075), Status: core.Completed, Category: "Groceries"},
		},
		Rules: []core.RecurringRule{
			{ID: "R1", Description: "Rent Payment", Amount: core.Cents(220000), Type: core.Expense, Category: "Housing", Frequency: core.Monthly, StartDate: core.NewDate(2024, 1, 1)},
		},
		Goals: []core.Goal{
			{ID: "G1", Name: "Vacation", Target: core.Cents(500000), Current: core.Cents(125000)},
		},
	}
}

func newTestService(t *testing.T) (*BookService, *memory.Store, *recordingPublisher) {
	t.Helper()
	store := memory.New(testSnapshot())
	pub := &recordingPublisher{}
	opts := DefaultOptions()
	opts.Now = func() time.Time { return time.Date(2024, 10, 15, 9, 30, 0, 0, time.UTC) }
	return NewBookService(core.Personal, store, pub, opts), store, pub
}

func TestBookService_Sync(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)

	posted, err := svc.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if posted != 10 {
		t.Fatalf("posted = %d, want 10", posted)
	}
	if pub.count() != 1 || pub.msgs[0].Posted != 10 || pub.msgs[0].Book != "personal" {
		t.Fatalf("published = %+v", pub.msgs)
	}
	if pub.msgs[0].SyncedOn != "2024-10-15" {
		t.Errorf("SyncedOn = %q", pub.msgs[0].SyncedOn)
	}

	posted, err = svc.Sync(ctx)
	if err != nil || posted != 0 {
		t.Fatalf("second Sync = %d, %v; want 0", posted, err)
	}
	if pub.count() != 1 {
		t.Fatalf("idle sync published a message")
	}

	snap, _ := svc.Snapshot(ctx)
	if len(snap.Transactions) != 11 {
		t.Fatalf("ledger size = %d, want 11", len(snap.Transactions))
	}
	if snap.Transactions[0].ID != ledger.TransactionID("R1", core.NewDate(2024, 10, 1)) {
		t.Errorf("newest transaction = %s", snap.Transactions[0].ID)
	}
}

func TestBookService_PublishFailureKeepsLedger(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newTestService(t)
	pub.err = errors.New("broker down")

	if _, err := svc.Sync(ctx); err != nil {
		t.Fatalf("Sync should not fail on publish error: %v", err)
	}
	snap, _ := store.Load(ctx, core.Personal)
	if len(snap.Transactions) != 11 {
		t.Fatalf("ledger size = %d, want 11", len(snap.Transactions))
	}
}

func TestBookService_AddExpense(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	tx, err := svc.AddExpense(ctx, ExpenseInput{
		Description: " Farmers market ",
		Date:        core.NewDate(2024, 10, 12),
		Amount:      core.Cents(1250),
		Category:    "groceries",
	})
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if tx.Amount.Cents != -1250 || tx.Category != "Groceries" || tx.Description != "Farmers market" || tx.Status != core.Completed {
		t.Fatalf("AddExpense() = %+v", tx)
	}
	if !strings.HasPrefix(tx.ID, "T-") {
		t.Errorf("ID = %s", tx.ID)
	}

	tx, err = svc.AddExpense(ctx, ExpenseInput{Description: "Parking", Date: core.NewDate(2024, 10, 2), Amount: core.Cents(500)})
	if err != nil || tx.Category != core.CategoryOther {
		t.Fatalf("AddExpense(no category) = %+v, %v; want category Other", tx, err)
	}

	saves := store.Saves()
	tests := []struct {
		name string
		in   ExpenseInput
		want error
	}{
		{"unknown category", ExpenseInput{Description: "x", Date: core.NewDate(2024, 10, 1), Amount: core.Cents(1), Category: "Travel"}, core.ErrUnknownCategory},
		{"zero amount", ExpenseInput{Description: "x", Date: core.NewDate(2024, 10, 1), Category: "Groceries"}, core.ErrInvalidAmount},
		{"empty description", ExpenseInput{Description: "  ", Date: core.NewDate(2024, 10, 1), Amount: core.Cents(1), Category: "Groceries"}, core.ErrEmptyDescription},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.AddExpense(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if store.Saves() != saves {
		t.Fatalf("rejected input reached the store")
	}
}

func TestBookService_TransactionEdits(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	edited := core.Transaction{ID: "T1", Description: "Groceries - Costco", Date: core.NewDate(2024, 9, 19), Amount: core.Cents(-20000), Status: core.Pending, Category: "groceries"}
	stored, err := svc.UpdateTransaction(ctx, edited)
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if stored.Category != "Groceries" {
		t.Errorf("stored category = %q, want the canonical Groceries", stored.Category)
	}
	snap, _ := svc.Snapshot(ctx)
	for _, tx := range snap.Transactions {
		if tx.ID == "T1" && tx.Category != "Groceries" {
			t.Errorf("ledger category = %q, want Groceries", tx.Category)
		}
	}

	unknown := edited
	unknown.Category = "Pets"
	if _, err := svc.UpdateTransaction(ctx, unknown); !errors.Is(err, core.ErrUnknownCategory) {
		t.Errorf("unknown category err = %v", err)
	}

	text, err := svc.ShareText(ctx, "T1")
	if err != nil {
		t.Fatalf("ShareText: %v", err)
	}
	want := "Transaction Details:\n- Description: Groceries - Costco\n- Amount: -$200.00\n- Date: 2024-09-19\n- Status: Pending"
	if text != want {
		t.Errorf("ShareText() = %q, want %q", text, want)
	}

	edited.ID = "missing"
	if _, err := svc.UpdateTransaction(ctx, edited); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing err = %v", err)
	}
	if err := svc.DeleteTransaction(ctx, "T1"); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := svc.DeleteTransaction(ctx, "T1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	if _, err := svc.ShareText(ctx, "T1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ShareText after delete err = %v", err)
	}
}

func TestBookService_DeletedOccurrenceIsReposted(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	if _, err := svc.Sync(ctx); err != nil {
		t.Fatal(err)
	}

	id := ledger.TransactionID("R1", core.NewDate(2024, 5, 1))
	if err := svc.DeleteTransaction(ctx, id); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	snap, _ := svc.Snapshot(ctx)
	found := false
	for _, tx := range snap.Transactions {
		found = found || tx.ID == id
	}
	if !found {
		t.Fatalf("occurrence %s not re-posted while rule exists", id)
	}
}

func TestBookService_RuleLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	rule, err := svc.AddRule(ctx, core.RecurringRule{
		Description: "Side gig",
		Amount:      core.Cents(10000),
		Type:        core.Income,
		Category:    "income",
		Frequency:   core.Weekly,
		StartDate:   core.NewDate(2024, 10, 1),
	})
	if err != nil {
		t.Fatalf("AddRule: %v", err)
	}
	if rule.Category != "Income" || !strings.HasPrefix(rule.ID, "R-") {
		t.Fatalf("AddRule() = %+v", rule)
	}

	snap, _ := svc.Snapshot(ctx)
	var gig int
	for _, tx := range snap.Transactions {
		if strings.Contains(tx.ID, rule.ID) {
			gig++
			if tx.Amount.Cents != 10000 || tx.Description != "Side gig (Recurring)" {
				t.Errorf("posted = %+v", tx)
			}
		}
	}
	if gig != 3 {
		t.Fatalf("posted %d side gig occurrences, want 3 (Oct 1, 8, 15)", gig)
	}

	rule.Amount = core.Cents(12000)
	if err := svc.UpdateRule(ctx, rule); err != nil {
		t.Fatalf("UpdateRule: %v", err)
	}
	rule.ID = "nope"
	if err := svc.UpdateRule(ctx, rule); !errors.Is(err, ErrNotFound) {
		t.Errorf("update unknown rule err = %v", err)
	}

	if _, err := svc.AddRule(ctx, core.RecurringRule{Description: "Bad", Amount: core.Cents(1), Type: core.Expense, Category: "Housing", Frequency: "hourly", StartDate: core.NewDate(2024, 1, 1)}); !errors.Is(err, core.ErrInvalidFrequency) {
		t.Errorf("invalid frequency err = %v", err)
	}

	if err := svc.DeleteRule(ctx, "R1"); err != nil {
		t.Fatalf("DeleteRule: %v", err)
	}
	if err := svc.DeleteRule(ctx, "R1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestBookService_Recurring(t *testing.T) {
	ctx := context.Background()
	store := memory.New(core.Snapshot{
		Book:       core.Personal,
		Categories: []core.Category{{Label: "Other"}, {Label: "Income"}},
		Rules: []core.RecurringRule{
			{ID: "open", Description: "Rent", Amount: core.Cents(1), Type: core.Expense, Category: "Other", Frequency: core.Monthly, StartDate: core.NewDate(2024, 1, 31)},
			{ID: "ended", Description: "Gym", Amount: core.Cents(1), Type: core.Expense, Category: "Other", Frequency: core.Monthly, StartDate: core.NewDate(2024, 3, 10), EndDate: core.NewDate(2024, 9, 9)},
		},
	})
	opts := DefaultOptions()
	opts.Now = func() time.Time { return time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC) }
	svc := NewBookService(core.Personal, store, nil, opts)

	got, err := svc.Recurring(ctx)
	if err != nil {
		t.Fatalf("Recurring: %v", err)
	}
	if got[0].Expired || got[0].DueToday || got[0].Next != core.NewDate(2024, 11, 30) {
		t.Errorf("open rule = %+v", got[0])
	}
	if !got[1].Expired || got[1].DueToday || !got[1].Next.IsZero() {
		t.Errorf("ended rule = %+v", got[1])
	}
}

func TestBookService_Categories(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	c, err := svc.AddCategory(ctx, " Travel ", "")
	if err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	if c.Label != "Travel" || c.Color != categoryColors[0] {
		t.Errorf("AddCategory() = %+v", c)
	}

	errTests := []struct {
		name string
		fn   func() error
		want error
	}{
		{"duplicate ignoring case", func() error { _, err := svc.AddCategory(ctx, "travel", ""); return err }, core.ErrDuplicateCategory},
		{"empty label", func() error { _, err := svc.AddCategory(ctx, "  ", ""); return err }, core.ErrEmptyCategory},
		{"rename reserved", func() error { return svc.RenameCategory(ctx, "Income", "Salary") }, core.ErrReservedCategory},
		{"rename onto existing", func() error { return svc.RenameCategory(ctx, "Travel", "HOUSING") }, core.ErrDuplicateCategory},
		{"rename missing", func() error { return svc.RenameCategory(ctx, "Pets", "Animals") }, ErrNotFound},
		{"delete reserved", func() error { return svc.DeleteCategory(ctx, "other") }, core.ErrReservedCategory},
		{"delete missing", func() error { return svc.DeleteCategory(ctx, "Pets") }, ErrNotFound},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := svc.SetBudget(ctx, "groceries", core.Cents(60000)); err != nil {
		t.Fatalf("SetBudget: %v", err)
	}
	if err := svc.RenameCategory(ctx, "Groceries", "Food"); err != nil {
		t.Fatalf("RenameCategory: %v", err)
	}
	snap, _ := svc.Snapshot(ctx)
	for _, tx := range snap.Transactions {
		if tx.ID == "T1" && tx.Category != "Food" {
			t.Errorf("transaction not relabeled: %+v", tx)
		}
	}
	if snap.Budgets[0].Category != "Food" {
		t.Errorf("budget not relabeled: %+v", snap.Budgets)
	}

	if err := svc.DeleteCategory(ctx, "Housing"); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	snap, _ = svc.Snapshot(ctx)
	if snap.FindCategory("Housing") >= 0 {
		t.Error("Housing still listed")
	}
	if snap.Rules[0].Category != core.CategoryOther {
		t.Errorf("rule category = %s, want Other", snap.Rules[0].Category)
	}
	for _, tx := range snap.Transactions {
		if tx.Category == "Housing" {
			t.Fatalf("transaction %s still in Housing", tx.ID)
		}
	}

	aggs, err := svc.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if aggregate.Spent(aggs, "Other").Cents != 10*220000 {
		t.Errorf("Other = %d, want rent moved there", aggregate.Spent(aggs, "Other").Cents)
	}
}

func TestBookService_SetBudget(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	if _, err := svc.SetBudget(ctx, "Groceries", core.Cents(100)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SetBudget(ctx, "GROCERIES", core.Cents(200)); err != nil {
		t.Fatal(err)
	}
	snap, _ := svc.Snapshot(ctx)
	if len(snap.Budgets) != 1 || snap.Budgets[0].Limit.Cents != 200 {
		t.Fatalf("budgets = %+v", snap.Budgets)
	}

	insights, err := svc.Insights(ctx)
	if err != nil {
		t.Fatalf("Insights: %v", err)
	}
	if insights[0].ID != "budget-exceeded-groceries" {
		t.Errorf("first insight = %+v", insights[0])
	}

	if _, err := svc.SetBudget(ctx, "Travel", core.Cents(1)); !errors.Is(err, core.ErrUnknownCategory) {
		t.Errorf("unknown category err = %v", err)
	}
	if _, err := svc.SetBudget(ctx, "Groceries", core.Cents(0)); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("zero limit err = %v", err)
	}
}

func TestBookService_ContributeToGoal(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	g, err := svc.ContributeToGoal(ctx, "G1", core.Cents(25000))
	if err != nil {
		t.Fatalf("ContributeToGoal: %v", err)
	}
	if g.Current.Cents != 150000 {
		t.Errorf("current = %d, want 150000", g.Current.Cents)
	}

	snap, _ := svc.Snapshot(ctx)
	var contribution *core.Transaction
	for i, tx := range snap.Transactions {
		if tx.Description == "Contribution to Vacation" {
			contribution = &snap.Transactions[i]
		}
	}
	if contribution == nil {
		t.Fatal("contribution transaction missing")
	}
	if contribution.Amount.Cents != -25000 || contribution.Category != core.CategorySavings || contribution.Date != core.NewDate(2024, 10, 15) {
		t.Errorf("contribution = %+v", contribution)
	}

	if _, err := svc.ContributeToGoal(ctx, "G9", core.Cents(1)); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown goal err = %v", err)
	}
	if _, err := svc.ContributeToGoal(ctx, "G1", core.Cents(-5)); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("negative amount err = %v", err)
	}
}

func TestBookService_Views(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	if _, err := svc.Sync(ctx); err != nil {
		t.Fatal(err)
	}

	points, err := svc.Forecast(ctx)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(points) != 30 || points[0].Date != core.NewDate(2024, 10, 15) {
		t.Fatalf("forecast = %d points starting %v", len(points), points[0].Date)
	}
	// Rent on Nov 1 is the only occurrence inside the horizon.
	start := int64(-18075 - 10*220000)
	if points[0].Balance.Cents != start || points[29].Balance.Cents != start-220000 {
		t.Errorf("balances = %d .. %d", points[0].Balance.Cents, points[29].Balance.Cents)
	}

	series, err := svc.Series(ctx)
	if err != nil || len(series) != 6 || series[5].Label != "Oct 2024" {
		t.Fatalf("series = %+v, %v", series, err)
	}

	page, err := svc.Transactions(ctx, aggregate.Filter{Category: "Housing"}, 1, 4)
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if page.Total != 10 || page.Pages != 3 || len(page.Items) != 4 || page.Index != 1 {
		t.Errorf("page = index %d, %d items, total %d, pages %d", page.Index, len(page.Items), page.Total, page.Pages)
	}

	all, err := svc.Filtered(ctx, aggregate.Filter{Type: aggregate.ExpensesOnly})
	if err != nil || len(all) != 11 {
		t.Errorf("Filtered = %d, %v", len(all), err)
	}
}

func TestBooks(t *testing.T) {
	ctx := context.Background()
	personal := testSnapshot()
	business := testSnapshot()
	business.Book = core.Business
	business.Rules = nil
	store := memory.New(personal)

	if err := Bootstrap(ctx, store, []core.Snapshot{{Book: core.Personal}, business}); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	snap, _ := store.Load(ctx, core.Personal)
	if len(snap.Rules) != 1 {
		t.Fatalf("Bootstrap overwrote an existing book")
	}
	if ok, _ := store.HasBook(ctx, core.Business); !ok {
		t.Fatalf("Bootstrap did not seed business")
	}

	opts := DefaultOptions()
	opts.Now = func() time.Time { return time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC) }
	books := NewBooks(store, nil, opts)

	if svc, err := books.Get(" Personal "); err != nil || svc.Book() != core.Personal {
		t.Fatalf("Get(Personal) = %v, %v", svc, err)
	}
	if _, err := books.Get("team"); !errors.Is(err, core.ErrInvalidBook) {
		t.Fatalf("Get(team) err = %v", err)
	}

	posted, err := books.SyncAll(ctx)
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if posted[core.Personal] != 10 || posted[core.Business] != 0 {
		t.Fatalf("posted = %v", posted)
	}
}

func TestResyncProcessor(t *testing.T) {
	store := memory.New(testSnapshot())
	opts := DefaultOptions()
	opts.Now = func() time.Time { return time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC) }
	books := Books{core.Personal: NewBookService(core.Personal, store, nil, opts)}

	p := NewResyncProcessor(books, ResyncProcessorConfig{})
	if p.config.Interval != time.Hour {
		t.Errorf("default interval = %v", p.config.Interval)
	}
	if p.IsRunning() {
		t.Fatal("processor should not be running initially")
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("Stop when not running: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Error("expected error when starting already running processor")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if p.IsRunning() {
		t.Error("processor still running after Stop")
	}

	// The startup pass runs before the loop waits on the ticker.
	snap, _ := store.Load(context.Background(), core.Personal)
	if len(snap.Transactions) != 11 {
		t.Errorf("ledger size after startup pass = %d, want 11", len(snap.Transactions))
	}
}

type countingStore struct {
	*memory.Store
	loads int
}

func (s *countingStore) Load(ctx context.Context, book core.Book) (core.Snapshot, error) {
	s.loads++
	return s.Store.Load(ctx, book)
}

func TestBookService_SnapshotCache(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Store: memory.New(testSnapshot())}
	opts := DefaultOptions()
	opts.CacheTTL = time.Minute
	opts.Now = func() time.Time { return time.Date(2024, 10, 15, 9, 30, 0, 0, time.UTC) }
	svc := NewBookService(core.Personal, store, nil, opts)

	if _, err := svc.Categories(ctx); err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if _, err := svc.Insights(ctx); err != nil {
		t.Fatalf("Insights: %v", err)
	}
	if store.loads != 1 {
		t.Fatalf("store loads = %d, want 1 for two cached reads", store.loads)
	}

	snap, _ := svc.Snapshot(ctx)
	snap.Transactions[0].Description = "mutated"
	again, _ := svc.Snapshot(ctx)
	if again.Transactions[0].Description == "mutated" {
		t.Fatal("cached snapshot shares memory with a returned copy")
	}

	// A mutation reads the store and refreshes the cache with the saved state.
	if _, err := svc.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	loads := store.loads
	snap, _ = svc.Snapshot(ctx)
	if store.loads != loads {
		t.Errorf("read after save hit the store")
	}
	if len(snap.Transactions) != 11 {
		t.Errorf("cached ledger size = %d, want 11 after sync", len(snap.Transactions))
	}
}

func TestBookService_ViewsFollowTheClock(t *testing.T) {
	ctx := context.Background()
	store := memory.New(core.Snapshot{
		Book:       core.Personal,
		Categories: []core.Category{{Label: "Food"}, {Label: "Other"}, {Label: "Income"}},
		Rules: []core.RecurringRule{
			{ID: "R1", Description: "Lunch", Amount: core.Cents(1000), Type: core.Expense, Category: "Food", Frequency: core.Daily, StartDate: core.NewDate(2024, 9, 1)},
		},
	})
	now := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	opts := DefaultOptions()
	opts.Now = func() time.Time { return now }
	svc := NewBookService(core.Personal, store, nil, opts)

	if _, err := svc.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	now = now.AddDate(0, 0, 1)

	aggs, err := svc.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if got := aggregate.Spent(aggs, "Food"); got != core.Cents(2000) {
		t.Errorf("Food = %v, want 20.00 including today's occurrence", got)
	}

	points, err := svc.Forecast(ctx)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	// The first point starts from the synchronized balance and then applies
	// the occurrences falling on the start date.
	if points[0].Date != core.NewDate(2024, 9, 2) || points[0].Balance != core.Cents(-3000) {
		t.Errorf("first forecast point = %+v", points[0])
	}

	page, err := svc.Transactions(ctx, aggregate.Filter{}, 1, 10)
	if err != nil || page.Total != 2 {
		t.Errorf("Transactions total = %d, %v; want 2", page.Total, err)
	}

	// Reads never save.
	snap, _ := svc.Snapshot(ctx)
	if len(snap.Transactions) != 1 {
		t.Errorf("stored ledger = %d transactions, want 1 until the next sync", len(snap.Transactions))
	}
}
