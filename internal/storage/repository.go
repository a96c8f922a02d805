package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"finboard/internal/core"

	_ "modernc.org/sqlite"
)

// ErrBookNotFound is returned by Load when nothing was ever saved for a book.
var ErrBookNotFound = errors.New("book not found")

// SQLiteRepository persists whole book snapshots. Each Save replaces every
// row of the book inside one transaction; position columns keep slice order.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dsn string) (*SQLiteRepository, error) {
	if !isMemoryDSN(dsn) {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if isMemoryDSN(dsn) {
		// Keep one connection so the shared in-memory database outlives
		// the migration connection.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// HasBook reports whether a snapshot was saved for book.
func (r *SQLiteRepository) HasBook(ctx context.Context, book core.Book) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE book = ?`, string(book)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check book %s: %w", book, err)
	}
	return n > 0, nil
}

// Load reads the full snapshot of book.
func (r *SQLiteRepository) Load(ctx context.Context, book core.Book) (core.Snapshot, error) {
	ok, err := r.HasBook(ctx, book)
	if err != nil {
		return core.Snapshot{}, err
	}
	if !ok {
		return core.Snapshot{}, fmt.Errorf("load %s: %w", book, ErrBookNotFound)
	}

	s := core.Snapshot{Book: book}
	if s.Categories, err = r.loadCategories(ctx, book); err != nil {
		return core.Snapshot{}, err
	}
	if s.Transactions, err = r.loadTransactions(ctx, book); err != nil {
		return core.Snapshot{}, err
	}
	if s.Rules, err = r.loadRules(ctx, book); err != nil {
		return core.Snapshot{}, err
	}
	if s.Budgets, err = r.loadBudgets(ctx, book); err != nil {
		return core.Snapshot{}, err
	}
	if s.Bills, err = r.loadBills(ctx, book); err != nil {
		return core.Snapshot{}, err
	}
	if s.Goals, err = r.loadGoals(ctx, book); err != nil {
		return core.Snapshot{}, err
	}
	return s, nil
}

// Save replaces the stored snapshot of s.Book.
func (r *SQLiteRepository) Save(ctx context.Context, s core.Snapshot) error {
	if !s.Book.Valid() {
		return fmt.Errorf("save snapshot: %w", core.ErrInvalidBook)
	}
	book := string(s.Book)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"categories", "transactions", "recurring_rules", "budgets", "bills", "goals"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE book = ?`, book); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO books (book, updated_at) VALUES (?, CURRENT_TIMESTAMP)
		 ON CONFLICT(book) DO UPDATE SET updated_at = CURRENT_TIMESTAMP`, book); err != nil {
		return fmt.Errorf("upsert book: %w", err)
	}

	for i, c := range s.Categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (book, position, label, color) VALUES (?, ?, ?, ?)`,
			book, i, c.Label, c.Color); err != nil {
			return fmt.Errorf("insert category %q: %w", c.Label, err)
		}
	}
	for i, t := range s.Transactions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (book, id, position, description, date, amount_cents, status, category)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			book, t.ID, i, t.Description, t.Date.String(), t.Amount.Cents, string(t.Status), t.Category); err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}
	for i, rule := range s.Rules {
		var end sql.NullString
		if rule.HasEnd() {
			end = sql.NullString{String: rule.EndDate.String(), Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recurring_rules (book, id, position, description, amount_cents, type, category, frequency, start_date, end_date)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			book, rule.ID, i, rule.Description, rule.Amount.Cents, string(rule.Type), rule.Category,
			string(rule.Frequency), rule.StartDate.String(), end); err != nil {
			return fmt.Errorf("insert rule %s: %w", rule.ID, err)
		}
	}
	for i, b := range s.Budgets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO budgets (book, position, category, limit_cents) VALUES (?, ?, ?, ?)`,
			book, i, b.Category, b.Limit.Cents); err != nil {
			return fmt.Errorf("insert budget %q: %w", b.Category, err)
		}
	}
	for i, b := range s.Bills {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO bills (book, id, position, name, due_date, amount_cents) VALUES (?, ?, ?, ?, ?, ?)`,
			book, b.ID, i, b.Name, b.DueDate.String(), b.Amount.Cents); err != nil {
			return fmt.Errorf("insert bill %s: %w", b.ID, err)
		}
	}
	for i, g := range s.Goals {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO goals (book, id, position, name, target_cents, current_cents) VALUES (?, ?, ?, ?, ?, ?)`,
			book, g.ID, i, g.Name, g.Target.Cents, g.Current.Cents); err != nil {
			return fmt.Errorf("insert goal %s: %w", g.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	slog.DebugContext(ctx, "Saved snapshot",
		"book", book,
		"transactions", len(s.Transactions),
		"rules", len(s.Rules))
	return nil
}

func (r *SQLiteRepository) loadCategories(ctx context.Context, book core.Book) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT label, color FROM categories WHERE book = ? ORDER BY position`, string(book))
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.Label, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) loadTransactions(ctx context.Context, book core.Book) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, date, amount_cents, status, category
		 FROM transactions WHERE book = ? ORDER BY position`, string(book))
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t      core.Transaction
			date   string
			status string
		)
		if err := rows.Scan(&t.ID, &t.Description, &date, &t.Amount.Cents, &status, &t.Category); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %s date: %w", t.ID, err)
		}
		t.Status = core.Status(status)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) loadRules(ctx context.Context, book core.Book) ([]core.RecurringRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, amount_cents, type, category, frequency, start_date, end_date
		 FROM recurring_rules WHERE book = ? ORDER BY position`, string(book))
	if err != nil {
		return nil, fmt.Errorf("query recurring rules: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringRule
	for rows.Next() {
		var (
			rule             core.RecurringRule
			typ, freq, start string
			end              sql.NullString
		)
		if err := rows.Scan(&rule.ID, &rule.Description, &rule.Amount.Cents, &typ, &rule.Category, &freq, &start, &end); err != nil {
			return nil, fmt.Errorf("scan recurring rule: %w", err)
		}
		rule.Type = core.TxType(typ)
		rule.Frequency = core.Frequency(freq)
		if rule.StartDate, err = core.ParseDate(start); err != nil {
			return nil, fmt.Errorf("rule %s start date: %w", rule.ID, err)
		}
		if end.Valid && end.String != "" {
			if rule.EndDate, err = core.ParseDate(end.String); err != nil {
				return nil, fmt.Errorf("rule %s end date: %w", rule.ID, err)
			}
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) loadBudgets(ctx context.Context, book core.Book) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, limit_cents FROM budgets WHERE book = ? ORDER BY position`, string(book))
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.Category, &b.Limit.Cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) loadBills(ctx context.Context, book core.Book) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, due_date, amount_cents FROM bills WHERE book = ? ORDER BY position`, string(book))
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}
	defer rows.Close()

	var out []core.Bill
	for rows.Next() {
		var (
			b   core.Bill
			due string
		)
		if err := rows.Scan(&b.ID, &b.Name, &due, &b.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		if b.DueDate, err = core.ParseDate(due); err != nil {
			return nil, fmt.Errorf("bill %s due date: %w", b.ID, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) loadGoals(ctx context.Context, book core.Book) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, target_cents, current_cents FROM goals WHERE book = ? ORDER BY position`, string(book))
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		var g core.Goal
		if err := rows.Scan(&g.ID, &g.Name, &g.Target.Cents, &g.Current.Cents); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}
