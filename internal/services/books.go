package services

import (
	"context"
	"fmt"
	"log/slog"

	"finboard/internal/core"
)

// Books holds one BookService per book.
type Books map[core.Book]*BookService

func NewBooks(store Store, pub Publisher, opts Options) Books {
	return Books{
		core.Personal: NewBookService(core.Personal, store, pub, opts),
		core.Business: NewBookService(core.Business, store, pub, opts),
	}
}

// Get resolves a book name such as "personal".
func (b Books) Get(name string) (*BookService, error) {
	book, err := core.ParseBook(name)
	if err != nil {
		return nil, err
	}
	svc, ok := b[book]
	if !ok {
		return nil, fmt.Errorf("book %s: %w", book, ErrNotFound)
	}
	return svc, nil
}

// SyncAll synchronizes every book and returns the posted count per book.
// It keeps going after a failing book and returns the first error.
func (b Books) SyncAll(ctx context.Context) (map[core.Book]int, error) {
	posted := make(map[core.Book]int, len(b))
	var firstErr error
	for _, book := range []core.Book{core.Personal, core.Business} {
		svc, ok := b[book]
		if !ok {
			continue
		}
		n, err := svc.Sync(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Book sync failed", "book", book, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		posted[book] = n
	}
	return posted, firstErr
}

// Bootstrap saves every seed snapshot whose book is not stored yet.
func Bootstrap(ctx context.Context, store Store, seeds []core.Snapshot) error {
	for _, snap := range seeds {
		ok, err := store.HasBook(ctx, snap.Book)
		if err != nil {
			return fmt.Errorf("check book %s: %w", snap.Book, err)
		}
		if ok {
			continue
		}
		if err := store.Save(ctx, snap); err != nil {
			return fmt.Errorf("seed book %s: %w", snap.Book, err)
		}
		slog.InfoContext(ctx, "Seeded book",
			"book", snap.Book,
			"transactions", len(snap.Transactions),
			"rules", len(snap.Rules))
	}
	return nil
}
