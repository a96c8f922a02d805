// Package memory is a process-local snapshot store used by tests and by the
// CLI when no database is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"finboard/internal/core"
	"finboard/internal/storage"
)

type Store struct {
	mu    sync.Mutex
	books map[core.Book]core.Snapshot
	saves int
}

func New(snapshots ...core.Snapshot) *Store {
	s := &Store{books: make(map[core.Book]core.Snapshot)}
	for _, snap := range snapshots {
		s.books[snap.Book] = snap.Clone()
	}
	return s
}

func (s *Store) HasBook(_ context.Context, book core.Book) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.books[book]
	return ok, nil
}

// Load returns a copy of the stored snapshot.
func (s *Store) Load(_ context.Context, book core.Book) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.books[book]
	if !ok {
		return core.Snapshot{}, fmt.Errorf("load %s: %w", book, storage.ErrBookNotFound)
	}
	return snap.Clone(), nil
}

func (s *Store) Save(_ context.Context, snap core.Snapshot) error {
	if !snap.Book.Valid() {
		return fmt.Errorf("save snapshot: %w", core.ErrInvalidBook)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[snap.Book] = snap.Clone()
	s.saves++
	return nil
}

// Saves counts successful Save calls.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *Store) Close() error { return nil }
