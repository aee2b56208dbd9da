// Package memory provides a ledger backend held entirely in process memory.
// It backs tests and the zero-configuration development mode; nothing
// survives a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tally/internal/core"
	"tally/internal/ledger"
)

type Store struct {
	mu           sync.RWMutex
	nextID       int64
	transactions map[core.UserID][]core.Transaction
	categories   map[core.UserID][]core.Category
	budgets      map[core.UserID][]core.Budget
}

var _ ledger.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		transactions: make(map[core.UserID][]core.Transaction),
		categories:   make(map[core.UserID][]core.Category),
		budgets:      make(map[core.UserID][]core.Budget),
	}
}

// allocID must be called with the write lock held.
func (s *Store) allocID() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = s.allocID()
	s.transactions[tx.UserID] = append(s.transactions[tx.UserID], tx)
	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, userID core.UserID, from, to time.Time) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Transaction
	for _, tx := range s.transactions[userID] {
		if !from.IsZero() && tx.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && !tx.Timestamp.Before(to) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, fmt.Errorf("add category: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = core.CategoryID(s.allocID())
	s.categories[c.UserID] = append(s.categories[c.UserID], c)
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context, userID core.UserID) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Category, len(s.categories[userID]))
	copy(out, s.categories[userID])
	return out, nil
}

func (s *Store) AddBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, fmt.Errorf("add budget: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.allocID()
	s.budgets[b.UserID] = append(s.budgets[b.UserID], b)
	return b, nil
}

func (s *Store) ListBudgets(ctx context.Context, userID core.UserID) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Budget, len(s.budgets[userID]))
	copy(out, s.budgets[userID])
	return out, nil
}

func (s *Store) GetBudget(ctx context.Context, userID core.UserID, id int64) (core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.budgets[userID] {
		if b.ID == id {
			return b, nil
		}
	}
	return core.Budget{}, fmt.Errorf("get budget %d: %w", id, core.ErrNotFound)
}

func (s *Store) Close() error {
	return nil
}
