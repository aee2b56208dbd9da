package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tally/internal/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tally.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTransactionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	cat, err := s.AddCategory(ctx, core.Category{UserID: 1, Name: "groceries"})
	if err != nil {
		t.Fatalf("AddCategory() error = %v", err)
	}

	when := time.Date(2025, time.April, 2, 9, 30, 0, 0, time.UTC)
	saved, err := s.AddTransaction(ctx, core.Transaction{
		UserID:    1,
		Category:  cat.ID,
		Amount:    core.Money{Cents: -1250},
		Timestamp: when,
		Memo:      "market",
	})
	if err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	if saved.ID == 0 {
		t.Fatal("AddTransaction() did not assign an id")
	}

	got, err := s.ListTransactions(ctx, 1, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListTransactions() returned %d rows, want 1", len(got))
	}
	tx := got[0]
	if tx.Amount.Cents != -1250 || tx.Memo != "market" || !tx.Timestamp.Equal(when) {
		t.Errorf("round trip = %+v, want amount -1250, memo market, timestamp %v", tx, when)
	}
}

func TestListTransactionsHalfOpenRange(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	cat, _ := s.AddCategory(ctx, core.Category{UserID: 1, Name: "misc"})
	for _, d := range []int{5, 12, 20} {
		_, err := s.AddTransaction(ctx, core.Transaction{
			UserID:    1,
			Category:  cat.ID,
			Amount:    core.Money{Cents: -100},
			Timestamp: time.Date(2025, time.April, d, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("AddTransaction() error = %v", err)
		}
	}

	from := time.Date(2025, time.April, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.April, 20, 0, 0, 0, 0, time.UTC)
	got, err := s.ListTransactions(ctx, 1, from, to)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListTransactions() in [5th, 20th) returned %d rows, want 2", len(got))
	}
	if got[0].Timestamp.Day() != 5 || got[1].Timestamp.Day() != 12 {
		t.Errorf("range returned days %d and %d, want 5 and 12", got[0].Timestamp.Day(), got[1].Timestamp.Day())
	}
}

func TestBudgetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	cat, _ := s.AddCategory(ctx, core.Category{UserID: 1, Name: "dining"})
	b, err := s.AddBudget(ctx, core.Budget{
		UserID:   1,
		Category: cat.ID,
		Name:     "dining out",
		Limit:    core.Money{Cents: 30000},
		Period:   core.Monthly,
	})
	if err != nil {
		t.Fatalf("AddBudget() error = %v", err)
	}

	got, err := s.GetBudget(ctx, 1, b.ID)
	if err != nil {
		t.Fatalf("GetBudget() error = %v", err)
	}
	if got.Period != core.Monthly || got.Limit.Cents != 30000 {
		t.Errorf("GetBudget() = %+v, want monthly with 30000 cents", got)
	}

	if _, err := s.GetBudget(ctx, 1, 404); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetBudget(missing) error = %v, want ErrNotFound", err)
	}
}

func TestAddTransactionRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.AddTransaction(ctx, core.Transaction{UserID: 1, Category: 1, Amount: core.Money{Cents: -100}})
	if !errors.Is(err, core.ErrInvalidTimestamp) {
		t.Errorf("AddTransaction() error = %v, want ErrInvalidTimestamp", err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tally.db")

	first, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("first open error = %v", err)
	}
	first.Close()

	second, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	second.Close()
}
