// Package ledger defines the ports every storage backend implements and
// small helpers shared by all of them. Backends live in subpackages; the
// report service and the importers talk to these interfaces only.
package ledger

import (
	"context"
	"time"

	"tally/internal/aggregate"
	"tally/internal/core"
)

// Ports for ledger storage backends.
type (
	TransactionSource interface {
		// ListTransactions returns the user's transactions with timestamps in
		// the half-open range [from, to). Zero bounds leave that side open.
		ListTransactions(ctx context.Context, userID core.UserID, from, to time.Time) ([]core.Transaction, error)
	}

	TransactionWriter interface {
		// AddTransaction persists a transaction and returns it with its
		// assigned id.
		AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	}

	CategorySource interface {
		ListCategories(ctx context.Context, userID core.UserID) ([]core.Category, error)
	}

	CategoryWriter interface {
		AddCategory(ctx context.Context, c core.Category) (core.Category, error)
	}

	BudgetSource interface {
		ListBudgets(ctx context.Context, userID core.UserID) ([]core.Budget, error)
		// GetBudget returns core.ErrNotFound when no budget matches.
		GetBudget(ctx context.Context, userID core.UserID, id int64) (core.Budget, error)
	}

	BudgetWriter interface {
		AddBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	}

	// Store is the full backend surface. Backends selected at startup
	// implement all of it; consumers should still depend on the narrow
	// port they actually use.
	Store interface {
		TransactionSource
		TransactionWriter
		CategorySource
		CategoryWriter
		BudgetSource
		BudgetWriter
		Close() error
	}
)

// CategorySetFor loads the user's taxonomy into the closed set aggregation
// validates against.
func CategorySetFor(ctx context.Context, src CategorySource, userID core.UserID) (aggregate.CategorySet, error) {
	categories, err := src.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	return aggregate.NewCategorySet(categories), nil
}
