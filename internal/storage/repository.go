// Package storage implements the ledger ports on an embedded SQLite
// database. The schema is managed by golang-migrate from the embedded
// migrations directory.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"tally/internal/core"
	"tally/internal/ledger"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ ledger.Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := applyMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, category_id, amount_cents, occurred_at, memo)
		 VALUES (?, ?, ?, ?, ?)`,
		int64(tx.UserID), int64(tx.Category), tx.Amount.Cents, tx.Timestamp.Unix(), tx.Memo)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}
	tx.ID = id

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"user_id", tx.UserID,
		"category_id", tx.Category,
		"amount_cents", tx.Amount.Cents)

	return tx, nil
}

func (s *SQLiteStore) ListTransactions(ctx context.Context, userID core.UserID, from, to time.Time) ([]core.Transaction, error) {
	query := `SELECT id, user_id, category_id, amount_cents, occurred_at, memo
	          FROM transactions WHERE user_id = ?`
	args := []any{int64(userID)}
	if !from.IsZero() {
		query += " AND occurred_at >= ?"
		args = append(args, from.Unix())
	}
	if !to.IsZero() {
		query += " AND occurred_at < ?"
		args = append(args, to.Unix())
	}
	query += " ORDER BY occurred_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx       core.Transaction
			user     int64
			category int64
			occurred int64
		)
		if err := rows.Scan(&tx.ID, &user, &category, &tx.Amount.Cents, &occurred, &tx.Memo); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.UserID = core.UserID(user)
		tx.Category = core.CategoryID(category)
		tx.Timestamp = time.Unix(occurred, 0).UTC()
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return out, nil
}

func (s *SQLiteStore) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, fmt.Errorf("add category: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name) VALUES (?, ?)`,
		int64(c.UserID), c.Name)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	c.ID = core.CategoryID(id)

	return c, nil
}

func (s *SQLiteStore) ListCategories(ctx context.Context, userID core.UserID) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name FROM categories WHERE user_id = ? ORDER BY id`,
		int64(userID))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c    core.Category
			id   int64
			user int64
		)
		if err := rows.Scan(&id, &user, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.ID = core.CategoryID(id)
		c.UserID = core.UserID(user)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return out, nil
}

func (s *SQLiteStore) AddBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, fmt.Errorf("add budget: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category_id, name, limit_cents, period)
		 VALUES (?, ?, ?, ?, ?)`,
		int64(b.UserID), int64(b.Category), b.Name, b.Limit.Cents, string(b.Period))
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget id: %w", err)
	}
	b.ID = id

	return b, nil
}

func (s *SQLiteStore) ListBudgets(ctx context.Context, userID core.UserID) ([]core.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, category_id, name, limit_cents, period
		 FROM budgets WHERE user_id = ? ORDER BY id`,
		int64(userID))
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}

	return out, nil
}

func (s *SQLiteStore) GetBudget(ctx context.Context, userID core.UserID, id int64) (core.Budget, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, category_id, name, limit_cents, period
		 FROM budgets WHERE user_id = ? AND id = ?`,
		int64(userID), id)

	b, err := scanBudget(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("get budget %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func scanBudget(scan func(...any) error) (core.Budget, error) {
	var (
		b        core.Budget
		user     int64
		category int64
		period   string
	)
	if err := scan(&b.ID, &user, &category, &b.Name, &b.Limit.Cents, &period); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Budget{}, err
		}
		return core.Budget{}, fmt.Errorf("scan budget: %w", err)
	}
	b.UserID = core.UserID(user)
	b.Category = core.CategoryID(category)
	b.Period = core.Granularity(period)
	return b, nil
}
