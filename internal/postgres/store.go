// Package postgres implements the ledger ports on PostgreSQL through a
// pgx connection pool. The schema is bootstrapped with idempotent DDL so
// the store works against a fresh database without a migration step.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tally/internal/core"
	"tally/internal/ledger"
)

type Store struct {
	pool *pgxpool.Pool
}

var _ ledger.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS categories (
    id      BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    name    TEXT   NOT NULL,
    UNIQUE (user_id, name)
);

CREATE TABLE IF NOT EXISTS transactions (
    id           BIGSERIAL PRIMARY KEY,
    user_id      BIGINT NOT NULL,
    category_id  BIGINT NOT NULL REFERENCES categories (id),
    amount_cents BIGINT NOT NULL,
    occurred_at  TIMESTAMPTZ NOT NULL,
    memo         TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_transactions_user_time
    ON transactions (user_id, occurred_at);

CREATE TABLE IF NOT EXISTS budgets (
    id          BIGSERIAL PRIMARY KEY,
    user_id     BIGINT NOT NULL,
    category_id BIGINT NOT NULL REFERENCES categories (id),
    name        TEXT   NOT NULL,
    limit_cents BIGINT NOT NULL,
    period      TEXT   NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_budgets_user ON budgets (user_id);
`

func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}

	query := `
		INSERT INTO transactions (user_id, category_id, amount_cents, occurred_at, memo)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := s.pool.QueryRow(ctx, query,
		int64(tx.UserID),
		int64(tx.Category),
		tx.Amount.Cents,
		tx.Timestamp,
		tx.Memo).Scan(&tx.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, userID core.UserID, from, to time.Time) ([]core.Transaction, error) {
	query := `
		SELECT id, user_id, category_id, amount_cents, occurred_at, memo
		FROM transactions
		WHERE user_id = $1`
	args := []any{int64(userID)}
	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(" AND occurred_at >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(" AND occurred_at < $%d", len(args))
	}
	query += " ORDER BY occurred_at, id"

	rows, err := s.pool.Query(ctx, query, args...)
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
			occurred time.Time
		)
		if err := rows.Scan(&tx.ID, &user, &category, &tx.Amount.Cents, &occurred, &tx.Memo); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.UserID = core.UserID(user)
		tx.Category = core.CategoryID(category)
		tx.Timestamp = occurred.UTC()
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return out, nil
}

func (s *Store) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, fmt.Errorf("add category: %w", err)
	}

	query := `
		INSERT INTO categories (user_id, name)
		VALUES ($1, $2)
		RETURNING id`

	var id int64
	if err := s.pool.QueryRow(ctx, query, int64(c.UserID), c.Name).Scan(&id); err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	c.ID = core.CategoryID(id)

	return c, nil
}

func (s *Store) ListCategories(ctx context.Context, userID core.UserID) ([]core.Category, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name FROM categories WHERE user_id = $1 ORDER BY id`,
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

func (s *Store) AddBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, fmt.Errorf("add budget: %w", err)
	}

	query := `
		INSERT INTO budgets (user_id, category_id, name, limit_cents, period)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := s.pool.QueryRow(ctx, query,
		int64(b.UserID),
		int64(b.Category),
		b.Name,
		b.Limit.Cents,
		string(b.Period)).Scan(&b.ID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}

	return b, nil
}

func (s *Store) ListBudgets(ctx context.Context, userID core.UserID) ([]core.Budget, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, category_id, name, limit_cents, period
		 FROM budgets WHERE user_id = $1 ORDER BY id`,
		int64(userID))
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var (
			b        core.Budget
			user     int64
			category int64
			period   string
		)
		if err := rows.Scan(&b.ID, &user, &category, &b.Name, &b.Limit.Cents, &period); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.UserID = core.UserID(user)
		b.Category = core.CategoryID(category)
		b.Period = core.Granularity(period)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}

	return out, nil
}

func (s *Store) GetBudget(ctx context.Context, userID core.UserID, id int64) (core.Budget, error) {
	query := `
		SELECT id, user_id, category_id, name, limit_cents, period
		FROM budgets
		WHERE user_id = $1 AND id = $2`

	var (
		b        core.Budget
		user     int64
		category int64
		period   string
	)
	err := s.pool.QueryRow(ctx, query, int64(userID), id).Scan(
		&b.ID, &user, &category, &b.Name, &b.Limit.Cents, &period)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Budget{}, fmt.Errorf("get budget %d: %w", id, core.ErrNotFound)
		}
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	b.UserID = core.UserID(user)
	b.Category = core.CategoryID(category)
	b.Period = core.Granularity(period)

	return b, nil
}
