package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Daily   Granularity = "day"
	Weekly  Granularity = "week"
	Monthly Granularity = "month"
	Yearly  Granularity = "year"
)

type (
	Granularity string

	UserID int64

	CategoryID int64

	Money struct {
		Cents int64
	}

	// Transaction is an already-validated ledger record. Amounts are signed:
	// positive cents are inflow, negative cents are outflow.
	Transaction struct {
		ID        int64
		UserID    UserID
		Category  CategoryID
		Amount    Money
		Timestamp time.Time
		Memo      string
	}

	Category struct {
		ID     CategoryID
		UserID UserID
		Name   string
	}

	// Budget caps outflow for one category per period bucket.
	Budget struct {
		ID       int64
		UserID   UserID
		Category CategoryID
		Name     string
		Limit    Money
		Period   Granularity
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidCategory  = errors.New("invalid category reference")
	ErrInvalidLimit     = errors.New("invalid budget limit")
	ErrInvalidPeriod    = errors.New("invalid period granularity")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrEmptyName        = errors.New("empty name")
)

func (g Granularity) IsValid() bool {
	switch g {
	case Daily, Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

func (g Granularity) String() string {
	return string(g)
}

// IsOutflow reports whether the transaction spends money.
func (t Transaction) IsOutflow() bool {
	return t.Amount.Cents < 0
}

func (t Transaction) Validate() error {
	if t.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}
	if t.Category <= 0 {
		return ErrInvalidCategory
	}
	if t.Amount.Cents == 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c Category) Validate() error {
	if c.ID <= 0 {
		return ErrInvalidCategory
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("category name too long (max 100 characters)")
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Category <= 0 {
		return ErrInvalidCategory
	}
	if b.Limit.Cents <= 0 {
		return ErrInvalidLimit
	}
	if !b.Period.IsValid() {
		return ErrInvalidPeriod
	}
	if len(b.Name) > 200 {
		return errors.New("budget name too long (max 200 characters)")
	}
	return nil
}
