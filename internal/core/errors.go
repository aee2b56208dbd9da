package core

import (
	"errors"
	"fmt"
	"time"
)

// Error taxonomy shared across components. Callers branch with errors.Is on
// the sentinels; the typed errors below carry the details.
var (
	ErrUnknownCategory      = errors.New("unknown category")
	ErrRateLimited          = errors.New("rate limit exceeded")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrNotFound             = errors.New("not found")
)

// UnknownCategoryError reports a transaction referencing a category absent
// from the caller's taxonomy. It is fatal to that transaction's summary and
// non-fatal to the batch: aggregation keeps going and joins these per item.
type UnknownCategoryError struct {
	Category      CategoryID
	TransactionID int64
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %d referenced by transaction %d", e.Category, e.TransactionID)
}

func (e *UnknownCategoryError) Unwrap() error {
	return ErrUnknownCategory
}

// RateLimitError is the expected rejection outcome of admission control,
// not a fault. RetryAfter tells the caller when the current window ends.
type RateLimitError struct {
	Key        string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for key %q, retry after %s", e.Key, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}
