// Package aggregate turns raw transactions into per-category, per-bucket
// summaries in a single pass. All sums are integer cents; the package never
// converts through floating point, so totals are exact for any input order.
package aggregate

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"tally/internal/core"
	"tally/internal/period"
)

// Summary aggregates one (category, bucket) pair. OutflowCents is a
// positive magnitude; NetCents = InflowCents - OutflowCents always holds.
// Buckets with no transactions are never emitted.
type Summary struct {
	Category     core.CategoryID
	Bucket       period.Bucket
	InflowCents  int64
	OutflowCents int64
	NetCents     int64
	Count        int
}

// CategorySet is the closed taxonomy summaries are validated against.
// A transaction referencing a category outside the set is a referential
// integrity violation, reported per item.
type CategorySet map[core.CategoryID]core.Category

func NewCategorySet(categories []core.Category) CategorySet {
	set := make(CategorySet, len(categories))
	for _, c := range categories {
		set[c.ID] = c
	}
	return set
}

func (s CategorySet) Has(id core.CategoryID) bool {
	_, ok := s[id]
	return ok
}

// Name returns the category name, or "" when the id is unknown.
func (s CategorySet) Name(id core.CategoryID) string {
	return s[id].Name
}

// Options narrow a Summarize pass. Zero time bounds leave that side open;
// an empty Categories slice keeps every category.
type Options struct {
	Categories []core.CategoryID
	From, To   time.Time // half-open [From, To)
}

// Key identifies a summary for map lookups. Bucket identity uses the start
// instant, never time.Time equality, which is unreliable across locations.
type Key struct {
	StartUnix int64
	Category  core.CategoryID
}

func KeyOf(b period.Bucket, c core.CategoryID) Key {
	return Key{StartUnix: b.Start.Unix(), Category: c}
}

// Index maps summaries by (bucket start, category) for baseline and budget
// lookups.
func Index(summaries []Summary) map[Key]Summary {
	idx := make(map[Key]Summary, len(summaries))
	for _, s := range summaries {
		idx[KeyOf(s.Bucket, s.Category)] = s
	}
	return idx
}

// Summarize partitions transactions into (category, bucket) summaries in one
// O(n) pass and returns them sorted by bucket start ascending, then category
// id ascending.
//
// Transactions outside [From, To) are excluded silently. A transaction whose
// category is not in the set contributes an UnknownCategoryError instead of
// a summary; the errors are joined and returned alongside the summaries of
// the valid remainder, so bad references are visible without blocking the
// batch. Empty input yields an empty result and a nil error.
func Summarize(transactions []core.Transaction, g core.Granularity, categories CategorySet, opts Options) ([]Summary, error) {
	if !g.IsValid() {
		return nil, fmt.Errorf("summarize: %w: %q", core.ErrInvalidPeriod, g)
	}

	var keep map[core.CategoryID]bool
	if len(opts.Categories) > 0 {
		keep = make(map[core.CategoryID]bool, len(opts.Categories))
		for _, id := range opts.Categories {
			keep[id] = true
		}
	}

	acc := make(map[Key]*Summary)
	var itemErrs []error
	for _, tx := range transactions {
		if !opts.From.IsZero() && tx.Timestamp.Before(opts.From) {
			continue
		}
		if !opts.To.IsZero() && !tx.Timestamp.Before(opts.To) {
			continue
		}
		if !categories.Has(tx.Category) {
			itemErrs = append(itemErrs, &core.UnknownCategoryError{Category: tx.Category, TransactionID: tx.ID})
			continue
		}
		if keep != nil && !keep[tx.Category] {
			continue
		}

		bucket := period.BucketOf(tx.Timestamp, g)
		k := KeyOf(bucket, tx.Category)
		s, ok := acc[k]
		if !ok {
			s = &Summary{Category: tx.Category, Bucket: bucket}
			acc[k] = s
		}
		if cents := tx.Amount.Cents; cents >= 0 {
			s.InflowCents += cents
		} else {
			s.OutflowCents -= cents
		}
		s.NetCents += tx.Amount.Cents
		s.Count++
	}

	out := make([]Summary, 0, len(acc))
	for _, s := range acc {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Bucket.Start.Equal(out[j].Bucket.Start) {
			return out[i].Bucket.Start.Before(out[j].Bucket.Start)
		}
		return out[i].Category < out[j].Category
	})

	return out, errors.Join(itemErrs...)
}
