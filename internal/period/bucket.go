// Package period converts timestamps into calendar buckets. A bucket is a
// half-open interval [Start, End()) at day, week, month, or year
// granularity; two timestamps share a bucket iff they fall in the same
// interval. Buckets are derived values and are never persisted.
package period

import (
	"fmt"
	"time"

	"tally/internal/core"
)

type Bucket struct {
	Start time.Time
	Grain core.Granularity
}

// BucketOf truncates t to the bucket containing it, in t's location.
// Boundaries are civil-calendar boundaries: midnight, Monday (ISO 8601),
// first of the month, first of January. Callers validate the granularity;
// an unknown value is treated as daily.
func BucketOf(t time.Time, g core.Granularity) Bucket {
	y, m, d := t.Date()
	loc := t.Location()
	switch g {
	case core.Weekly:
		wd := int(t.Weekday())
		if wd == 0 {
			wd = 7 // Sunday belongs to the week that started the prior Monday
		}
		return Bucket{Start: time.Date(y, m, d-wd+1, 0, 0, 0, 0, loc), Grain: core.Weekly}
	case core.Monthly:
		return Bucket{Start: time.Date(y, m, 1, 0, 0, 0, 0, loc), Grain: core.Monthly}
	case core.Yearly:
		return Bucket{Start: time.Date(y, 1, 1, 0, 0, 0, 0, loc), Grain: core.Yearly}
	default:
		return Bucket{Start: time.Date(y, m, d, 0, 0, 0, 0, loc), Grain: core.Daily}
	}
}

// End returns the exclusive upper bound, the start of the next bucket.
func (b Bucket) End() time.Time {
	return b.Offset(1).Start
}

// Offset returns the bucket n periods away; n may be negative.
func (b Bucket) Offset(n int) Bucket {
	switch b.Grain {
	case core.Weekly:
		return Bucket{Start: b.Start.AddDate(0, 0, 7*n), Grain: b.Grain}
	case core.Monthly:
		return Bucket{Start: b.Start.AddDate(0, n, 0), Grain: b.Grain}
	case core.Yearly:
		return Bucket{Start: b.Start.AddDate(n, 0, 0), Grain: b.Grain}
	default:
		return Bucket{Start: b.Start.AddDate(0, 0, n), Grain: b.Grain}
	}
}

// Contains reports whether t falls inside [Start, End()).
func (b Bucket) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End())
}

// Label renders a stable identifier for report rows: "2025-01-15",
// "2025-W03", "2025-01", "2025". Weekly labels use the ISO week-numbering
// year, so a bucket starting 2024-12-30 is labeled 2025-W01.
func (b Bucket) Label() string {
	switch b.Grain {
	case core.Weekly:
		y, w := b.Start.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w)
	case core.Monthly:
		return b.Start.Format("2006-01")
	case core.Yearly:
		return b.Start.Format("2006")
	default:
		return b.Start.Format("2006-01-02")
	}
}

// Days returns the number of calendar days the bucket spans. Counted day
// by day so DST transitions cannot skew the result.
func (b Bucket) Days() int {
	end := b.End()
	days := 0
	for d := b.Start; d.Before(end); d = d.AddDate(0, 0, 1) {
		days++
	}
	return days
}

// Range enumerates every bucket intersecting [from, to), in order.
// Returns nil when from is not before to.
func Range(from, to time.Time, g core.Granularity) []Bucket {
	if !from.Before(to) {
		return nil
	}
	var out []Bucket
	for b := BucketOf(from, g); b.Start.Before(to); b = b.Offset(1) {
		out = append(out, b)
	}
	return out
}
