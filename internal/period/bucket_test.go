package period

import (
	"testing"
	"time"

	"tally/internal/core"
)

func ts(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestBucketOf(t *testing.T) {
	tests := []struct {
		name  string
		in    time.Time
		grain core.Granularity
		want  time.Time
	}{
		{"day truncates clock", ts(2025, time.January, 15, 13, 45), core.Daily, ts(2025, time.January, 15, 0, 0)},
		{"day at midnight stays", ts(2025, time.January, 15, 0, 0), core.Daily, ts(2025, time.January, 15, 0, 0)},
		{"week from wednesday", ts(2025, time.January, 15, 13, 45), core.Weekly, ts(2025, time.January, 13, 0, 0)},
		{"week from monday", ts(2025, time.January, 13, 0, 0), core.Weekly, ts(2025, time.January, 13, 0, 0)},
		{"week from sunday", ts(2025, time.January, 19, 23, 59), core.Weekly, ts(2025, time.January, 13, 0, 0)},
		{"week crossing month boundary", ts(2025, time.January, 1, 9, 0), core.Weekly, ts(2024, time.December, 30, 0, 0)},
		{"month", ts(2025, time.January, 31, 23, 59), core.Monthly, ts(2025, time.January, 1, 0, 0)},
		{"year", ts(2025, time.June, 15, 12, 0), core.Yearly, ts(2025, time.January, 1, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BucketOf(tt.in, tt.grain)
			if !got.Start.Equal(tt.want) {
				t.Errorf("BucketOf(%v, %s).Start = %v, want %v", tt.in, tt.grain, got.Start, tt.want)
			}
			if got.Grain != tt.grain {
				t.Errorf("BucketOf grain = %s, want %s", got.Grain, tt.grain)
			}
		})
	}
}

func TestBucketEndIsExclusive(t *testing.T) {
	day := BucketOf(ts(2025, time.January, 15, 10, 0), core.Daily)
	if !day.End().Equal(ts(2025, time.January, 16, 0, 0)) {
		t.Fatalf("day End() = %v, want next midnight", day.End())
	}
	if !day.Contains(ts(2025, time.January, 15, 23, 59)) {
		t.Fatal("last minute of the day should be contained")
	}
	if day.Contains(day.End()) {
		t.Fatal("End() itself must not be contained (half-open interval)")
	}
	if day.Contains(ts(2025, time.January, 14, 23, 59)) {
		t.Fatal("prior day must not be contained")
	}
}

func TestBucketOffset(t *testing.T) {
	tests := []struct {
		name  string
		start Bucket
		n     int
		want  time.Time
	}{
		{"day forward", BucketOf(ts(2025, time.January, 15, 0, 0), core.Daily), 1, ts(2025, time.January, 16, 0, 0)},
		{"day back across month", BucketOf(ts(2025, time.March, 1, 0, 0), core.Daily), -1, ts(2025, time.February, 28, 0, 0)},
		{"week back", BucketOf(ts(2025, time.January, 15, 0, 0), core.Weekly), -1, ts(2025, time.January, 6, 0, 0)},
		{"month forward across year", BucketOf(ts(2025, time.December, 10, 0, 0), core.Monthly), 1, ts(2026, time.January, 1, 0, 0)},
		{"month back", BucketOf(ts(2025, time.January, 10, 0, 0), core.Monthly), -1, ts(2024, time.December, 1, 0, 0)},
		{"year forward", BucketOf(ts(2025, time.May, 1, 0, 0), core.Yearly), 2, ts(2027, time.January, 1, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.start.Offset(tt.n)
			if !got.Start.Equal(tt.want) {
				t.Errorf("Offset(%d).Start = %v, want %v", tt.n, got.Start, tt.want)
			}
		})
	}
}

func TestBucketLabel(t *testing.T) {
	tests := []struct {
		name  string
		in    time.Time
		grain core.Granularity
		want  string
	}{
		{"day", ts(2025, time.January, 15, 10, 0), core.Daily, "2025-01-15"},
		{"week", ts(2025, time.January, 15, 10, 0), core.Weekly, "2025-W03"},
		{"week with iso year rollover", ts(2024, time.December, 31, 10, 0), core.Weekly, "2025-W01"},
		{"month", ts(2025, time.January, 15, 10, 0), core.Monthly, "2025-01"},
		{"year", ts(2025, time.January, 15, 10, 0), core.Yearly, "2025"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BucketOf(tt.in, tt.grain).Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBucketDays(t *testing.T) {
	cases := []struct {
		in    time.Time
		grain core.Granularity
		want  int
	}{
		{ts(2025, time.January, 15, 0, 0), core.Daily, 1},
		{ts(2025, time.January, 15, 0, 0), core.Weekly, 7},
		{ts(2025, time.January, 15, 0, 0), core.Monthly, 31},
		{ts(2025, time.February, 10, 0, 0), core.Monthly, 28},
		{ts(2024, time.February, 10, 0, 0), core.Monthly, 29},
		{ts(2025, time.June, 1, 0, 0), core.Yearly, 365},
		{ts(2024, time.June, 1, 0, 0), core.Yearly, 366},
	}
	for i, tc := range cases {
		if got := BucketOf(tc.in, tc.grain).Days(); got != tc.want {
			t.Fatalf("case %d: Days() = %d, want %d", i, got, tc.want)
		}
	}
}

func TestRange(t *testing.T) {
	from := ts(2025, time.January, 30, 12, 0)
	to := ts(2025, time.April, 2, 0, 0)
	buckets := Range(from, to, core.Monthly)
	if len(buckets) != 4 {
		t.Fatalf("Range() returned %d buckets, want 4", len(buckets))
	}
	wantStarts := []time.Time{
		ts(2025, time.January, 1, 0, 0),
		ts(2025, time.February, 1, 0, 0),
		ts(2025, time.March, 1, 0, 0),
		ts(2025, time.April, 1, 0, 0),
	}
	for i, b := range buckets {
		if !b.Start.Equal(wantStarts[i]) {
			t.Errorf("bucket %d start = %v, want %v", i, b.Start, wantStarts[i])
		}
	}

	if got := Range(to, from, core.Monthly); got != nil {
		t.Fatalf("inverted range should be nil, got %d buckets", len(got))
	}
}
