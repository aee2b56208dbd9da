package budget

import (
	"errors"
	"testing"
	"time"

	"tally/internal/aggregate"
	"tally/internal/core"
	"tally/internal/period"
)

func dayBucket(y int, m time.Month, d int) period.Bucket {
	return period.BucketOf(time.Date(y, m, d, 0, 0, 0, 0, time.UTC), core.Daily)
}

func foodBudget(limitCents int64) core.Budget {
	return core.Budget{ID: 1, UserID: 7, Category: 3, Name: "food", Limit: core.Money{Cents: limitCents}, Period: core.Daily}
}

func actualFor(b period.Bucket, cat core.CategoryID, outflow int64) *aggregate.Summary {
	return &aggregate.Summary{
		Category:     cat,
		Bucket:       b,
		OutflowCents: outflow,
		NetCents:     -outflow,
		Count:        1,
	}
}

func TestEvaluateStates(t *testing.T) {
	evaluator, err := NewEvaluator(DefaultConfig())
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}
	bucket := dayBucket(2025, time.January, 15)

	tests := []struct {
		name          string
		outflow       int64
		wantState     State
		wantRemaining int64
	}{
		{"well under", 5000, Under, 1000},
		{"near", 5500, Near, 500},
		{"exactly at near threshold", 5400, Near, 600},
		{"just below near threshold", 5399, Under, 601},
		{"exactly at limit", 6000, Exceeded, 0},
		{"over limit", 7500, Exceeded, -1500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, err := evaluator.Evaluate(foodBudget(6000), bucket, actualFor(bucket, 3, tt.outflow))
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if status.State != tt.wantState {
				t.Errorf("State = %s, want %s", status.State, tt.wantState)
			}
			if status.RemainingCents != tt.wantRemaining {
				t.Errorf("RemainingCents = %d, want %d", status.RemainingCents, tt.wantRemaining)
			}
		})
	}
}

func TestEvaluateMissingActual(t *testing.T) {
	evaluator, _ := NewEvaluator(DefaultConfig())
	bucket := dayBucket(2025, time.January, 15)

	status, err := evaluator.Evaluate(foodBudget(6000), bucket, nil)
	if err != nil {
		t.Fatalf("Evaluate(nil actual) error = %v", err)
	}
	if status.State != Under || status.ActualCents != 0 || status.RemainingCents != 6000 {
		t.Fatalf("status = %+v, want Under with zero spend", status)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	evaluator, _ := NewEvaluator(DefaultConfig())
	bucket := dayBucket(2025, time.January, 15)
	actual := actualFor(bucket, 3, 5500)

	first, err := evaluator.Evaluate(foodBudget(6000), bucket, actual)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	second, err := evaluator.Evaluate(foodBudget(6000), bucket, actual)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if first != second {
		t.Fatalf("repeated evaluation differs: %+v vs %+v", first, second)
	}
}

func TestEvaluateMonotonicInRatio(t *testing.T) {
	evaluator, _ := NewEvaluator(DefaultConfig())
	bucket := dayBucket(2025, time.January, 15)
	rank := map[State]int{Under: 0, Near: 1, Exceeded: 2}

	prev := -1
	for outflow := int64(0); outflow <= 8000; outflow += 100 {
		status, err := evaluator.Evaluate(foodBudget(6000), bucket, actualFor(bucket, 3, outflow))
		if err != nil {
			t.Fatalf("Evaluate(%d) error = %v", outflow, err)
		}
		if rank[status.State] < prev {
			t.Fatalf("state regressed to %s at outflow %d", status.State, outflow)
		}
		prev = rank[status.State]
	}
}

func TestEvaluateRejectsMismatches(t *testing.T) {
	evaluator, _ := NewEvaluator(DefaultConfig())
	bucket := dayBucket(2025, time.January, 15)

	t.Run("category mismatch", func(t *testing.T) {
		_, err := evaluator.Evaluate(foodBudget(6000), bucket, actualFor(bucket, 9, 100))
		if err == nil {
			t.Fatal("expected error for mismatched category")
		}
	})
	t.Run("bucket mismatch", func(t *testing.T) {
		other := dayBucket(2025, time.January, 16)
		_, err := evaluator.Evaluate(foodBudget(6000), bucket, actualFor(other, 3, 100))
		if err == nil {
			t.Fatal("expected error for mismatched bucket")
		}
	})
	t.Run("granularity mismatch", func(t *testing.T) {
		monthBucket := period.BucketOf(time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), core.Monthly)
		_, err := evaluator.Evaluate(foodBudget(6000), monthBucket, nil)
		if err == nil {
			t.Fatal("expected error for mismatched granularity")
		}
	})
	t.Run("invalid limit", func(t *testing.T) {
		_, err := evaluator.Evaluate(foodBudget(0), bucket, nil)
		if !errors.Is(err, core.ErrInvalidLimit) {
			t.Fatalf("Evaluate() error = %v, want ErrInvalidLimit", err)
		}
	})
}

func TestNewEvaluatorConfig(t *testing.T) {
	cases := []struct {
		threshold float64
		ok        bool
	}{
		{0.9, true},
		{1.0, true},
		{0.01, true},
		{0, false},
		{-0.5, false},
		{1.5, false},
	}
	for _, tc := range cases {
		_, err := NewEvaluator(Config{NearThreshold: tc.threshold})
		if tc.ok && err != nil {
			t.Errorf("NewEvaluator(%g) unexpected error: %v", tc.threshold, err)
		}
		if !tc.ok && !errors.Is(err, core.ErrInvalidConfiguration) {
			t.Errorf("NewEvaluator(%g) error = %v, want ErrInvalidConfiguration", tc.threshold, err)
		}
	}
}

func TestEvaluateAllPartialFailure(t *testing.T) {
	evaluator, _ := NewEvaluator(DefaultConfig())
	asOf := time.Date(2025, time.January, 15, 14, 0, 0, 0, time.UTC)
	bucket := period.BucketOf(asOf, core.Daily)

	budgets := []core.Budget{
		foodBudget(6000),
		{ID: 2, UserID: 7, Category: 4, Name: "broken", Limit: core.Money{Cents: 0}, Period: core.Daily},
		{ID: 3, UserID: 7, Category: 5, Name: "transport", Limit: core.Money{Cents: 10000}, Period: core.Daily},
	}
	idx := map[aggregate.Key]aggregate.Summary{
		aggregate.KeyOf(bucket, 3): *actualFor(bucket, 3, 5500),
	}

	results := evaluator.EvaluateAll(budgets, asOf, idx)
	if len(results) != 3 {
		t.Fatalf("EvaluateAll() returned %d results, want 3", len(results))
	}
	if results[0].Err != nil || results[0].Status.State != Near {
		t.Errorf("budget 1 = {state:%s err:%v}, want Near with nil error", results[0].Status.State, results[0].Err)
	}
	if results[1].Err == nil {
		t.Error("budget 2 with zero limit should carry an error")
	}
	if results[2].Err != nil || results[2].Status.State != Under {
		t.Errorf("budget 3 = {state:%s err:%v}, want Under with nil error (no spend)", results[2].Status.State, results[2].Err)
	}
}
