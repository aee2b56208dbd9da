package budget

import (
	"testing"
	"time"

	"tally/internal/core"
	"tally/internal/period"
)

func monthStatus(actual, limit int64) Status {
	bucket := period.BucketOf(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), core.Monthly)
	return Status{
		BudgetID:    1,
		Category:    3,
		Bucket:      bucket,
		ActualCents: actual,
		LimitCents:  limit,
	}
}

func TestForecastSpendMidMonth(t *testing.T) {
	// 10 days in, 3100 spent: burn 310/day, 21 days left in January.
	asOf := time.Date(2025, time.January, 10, 15, 30, 0, 0, time.UTC)
	f := ForecastSpend(monthStatus(3100, 12000), asOf)

	if f.DaysElapsed != 10 || f.DaysRemaining != 21 {
		t.Fatalf("days = {elapsed:%d remaining:%d}, want {10 21}", f.DaysElapsed, f.DaysRemaining)
	}
	if f.DailyBurnCents != 310 {
		t.Errorf("DailyBurnCents = %d, want 310", f.DailyBurnCents)
	}
	if want := int64(3100 + 310*21); f.ProjectedCents != want {
		t.Errorf("ProjectedCents = %d, want %d", f.ProjectedCents, want)
	}
	if f.State != ForecastOnTrack {
		t.Errorf("State = %s, want %s", f.State, ForecastOnTrack)
	}
}

func TestForecastSpendProjectedOver(t *testing.T) {
	// Pace of 1000/day against a 12000 limit blows through before Feb.
	asOf := time.Date(2025, time.January, 10, 8, 0, 0, 0, time.UTC)
	f := ForecastSpend(monthStatus(10000, 12000), asOf)

	if f.State != ForecastProjectedOver {
		t.Fatalf("State = %s, want %s (projected %d)", f.State, ForecastProjectedOver, f.ProjectedCents)
	}
	if f.ProjectedCents <= 12000 {
		t.Errorf("ProjectedCents = %d, should exceed the 12000 limit", f.ProjectedCents)
	}
}

func TestForecastSpendNotStarted(t *testing.T) {
	asOf := time.Date(2024, time.December, 20, 0, 0, 0, 0, time.UTC)
	f := ForecastSpend(monthStatus(0, 12000), asOf)

	if f.State != ForecastNotStarted {
		t.Fatalf("State = %s, want %s", f.State, ForecastNotStarted)
	}
	if f.DaysElapsed != 0 || f.DaysRemaining != 31 {
		t.Errorf("days = {elapsed:%d remaining:%d}, want {0 31}", f.DaysElapsed, f.DaysRemaining)
	}
	if f.DailyBurnCents != 0 {
		t.Errorf("DailyBurnCents = %d, want 0", f.DailyBurnCents)
	}
}

func TestForecastSpendLastDay(t *testing.T) {
	asOf := time.Date(2025, time.January, 31, 23, 0, 0, 0, time.UTC)
	f := ForecastSpend(monthStatus(6200, 12000), asOf)

	if f.DaysElapsed != 31 || f.DaysRemaining != 0 {
		t.Fatalf("days = {elapsed:%d remaining:%d}, want {31 0}", f.DaysElapsed, f.DaysRemaining)
	}
	if f.ProjectedCents != 6200 {
		t.Errorf("ProjectedCents = %d, want the actual spend on the last day", f.ProjectedCents)
	}
	if f.State != ForecastOnTrack {
		t.Errorf("State = %s, want %s", f.State, ForecastOnTrack)
	}
}
