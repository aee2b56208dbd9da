package budget

import (
	"time"

	"tally/internal/core"
	"tally/internal/period"
)

const (
	ForecastNotStarted    ForecastState = "not_started"
	ForecastOnTrack       ForecastState = "on_track"
	ForecastProjectedOver ForecastState = "projected_over"
)

type ForecastState string

// Forecast projects where a budget's bucket will land if spending keeps its
// current daily pace.
type Forecast struct {
	BudgetID       int64
	Bucket         period.Bucket
	DaysElapsed    int
	DaysRemaining  int
	DailyBurnCents int64
	ProjectedCents int64
	State          ForecastState
}

// ForecastSpend extrapolates a status linearly from the days elapsed so
// far. asOf before the bucket begins yields not_started with a zero burn
// rate. The elapsed day count includes the asOf day itself.
func ForecastSpend(status Status, asOf time.Time) Forecast {
	f := Forecast{BudgetID: status.BudgetID, Bucket: status.Bucket}

	if asOf.Before(status.Bucket.Start) {
		f.DaysRemaining = status.Bucket.Days()
		f.State = ForecastNotStarted
		return f
	}

	// Count calendar days, not hours/24, so DST cannot skew the split.
	today := period.BucketOf(asOf, core.Daily).Start
	end := status.Bucket.End()
	for d := status.Bucket.Start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if d.After(today) {
			f.DaysRemaining++
		} else {
			f.DaysElapsed++
		}
	}

	if f.DaysElapsed > 0 {
		f.DailyBurnCents = status.ActualCents / int64(f.DaysElapsed)
	}
	f.ProjectedCents = status.ActualCents + f.DailyBurnCents*int64(f.DaysRemaining)

	if f.ProjectedCents > status.LimitCents {
		f.State = ForecastProjectedOver
	} else {
		f.State = ForecastOnTrack
	}
	return f
}
