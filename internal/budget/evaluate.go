// Package budget grades aggregated spending against configured limits.
// Evaluation is a pure function of (budget, actual): there is no stored
// previous state and no hysteresis, so a budget hovering at a boundary
// reports whichever side the current data lands on, every time it is asked.
package budget

import (
	"fmt"
	"time"

	"tally/internal/aggregate"
	"tally/internal/core"
	"tally/internal/period"
)

type State string

const (
	Under    State = "under"
	Near     State = "near"
	Exceeded State = "exceeded"
)

func (s State) IsValid() bool {
	switch s {
	case Under, Near, Exceeded:
		return true
	default:
		return false
	}
}

// Config holds evaluator thresholds. NearThreshold is the fraction of the
// limit where UNDER turns into NEAR.
type Config struct {
	NearThreshold float64
}

func DefaultConfig() Config {
	return Config{NearThreshold: 0.9}
}

type Evaluator struct {
	near float64
}

func NewEvaluator(cfg Config) (*Evaluator, error) {
	if cfg.NearThreshold <= 0 || cfg.NearThreshold > 1 {
		return nil, fmt.Errorf("budget evaluator: %w: near threshold %g, must be in (0, 1]",
			core.ErrInvalidConfiguration, cfg.NearThreshold)
	}
	return &Evaluator{near: cfg.NearThreshold}, nil
}

// Status is the graded outcome for one budget in one bucket.
// RemainingCents goes negative once the limit is blown.
type Status struct {
	BudgetID       int64
	Name           string
	Category       core.CategoryID
	Bucket         period.Bucket
	ActualCents    int64
	LimitCents     int64
	RemainingCents int64
	Ratio          float64
	State          State
}

// Evaluate grades one budget against the aggregated actual for bucket.
// actual == nil means no transactions landed in that bucket: spend is 0 and
// the state is Under, not an error. A non-nil actual must belong to the
// budget's category and to the given bucket.
//
// Boundaries are inclusive on the lower side: ratio exactly at the near
// threshold is Near, ratio exactly 1.0 is Exceeded.
func (e *Evaluator) Evaluate(b core.Budget, bucket period.Bucket, actual *aggregate.Summary) (Status, error) {
	if err := b.Validate(); err != nil {
		return Status{}, fmt.Errorf("budget %d: %w", b.ID, err)
	}
	if bucket.Grain != b.Period {
		return Status{}, fmt.Errorf("budget %d: bucket granularity %s does not match budget period %s", b.ID, bucket.Grain, b.Period)
	}
	if actual != nil {
		if actual.Category != b.Category {
			return Status{}, fmt.Errorf("budget %d: summary category %d does not match budget category %d", b.ID, actual.Category, b.Category)
		}
		if !actual.Bucket.Start.Equal(bucket.Start) || actual.Bucket.Grain != bucket.Grain {
			return Status{}, fmt.Errorf("budget %d: summary bucket %s/%s does not match evaluation bucket %s/%s",
				b.ID, actual.Bucket.Label(), actual.Bucket.Grain, bucket.Label(), bucket.Grain)
		}
	}

	var spent int64
	if actual != nil {
		spent = actual.OutflowCents
	}

	ratio := float64(spent) / float64(b.Limit.Cents)
	state := Under
	switch {
	case ratio >= 1.0:
		state = Exceeded
	case ratio >= e.near:
		state = Near
	}

	return Status{
		BudgetID:       b.ID,
		Name:           b.Name,
		Category:       b.Category,
		Bucket:         bucket,
		ActualCents:    spent,
		LimitCents:     b.Limit.Cents,
		RemainingCents: b.Limit.Cents - spent,
		Ratio:          ratio,
		State:          state,
	}, nil
}

// Result tags one budget's evaluation with its error, if any.
type Result struct {
	Status Status
	Err    error
}

// EvaluateAll grades every budget against the summaries index for the
// bucket containing asOf at each budget's own granularity. Evaluations are
// independent: one bad budget yields a tagged error in its slot and never
// aborts the rest. Results keep the input order.
func (e *Evaluator) EvaluateAll(budgets []core.Budget, asOf time.Time, idx map[aggregate.Key]aggregate.Summary) []Result {
	results := make([]Result, len(budgets))
	for i, b := range budgets {
		bucket := period.BucketOf(asOf, b.Period)
		var actual *aggregate.Summary
		if s, ok := idx[aggregate.KeyOf(bucket, b.Category)]; ok {
			actual = &s
		}
		status, err := e.Evaluate(b, bucket, actual)
		results[i] = Result{Status: status, Err: err}
	}
	return results
}
