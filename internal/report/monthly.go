package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tally/internal/aggregate"
	"tally/internal/budget"
	"tally/internal/core"
	"tally/internal/ledger"
	"tally/internal/log"
	"tally/internal/metrics"
	"tally/internal/period"
	"tally/internal/trend"
)

// MonthlyRequest asks for the full report of one calendar month.
type MonthlyRequest struct {
	Caller string
	UserID core.UserID

	// Month is any instant inside the wanted month; zero means the current
	// month.
	Month time.Time
}

// Overview condenses the month into the numbers a dashboard headline shows.
type Overview struct {
	Label            string
	InflowCents      int64
	OutflowCents     int64
	NetCents         int64
	TransactionCount int

	TopCategory        string
	TopCategoryOutflow int64

	// DailyAverageOutflow divides outflow by elapsed days, so a report in
	// the middle of the month reflects the pace so far.
	DailyAverageOutflow int64
	DaysElapsed         int
	DaysInMonth         int

	// AverageTransactionCents is outflow divided by the transaction count,
	// the size of a typical movement this month.
	AverageTransactionCents int64

	// Month-over-month outflow movement. Defined is false when the prior
	// month had no outflow; the percent is meaningless then.
	PreviousOutflowCents int64
	ChangePercent        float64
	ChangeDefined        bool
}

// MonthlyReport bundles everything the reporting surfaces render for one
// user and month.
type MonthlyReport struct {
	// ID identifies one generated report instance; cached hits return the
	// id of the run that built them.
	ID          string
	UserID      core.UserID
	Bucket      period.Bucket
	GeneratedAt time.Time

	Overview   Overview
	Summaries  []aggregate.Summary
	Shares     []aggregate.CategoryShare
	Insights   []trend.Insight
	Directions []trend.Direction
	Budgets    []budget.Result
	Forecasts  []budget.Forecast
}

// MonthlyReport builds the composite month report. Reports are cached per
// (user, month); a cached answer still passes admission first, so quota
// spend does not depend on cache luck.
func (s *Service) MonthlyReport(ctx context.Context, req MonthlyRequest) (*MonthlyReport, error) {
	if err := s.admit(req.Caller); err != nil {
		return nil, err
	}
	defer s.observe("monthly")()

	month := req.Month
	if month.IsZero() {
		month = time.Now()
	}
	bucket := period.BucketOf(month, core.Monthly)

	key := fmt.Sprintf("monthly:%d:%s", req.UserID, bucket.Label())
	if cached, ok := s.cache.Get(key); ok {
		metrics.ReportCacheRequests.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.ReportCacheRequests.WithLabelValues("miss").Inc()

	// Budgets grade against "now" while the month is still running, and
	// against the month's final instant once it is over.
	asOf := time.Now()
	if !bucket.Contains(asOf) {
		asOf = bucket.End().Add(-time.Second)
	}

	set, err := ledger.CategorySetFor(ctx, s.store, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	// One load covers the report month plus enough history for the
	// baseline comparison.
	historyFrom := bucket.Offset(-maxInt(s.baseline, 1)).Start
	transactions, err := s.store.ListTransactions(ctx, req.UserID, historyFrom, bucket.End())
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	allSummaries, aerr := aggregate.Summarize(transactions, core.Monthly, set, aggregate.Options{})
	if aerr != nil && !errors.Is(aerr, core.ErrUnknownCategory) {
		return nil, aerr
	}
	if aerr != nil {
		s.logger.Warn("Excluding transactions with unknown categories from monthly report",
			log.FieldError, aerr)
	}

	var monthSummaries []aggregate.Summary
	for _, sum := range allSummaries {
		if sum.Bucket.Start.Equal(bucket.Start) {
			monthSummaries = append(monthSummaries, sum)
		}
	}

	rep := &MonthlyReport{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Bucket:    bucket,
		Summaries: monthSummaries,
	}

	var g errgroup.Group
	g.Go(func() error {
		rep.Shares = aggregate.Shares(monthSummaries, set)
		return nil
	})
	g.Go(func() error {
		points, err := trend.Analyze(allSummaries, s.baseline)
		if err != nil {
			return err
		}
		// Direction fits run over the whole loaded history; the insight
		// rows keep only the report month's movement.
		rep.Directions = trend.Directions(points)
		var monthPoints []trend.Point
		for _, p := range points {
			if p.Bucket.Start.Equal(bucket.Start) {
				monthPoints = append(monthPoints, p)
			}
		}
		rep.Insights = s.classifier.Insights(monthPoints)
		return nil
	})
	g.Go(func() error {
		results, err := s.gradeBudgets(ctx, req.UserID, asOf)
		if err != nil {
			return err
		}
		rep.Budgets = results
		forecasts := make([]budget.Forecast, 0, len(results))
		for _, r := range results {
			if r.Err != nil {
				continue
			}
			forecasts = append(forecasts, budget.ForecastSpend(r.Status, asOf))
		}
		rep.Forecasts = forecasts
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("assemble monthly report: %w", err)
	}

	rep.Overview = s.buildOverview(bucket, asOf, monthSummaries, allSummaries, rep.Shares)
	rep.GeneratedAt = time.Now()

	s.cache.Set(key, rep)
	metrics.ReportsGenerated.WithLabelValues("monthly").Inc()
	s.logger.Info("Generated monthly report",
		log.FieldUserID, req.UserID,
		log.FieldBucket, bucket.Label(),
		log.FieldCount, rep.Overview.TransactionCount)
	return rep, nil
}

func (s *Service) buildOverview(bucket period.Bucket, asOf time.Time, monthSummaries, allSummaries []aggregate.Summary, shares []aggregate.CategoryShare) Overview {
	o := Overview{
		Label:       bucket.Label(),
		DaysInMonth: bucket.Days(),
	}

	for _, sum := range monthSummaries {
		o.InflowCents += sum.InflowCents
		o.OutflowCents += sum.OutflowCents
		o.NetCents += sum.NetCents
		o.TransactionCount += sum.Count
	}

	if len(shares) > 0 && shares[0].OutflowCents > 0 {
		o.TopCategory = shares[0].Name
		o.TopCategoryOutflow = shares[0].OutflowCents
	}

	o.DaysElapsed = o.DaysInMonth
	if bucket.Contains(asOf) {
		o.DaysElapsed = asOf.Day()
	}
	if o.DaysElapsed > 0 {
		o.DailyAverageOutflow = o.OutflowCents / int64(o.DaysElapsed)
	}
	if o.TransactionCount > 0 {
		o.AverageTransactionCents = o.OutflowCents / int64(o.TransactionCount)
	}

	previous := bucket.Offset(-1)
	for _, sum := range allSummaries {
		if sum.Bucket.Start.Equal(previous.Start) {
			o.PreviousOutflowCents += sum.OutflowCents
		}
	}
	if o.PreviousOutflowCents > 0 {
		o.ChangeDefined = true
		o.ChangePercent = float64(o.OutflowCents-o.PreviousOutflowCents) / float64(o.PreviousOutflowCents)
	}

	return o
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
