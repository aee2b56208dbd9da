// Package report orchestrates the reporting pipeline: every request is
// admitted through the rate limiter first, then served from the ledger
// through the aggregate, trend, and budget packages.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"tally/internal/aggregate"
	"tally/internal/budget"
	"tally/internal/cache"
	"tally/internal/core"
	"tally/internal/ledger"
	"tally/internal/log"
	"tally/internal/metrics"
	"tally/internal/period"
	"tally/internal/ratelimit"
	"tally/internal/trend"
)

// Config holds the knobs for a reporting service.
type Config struct {
	RateLimit      ratelimit.Config
	NearThreshold  float64
	TrendThreshold float64
	TrendBaseline  int
	CacheSize      int
	CacheTTL       time.Duration
}

func DefaultConfig() Config {
	return Config{
		RateLimit:      ratelimit.DefaultConfig(),
		NearThreshold:  budget.DefaultConfig().NearThreshold,
		TrendThreshold: trend.DefaultClassifierConfig().SignificantChange,
		TrendBaseline:  1,
		CacheSize:      128,
		CacheTTL:       5 * time.Minute,
	}
}

// Service answers reporting requests for one ledger store. All methods are
// safe for concurrent use.
type Service struct {
	store      ledger.Store
	limiter    *ratelimit.Limiter
	evaluator  *budget.Evaluator
	classifier *trend.Classifier
	baseline   int
	cache      *cache.LRUCache[*MonthlyReport]
	logger     *log.Logger
}

func NewService(store ledger.Store, cfg Config, logger *log.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("report service: %w: nil store", core.ErrInvalidConfiguration)
	}
	if cfg.TrendBaseline < 1 {
		return nil, fmt.Errorf("report service: %w: trend baseline %d, must be at least 1",
			core.ErrInvalidConfiguration, cfg.TrendBaseline)
	}
	if cfg.CacheSize < 1 || cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("report service: %w: cache size %d and ttl %v must be positive",
			core.ErrInvalidConfiguration, cfg.CacheSize, cfg.CacheTTL)
	}
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentReport})
	}

	limiter, err := ratelimit.NewLimiter(cfg.RateLimit, nil)
	if err != nil {
		return nil, fmt.Errorf("report service: %w", err)
	}
	evaluator, err := budget.NewEvaluator(budget.Config{NearThreshold: cfg.NearThreshold})
	if err != nil {
		limiter.Stop()
		return nil, fmt.Errorf("report service: %w", err)
	}
	classifier, err := trend.NewClassifier(trend.ClassifierConfig{SignificantChange: cfg.TrendThreshold})
	if err != nil {
		limiter.Stop()
		return nil, fmt.Errorf("report service: %w", err)
	}

	return &Service{
		store:      store,
		limiter:    limiter,
		evaluator:  evaluator,
		classifier: classifier,
		baseline:   cfg.TrendBaseline,
		cache:      cache.NewLRUCache[*MonthlyReport](cfg.CacheSize, cfg.CacheTTL),
		logger:     logger,
	}, nil
}

// Close stops the limiter's background sweeper.
func (s *Service) Close() {
	s.limiter.Stop()
}

// admit charges the request against the caller's quota before any work is
// done. Cached answers cost the same as fresh ones.
func (s *Service) admit(caller string) error {
	if caller == "" {
		caller = "anonymous"
	}
	d := s.limiter.Admit(caller, time.Now())
	if err := d.Err(caller); err != nil {
		s.logger.Warn("Request rejected by rate limiter",
			log.FieldKey, caller,
			"retry_after", d.RetryAfter)
		return err
	}
	return nil
}

// SummaryRequest asks for per-category, per-bucket summaries.
type SummaryRequest struct {
	Caller      string
	UserID      core.UserID
	Granularity core.Granularity
	From, To    time.Time
	Categories  []core.CategoryID
}

// Summaries aggregates the user's transactions. The returned error may be a
// join of unknown-category item errors alongside valid partial results.
func (s *Service) Summaries(ctx context.Context, req SummaryRequest) ([]aggregate.Summary, error) {
	if err := s.admit(req.Caller); err != nil {
		return nil, err
	}
	defer s.observe("summary")()

	set, err := ledger.CategorySetFor(ctx, s.store, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	transactions, err := s.store.ListTransactions(ctx, req.UserID, req.From, req.To)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	summaries, aerr := aggregate.Summarize(transactions, req.Granularity, set, aggregate.Options{
		Categories: req.Categories,
		From:       req.From,
		To:         req.To,
	})
	metrics.ReportsGenerated.WithLabelValues("summary").Inc()
	return summaries, aerr
}

// SpendingByCategory ranks categories by outflow share over the request
// range. Granularity defaults to monthly; the breakdown collapses buckets,
// so it only matters when the caller also wants the summaries.
func (s *Service) SpendingByCategory(ctx context.Context, req SummaryRequest) ([]aggregate.CategoryShare, error) {
	if err := s.admit(req.Caller); err != nil {
		return nil, err
	}
	defer s.observe("shares")()

	gran := req.Granularity
	if gran == "" {
		gran = core.Monthly
	}

	set, err := ledger.CategorySetFor(ctx, s.store, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	transactions, err := s.store.ListTransactions(ctx, req.UserID, req.From, req.To)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	summaries, aerr := aggregate.Summarize(transactions, gran, set, aggregate.Options{
		Categories: req.Categories,
		From:       req.From,
		To:         req.To,
	})
	if aerr != nil && !errors.Is(aerr, core.ErrUnknownCategory) {
		return nil, aerr
	}
	if aerr != nil {
		s.logger.Warn("Excluding transactions with unknown categories from shares", log.FieldError, aerr)
	}

	metrics.ReportsGenerated.WithLabelValues("shares").Inc()
	return aggregate.Shares(summaries, set), nil
}

// TrendRequest asks for classified movement against an earlier baseline.
type TrendRequest struct {
	SummaryRequest

	// BaselineOffset overrides the service default when positive.
	BaselineOffset int
}

// Trends summarizes the range and classifies each bucket against its
// baseline bucket.
func (s *Service) Trends(ctx context.Context, req TrendRequest) ([]trend.Insight, error) {
	if err := s.admit(req.Caller); err != nil {
		return nil, err
	}
	defer s.observe("trends")()

	offset := req.BaselineOffset
	if offset <= 0 {
		offset = s.baseline
	}

	set, err := ledger.CategorySetFor(ctx, s.store, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	transactions, err := s.store.ListTransactions(ctx, req.UserID, req.From, req.To)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	summaries, aerr := aggregate.Summarize(transactions, req.Granularity, set, aggregate.Options{
		Categories: req.Categories,
		From:       req.From,
		To:         req.To,
	})
	if aerr != nil && !errors.Is(aerr, core.ErrUnknownCategory) {
		return nil, aerr
	}
	if aerr != nil {
		s.logger.Warn("Excluding transactions with unknown categories from trends", log.FieldError, aerr)
	}

	points, err := trend.Analyze(summaries, offset)
	if err != nil {
		return nil, err
	}
	metrics.ReportsGenerated.WithLabelValues("trends").Inc()
	return s.classifier.Insights(points), nil
}

// BudgetRequest asks for budget grades or forecasts at a point in time.
type BudgetRequest struct {
	Caller string
	UserID core.UserID
	AsOf   time.Time
}

// BudgetStatuses grades every budget of the user against actual spending in
// the bucket containing AsOf. One failing budget taints only its own slot.
func (s *Service) BudgetStatuses(ctx context.Context, req BudgetRequest) ([]budget.Result, error) {
	if err := s.admit(req.Caller); err != nil {
		return nil, err
	}
	defer s.observe("budgets")()

	results, err := s.gradeBudgets(ctx, req.UserID, s.asOf(req.AsOf))
	if err != nil {
		return nil, err
	}
	metrics.ReportsGenerated.WithLabelValues("budgets").Inc()
	return results, nil
}

// Forecasts projects end-of-period spending for every budget that graded
// cleanly.
func (s *Service) Forecasts(ctx context.Context, req BudgetRequest) ([]budget.Forecast, error) {
	if err := s.admit(req.Caller); err != nil {
		return nil, err
	}
	defer s.observe("forecast")()

	asOf := s.asOf(req.AsOf)
	results, err := s.gradeBudgets(ctx, req.UserID, asOf)
	if err != nil {
		return nil, err
	}

	forecasts := make([]budget.Forecast, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		forecasts = append(forecasts, budget.ForecastSpend(r.Status, asOf))
	}
	metrics.ReportsGenerated.WithLabelValues("forecast").Inc()
	return forecasts, nil
}

func (s *Service) asOf(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

// observe returns a stop function recording the elapsed generation time.
func (s *Service) observe(kind string) func() {
	start := time.Now()
	return func() {
		metrics.ReportDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}
}

type granGroup struct {
	budgets []core.Budget
	pos     []int
}

// gradeBudgets evaluates all budgets at asOf. Budgets are grouped by period
// granularity; the per-granularity summarize passes run concurrently and
// each group is graded against its own bucket index, so a daily and a
// monthly budget on the same category never read each other's totals.
func (s *Service) gradeBudgets(ctx context.Context, userID core.UserID, asOf time.Time) ([]budget.Result, error) {
	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	if len(budgets) == 0 {
		return nil, nil
	}

	groups := make(map[core.Granularity]*granGroup)
	for i, b := range budgets {
		grp, ok := groups[b.Period]
		if !ok {
			grp = &granGroup{}
			groups[b.Period] = grp
		}
		grp.budgets = append(grp.budgets, b)
		grp.pos = append(grp.pos, i)
	}

	// Load one transaction range wide enough for every group's bucket. A
	// weekly bucket can start before a yearly one, so the bounds come from
	// the buckets themselves.
	var from, to time.Time
	for gran := range groups {
		if !gran.IsValid() {
			continue
		}
		b := period.BucketOf(asOf, gran)
		if from.IsZero() || b.Start.Before(from) {
			from = b.Start
		}
		if end := b.End(); to.IsZero() || end.After(to) {
			to = end
		}
	}

	var (
		set          aggregate.CategorySet
		transactions []core.Transaction
	)
	if !from.IsZero() {
		set, err = ledger.CategorySetFor(ctx, s.store, userID)
		if err != nil {
			return nil, fmt.Errorf("load categories: %w", err)
		}
		transactions, err = s.store.ListTransactions(ctx, userID, from, to)
		if err != nil {
			return nil, fmt.Errorf("load transactions: %w", err)
		}
	}

	var (
		g       errgroup.Group
		indexes = make([]struct {
			gran core.Granularity
			idx  map[aggregate.Key]aggregate.Summary
		}, 0, len(groups))
	)
	for gran := range groups {
		if !gran.IsValid() {
			continue
		}
		slot := len(indexes)
		indexes = append(indexes, struct {
			gran core.Granularity
			idx  map[aggregate.Key]aggregate.Summary
		}{gran: gran})
		g.Go(func() error {
			summaries, aerr := aggregate.Summarize(transactions, gran, set, aggregate.Options{})
			if aerr != nil {
				if !errors.Is(aerr, core.ErrUnknownCategory) {
					return aerr
				}
				s.logger.Warn("Excluding transactions with unknown categories from budget grading",
					log.FieldError, aerr)
			}
			indexes[slot].idx = aggregate.Index(summaries)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("summarize for budgets: %w", err)
	}

	byGran := make(map[core.Granularity]map[aggregate.Key]aggregate.Summary, len(indexes))
	for _, entry := range indexes {
		byGran[entry.gran] = entry.idx
	}

	results := make([]budget.Result, len(budgets))
	for gran, grp := range groups {
		rs := s.evaluator.EvaluateAll(grp.budgets, asOf, byGran[gran])
		for i, r := range rs {
			results[grp.pos[i]] = r
		}
	}
	return results, nil
}
