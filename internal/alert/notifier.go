package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tally/internal/budget"
	"tally/internal/cache"
	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/report"
)

// Publisher is the outbound side of the alert pipeline.
type Publisher interface {
	PublishBudgetAlert(ctx context.Context, msg *BudgetAlertMessage) error
}

// NotifierConfig controls alert deduplication. A budget that stays near or
// over its limit is announced once per (budget, bucket, state) until the
// dedupe entry expires.
type NotifierConfig struct {
	DedupeSize int
	DedupeTTL  time.Duration
}

func DefaultNotifierConfig() NotifierConfig {
	return NotifierConfig{
		DedupeSize: 256,
		DedupeTTL:  24 * time.Hour,
	}
}

// Notifier grades budgets on a schedule and publishes an alert for each
// one that is near or over its limit.
type Notifier struct {
	reports   *report.Service
	publisher Publisher
	seen      *cache.LRUCache[struct{}]
	logger    *log.Logger
	now       func() time.Time
}

func NewNotifier(reports *report.Service, publisher Publisher, cfg NotifierConfig, logger *log.Logger) (*Notifier, error) {
	if reports == nil {
		return nil, fmt.Errorf("alert notifier: %w: nil report service", core.ErrInvalidConfiguration)
	}
	if publisher == nil {
		return nil, fmt.Errorf("alert notifier: %w: nil publisher", core.ErrInvalidConfiguration)
	}
	if cfg.DedupeSize < 1 || cfg.DedupeTTL <= 0 {
		return nil, fmt.Errorf("alert notifier: %w: dedupe size %d and ttl %v must be positive",
			core.ErrInvalidConfiguration, cfg.DedupeSize, cfg.DedupeTTL)
	}
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentAlert})
	}

	return &Notifier{
		reports:   reports,
		publisher: publisher,
		seen:      cache.NewLRUCache[struct{}](cfg.DedupeSize, cfg.DedupeTTL),
		logger:    logger,
		now:       time.Now,
	}, nil
}

// DedupeCache exposes the dedupe cache so a cleanup manager can sweep it.
func (n *Notifier) DedupeCache() *cache.LRUCache[struct{}] {
	return n.seen
}

// CheckOnce grades every budget for the user and publishes alerts for the
// near and exceeded ones not already announced. It returns the number of
// alerts published; publish failures are joined into the returned error
// and do not stop the remaining alerts.
func (n *Notifier) CheckOnce(ctx context.Context, userID core.UserID) (int, error) {
	results, err := n.reports.BudgetStatuses(ctx, report.BudgetRequest{
		Caller: "alertd",
		UserID: userID,
		AsOf:   n.now(),
	})
	if err != nil {
		return 0, fmt.Errorf("grade budgets: %w", err)
	}

	var (
		published int
		errs      []error
	)
	for _, r := range results {
		if r.Err != nil {
			n.logger.Warn("Skipping unevaluable budget", log.FieldError, r.Err)
			continue
		}
		st := r.Status
		if st.State != budget.Near && st.State != budget.Exceeded {
			continue
		}

		key := fmt.Sprintf("%d:%s:%s", st.BudgetID, st.Bucket.Label(), st.State)
		if _, ok := n.seen.Get(key); ok {
			continue
		}

		msg := NewBudgetAlertMessage(userID, st)
		if err := n.publisher.PublishBudgetAlert(ctx, msg); err != nil {
			n.logger.Error("Failed to publish budget alert",
				log.FieldError, err,
				log.FieldBudgetID, st.BudgetID,
				log.FieldState, string(st.State))
			errs = append(errs, fmt.Errorf("budget %d: %w", st.BudgetID, err))
			continue
		}

		n.seen.Set(key, struct{}{})
		published++
		n.logger.Info("Budget alert published",
			log.FieldBudgetID, st.BudgetID,
			log.FieldState, string(st.State),
			log.FieldBucket, st.Bucket.Label(),
			log.FieldAmountCents, st.ActualCents,
			"limit_cents", st.LimitCents)
	}

	return published, errors.Join(errs...)
}

// Run checks budgets every interval until ctx is cancelled. The first
// check runs immediately so a fresh daemon does not sit silent for a full
// interval.
func (n *Notifier) Run(ctx context.Context, userID core.UserID, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("alert notifier: %w: interval %v must be positive",
			core.ErrInvalidConfiguration, interval)
	}

	check := func() {
		count, err := n.CheckOnce(ctx, userID)
		if err != nil {
			n.logger.Error("Budget check failed", log.FieldError, err, log.FieldCount, count)
			return
		}
		if count > 0 {
			n.logger.Info("Budget check complete", log.FieldCount, count)
		}
	}

	check()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			check()
		}
	}
}
