// Package ratelimit admits or rejects requests per key with a fixed-window
// counter. The window resets lazily on the request's own timestamp, so the
// limiter stays correct across idle stretches without any background work;
// the sweeper below only evicts memory for keys whose window has expired.
//
// Fixed windows trade precision for simplicity: a burst straddling a window
// boundary can pass up to 2L requests in just under 2W. That imprecision is
// accepted and documented here rather than hidden.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"tally/internal/core"
	"tally/internal/metrics"
)

// Config holds limiter parameters: at most Limit admits per Window per key.
// CleanupInterval drives the stale-key sweeper; zero or negative disables it.
type Config struct {
	Limit           int
	Window          time.Duration
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Limit:           60,
		Window:          time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

func (c Config) Validate() error {
	if c.Limit <= 0 {
		return fmt.Errorf("rate limiter: %w: limit %d, must be positive", core.ErrInvalidConfiguration, c.Limit)
	}
	if c.Window <= 0 {
		return fmt.Errorf("rate limiter: %w: window %s, must be positive", core.ErrInvalidConfiguration, c.Window)
	}
	return nil
}

// Decision is the outcome of one admission check. RetryAfter is set only on
// rejection: the time left until the key's current window ends.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Err converts a rejection into the taxonomy error; nil when allowed.
func (d Decision) Err(key string) error {
	if d.Allowed {
		return nil
	}
	return &core.RateLimitError{Key: key, RetryAfter: d.RetryAfter}
}

// Limiter owns admission control over an injected store. Pure computation
// components never touch it; it sits orthogonally in front of request paths.
type Limiter struct {
	store        Store
	limit        int
	window       time.Duration
	cleanupEvery time.Duration
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

// NewLimiter validates the configuration up front; invalid limits or
// windows fail here, never during Admit. A nil store gets a fresh
// ShardedStore so callers that do not share state across limiters need not
// build one.
func NewLimiter(cfg Config, store Store) (*Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		store = NewShardedStore(0)
	}

	l := &Limiter{
		store:        store,
		limit:        cfg.Limit,
		window:       cfg.Window,
		cleanupEvery: cfg.CleanupInterval,
		stopCleanup:  make(chan struct{}),
	}
	if l.cleanupEvery > 0 {
		go l.startCleanup()
	}
	return l, nil
}

// Admit applies the fixed-window check for key at the request's timestamp:
//
//  1. look up or lazily create the key's state
//  2. if now falls outside the current window, reset count and move the
//     window start to now
//  3. count < limit: increment and admit
//  4. otherwise reject with retry_after = windowStart + window − now
//
// The whole sequence runs inside the store's per-key critical section, so
// two concurrent calls can never both take the last slot.
func (l *Limiter) Admit(key string, now time.Time) Decision {
	var d Decision
	l.store.Update(key, func(e *Entry) {
		if now.Before(e.WindowStart) || now.Sub(e.WindowStart) >= l.window {
			e.WindowStart = now
			e.Count = 0
		}
		if e.Count < l.limit {
			e.Count++
			d = Decision{Allowed: true, Remaining: l.limit - e.Count}
			return
		}
		d = Decision{RetryAfter: e.WindowStart.Add(l.window).Sub(now)}
	})

	if d.Allowed {
		metrics.RateLimitDecisions.WithLabelValues("admit").Inc()
	} else {
		metrics.RateLimitDecisions.WithLabelValues("reject").Inc()
	}
	return d
}

// ActiveKeys returns the number of tracked keys.
func (l *Limiter) ActiveKeys() int {
	return l.store.Len()
}

// Stop shuts down the sweeper goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.shutdownOnce.Do(func() {
		close(l.stopCleanup)
	})
}

func (l *Limiter) startCleanup() {
	ticker := time.NewTicker(l.cleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evictExpired()
		case <-l.stopCleanup:
			return
		}
	}
}

// evictExpired drops keys whose window has fully elapsed. Those entries
// would be reset on their next Admit anyway, so removal never changes an
// admission outcome.
func (l *Limiter) evictExpired() {
	now := time.Now()
	l.store.Purge(func(e Entry) bool {
		return now.Sub(e.WindowStart) > l.window
	})
}
