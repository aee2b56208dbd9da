// Package metrics exposes the Prometheus collectors shared across
// components. Collectors are registered on the default registry at init;
// binaries that want them scraped mount promhttp.Handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RateLimitDecisions counts admission outcomes ("admit" or "reject").
	// Keys are deliberately not a label: their cardinality is unbounded.
	RateLimitDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tally",
		Subsystem: "ratelimit",
		Name:      "decisions_total",
		Help:      "Admission decisions by outcome.",
	}, []string{"outcome"})

	ReportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tally",
		Subsystem: "report",
		Name:      "generated_total",
		Help:      "Reports generated, by report kind.",
	}, []string{"kind"})

	ReportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tally",
		Subsystem: "report",
		Name:      "duration_seconds",
		Help:      "Time spent assembling reports, by report kind.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})

	ReportCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tally",
		Subsystem: "report",
		Name:      "cache_requests_total",
		Help:      "Report cache lookups, by result (hit or miss).",
	}, []string{"result"})

	AlertsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tally",
		Subsystem: "alert",
		Name:      "published_total",
		Help:      "Budget alerts published, by budget state.",
	}, []string{"state"})

	ImportedTransactions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tally",
		Subsystem: "statement",
		Name:      "imported_transactions_total",
		Help:      "Transactions ingested from bank statements.",
	})
)
