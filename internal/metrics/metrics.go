// Package metrics exposes the Prometheus counters and histograms the
// Reservation Core and reconciliation sweep emit.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HoldAttempts counts every hold attempt, labeled by outcome.
	HoldAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservation_hold_attempts_total",
		Help: "Total seat hold attempts, labeled by outcome.",
	}, []string{"outcome"})

	// PurchaseAttempts counts every purchase attempt, labeled by outcome.
	PurchaseAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservation_purchase_attempts_total",
		Help: "Total purchase attempts, labeled by outcome.",
	}, []string{"outcome"})

	// RateLimitedRequests counts requests rejected by the token bucket,
	// labeled by bucket name.
	RateLimitedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservation_rate_limited_total",
		Help: "Total requests rejected by a rate limit bucket.",
	}, []string{"bucket"})

	// ReconciliationRepairs counts seats repaired by the out-of-core
	// reconciliation sweep.
	ReconciliationRepairs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservation_reconciliation_repairs_total",
		Help: "Total seats whose HSS state was replayed from the DRS by the reconciliation sweep.",
	})

	// PurchaseDuration observes end-to-end purchase latency.
	PurchaseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reservation_purchase_duration_seconds",
		Help:    "Latency of the two-phase purchase operation.",
		Buckets: prometheus.DefBuckets,
	})
)
