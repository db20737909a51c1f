// Package metrics holds the Prometheus collectors of the reservations service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LockAcquireTotal counts acquisitions by outcome
	// (acquired, timeout, canceled, error).
	LockAcquireTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservations_lock_acquire_total",
			Help: "Total lock acquisitions by outcome",
		},
		[]string{"status"},
	)

	// LockAcquireDuration tracks time spent waiting in Acquire, retries included.
	LockAcquireDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reservations_lock_acquire_duration_seconds",
			Help:    "Time spent acquiring a lock",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
	)

	// LockReleaseTotal counts releases by result (released, not_held, error).
	LockReleaseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservations_lock_release_total",
			Help: "Total lock releases by result",
		},
		[]string{"result"},
	)

	// LeaseRenewTotal counts watchdog renewals by status (success, lost, error).
	LeaseRenewTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservations_lease_renew_total",
			Help: "Total watchdog lease renewals by status",
		},
		[]string{"status"},
	)

	// LocksHeld is the number of handles currently held by this process.
	LocksHeld = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reservations_locks_held",
			Help: "Current number of locks held by this process",
		},
	)

	// ClaimsProcessed counts reservation claims by kind and outcome.
	ClaimsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservations_claims_total",
			Help: "Total reservation claims by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
)
