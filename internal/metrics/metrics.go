// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveDrafts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "booking_review_active_drafts",
			Help: "Number of review drafts currently held in memory.",
		})

	DraftEvictTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_review_draft_evict_total",
			Help: "Cumulative number of drafts evicted from the store, by reason.",
		}, []string{"reason"})

	TransitionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_review_transition_total",
			Help: "Submission state machine transitions, by target state and failure kind.",
		}, []string{"state", "failure"})

	RemoteCallSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "booking_remote_call_seconds",
			Help:    "Latency of booking-creation calls to the backend.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"})

	CatalogLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_product_load_total",
			Help: "Cumulative number of products loaded from the database.",
		})

	CatalogLoadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_product_load_errors_total",
			Help: "Cumulative number of product load errors.",
		})
)

func init() {
	prometheus.MustRegister(
		ActiveDrafts,
		DraftEvictTotal,
		TransitionTotal,
		RemoteCallSeconds,
		CatalogLoadTotal,
		CatalogLoadErrorsTotal,
	)
}
