// Package metrics provides centralized Prometheus metrics for the newsletter pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics track whole runs and the stages inside them
var (
	// PipelineRunsTotal counts finished runs by furthest stage reached, outcome and error kind
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_runs_total",
			Help: "Total number of newsletter pipeline runs",
		},
		[]string{"stage_reached", "outcome", "error_kind"},
	)

	// PipelineRunDuration measures end-to-end run duration in seconds
	PipelineRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "newsletter_run_duration_seconds",
			Help:    "Newsletter pipeline run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// StageDuration measures each stage's duration in seconds
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsletter_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"stage", "status"},
	)

	// LastSuccessfulDispatch records the Unix time of the last delivered newsletter
	LastSuccessfulDispatch = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsletter_last_successful_dispatch_timestamp_seconds",
			Help: "Unix timestamp of the last successfully dispatched newsletter",
		},
	)
)

// Stage metrics track what each stage consumed and produced
var (
	// FeedEntriesFetchedTotal counts feed entries returned by the feed fetcher
	FeedEntriesFetchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsletter_feed_entries_fetched_total",
			Help: "Total number of feed entries fetched",
		},
	)

	// ItemsSelected tracks the size of the most recent SelectionSet
	ItemsSelected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsletter_items_selected",
			Help: "Number of news items selected in the most recent run",
		},
	)

	// DispatchAttemptsTotal counts transport attempts by result
	DispatchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_dispatch_attempts_total",
			Help: "Total number of email transport attempts",
		},
		[]string{"result"}, // result: success, failure
	)

	// ContentFetchAttemptsTotal counts article content fetch attempts by result
	ContentFetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_content_fetch_attempts_total",
			Help: "Total number of article content fetch attempts",
		},
		[]string{"result"}, // result: success, failure, skipped
	)

	// ContentFetchDuration measures time to fetch article content
	ContentFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "newsletter_content_fetch_duration_seconds",
			Help:    "Time taken to fetch article content",
			Buckets: []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8},
		},
	)

	// CircuitBreakerState is the current state of each named circuit:
	// 0 closed, 1 half-open, 2 open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "newsletter_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"circuit"},
	)
)
