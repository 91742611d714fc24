package summarizer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRecorder records text generation metrics per provider.
// Tests inject a fake to observe calls without touching the Prometheus registry.
type MetricsRecorder interface {
	// RecordRequest counts one API call with status "success", "failure" or "rejected".
	RecordRequest(provider, status string)

	// RecordDuration records the latency of a successful call.
	RecordDuration(provider string, duration time.Duration)

	// RecordLength records the length of generated text in runes.
	RecordLength(provider string, length int)

	// RecordLimitExceeded counts outputs longer than the requested character limit.
	RecordLimitExceeded(provider string)
}

var (
	generationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_generation_requests_total",
			Help: "Text generation API calls by provider and status",
		},
		[]string{"provider", "status"},
	)

	generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsletter_generation_duration_seconds",
			Help:    "Latency of successful text generation API calls",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"provider"},
	)

	generationLength = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsletter_generation_length_characters",
			Help:    "Distribution of generated text lengths in characters (Unicode runes)",
			Buckets: []float64{50, 100, 200, 300, 400, 600, 900, 1500},
		},
		[]string{"provider"},
	)

	generationLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_generation_limit_exceeded_total",
			Help: "Generated texts exceeding the requested character limit",
		},
		[]string{"provider"},
	)
)

// PrometheusMetrics implements MetricsRecorder with the package's Prometheus collectors.
type PrometheusMetrics struct{}

// NewPrometheusMetrics returns the Prometheus-backed recorder.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{}
}

func (PrometheusMetrics) RecordRequest(provider, status string) {
	generationRequestsTotal.WithLabelValues(provider, status).Inc()
}

func (PrometheusMetrics) RecordDuration(provider string, duration time.Duration) {
	generationDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (PrometheusMetrics) RecordLength(provider string, length int) {
	generationLength.WithLabelValues(provider).Observe(float64(length))
}

func (PrometheusMetrics) RecordLimitExceeded(provider string) {
	generationLimitExceeded.WithLabelValues(provider).Inc()
}
