package worker

import (
	"tech-newsletter/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics exposes configuration and scheduled job metrics:
//   - worker_config_* (see config.ConfigMetrics)
//   - worker_cron_job_runs_total{status}: started, success, failure
//   - worker_cron_job_duration_seconds
//   - worker_cron_job_last_success_timestamp
//   - worker_cron_job_skipped_total: ticks dropped while a run was active
//   - worker_notifications_failed_total
type WorkerMetrics struct {
	*config.ConfigMetrics

	CronJobRunsTotal            *prometheus.CounterVec
	CronJobDurationSeconds      prometheus.Histogram
	CronJobLastSuccessTimestamp prometheus.Gauge
	CronJobSkippedTotal         prometheus.Counter
	NotificationsFailedTotal    prometheus.Counter
}

// NewWorkerMetrics registers the worker metrics with reg, or with the
// default registerer when reg is nil.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics(reg, "worker"),

		CronJobRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_runs_total",
			Help: "Total number of scheduled newsletter runs by status",
		}, []string{"status"}),

		CronJobDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_cron_job_duration_seconds",
			Help:    "Duration of scheduled newsletter runs in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 600, 1800},
		}),

		CronJobLastSuccessTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worker_cron_job_last_success_timestamp",
			Help: "Unix timestamp of the last scheduled run that dispatched a newsletter",
		}),

		CronJobSkippedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "worker_cron_job_skipped_total",
			Help: "Total number of schedule ticks skipped because a run was still active",
		}),

		NotificationsFailedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "worker_notifications_failed_total",
			Help: "Total number of run-outcome alerts that could not be delivered",
		}),
	}
}

func (m *WorkerMetrics) RecordJobRun(status string) {
	m.CronJobRunsTotal.WithLabelValues(status).Inc()
}

func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.CronJobDurationSeconds.Observe(seconds)
}

func (m *WorkerMetrics) RecordLastSuccess() {
	m.CronJobLastSuccessTimestamp.SetToCurrentTime()
}

func (m *WorkerMetrics) RecordSkipped() {
	m.CronJobSkippedTotal.Inc()
}

func (m *WorkerMetrics) RecordNotificationFailure() {
	m.NotificationsFailedTotal.Inc()
}
