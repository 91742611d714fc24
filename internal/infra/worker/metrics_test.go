package worker

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerMetrics_Record(t *testing.T) {
	// Arrange
	reg := prometheus.NewRegistry()
	m := NewWorkerMetrics(reg)

	// Act
	m.RecordJobRun("started")
	m.RecordJobRun("success")
	m.RecordJobRun("success")
	m.RecordJobDuration(12.5)
	m.RecordJobDuration(40)
	m.RecordLastSuccess()
	m.RecordSkipped()
	m.RecordNotificationFailure()

	// Assert
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CronJobRunsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CronJobSkippedTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsFailedTotal))
	assert.Greater(t, testutil.ToFloat64(m.CronJobLastSuccessTimestamp), float64(0))

	var metric dto.Metric
	require.NoError(t, m.CronJobDurationSeconds.(prometheus.Metric).Write(&metric))
	assert.Equal(t, uint64(2), metric.GetHistogram().GetSampleCount())
	assert.InDelta(t, 52.5, metric.GetHistogram().GetSampleSum(), 0.001)
}

func TestNewWorkerMetrics_IsolatedRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewWorkerMetrics(prometheus.NewRegistry())
		NewWorkerMetrics(prometheus.NewRegistry())
	})
}
