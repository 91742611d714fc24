package config

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConfigMetrics(reg, "test")

	m.RecordFallback("cron_schedule")
	m.RecordFallback("cron_schedule")
	m.SetFallbackActive(true)
	m.RecordLoadTimestamp()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("cron_schedule")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ValidationErrorsTotal.WithLabelValues("cron_schedule")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackActive))
	assert.Greater(t, testutil.ToFloat64(m.LoadTimestamp), 0.0)

	m.SetFallbackActive(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FallbackActive))

	count, err := testutil.GatherAndCount(reg,
		"test_config_load_timestamp",
		"test_config_validation_errors_total",
		"test_config_fallbacks_total",
		"test_config_fallback_active")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestConfigMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewConfigMetrics(prometheus.NewRegistry(), "worker")
		NewConfigMetrics(prometheus.NewRegistry(), "worker")
	})
}
