package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tech-newsletter/internal/pkg/config"
)

// WorkerConfig controls the scheduled newsletter worker.
//
// Environment variables:
//   - CRON_SCHEDULE: five-field cron expression (default "0 8 * * *")
//   - WORKER_TIMEZONE: IANA timezone for the schedule (default "Asia/Seoul")
//   - WORKER_HEALTH_PORT: health server port, 1024-65535 (default 9091)
//   - METRICS_PORT: Prometheus port, 1024-65535 (default 9090)
//   - WORKER_RUN_ON_START: run once immediately after startup (default false)
//   - NOTIFY_ON_SUCCESS: alert on successful runs too (default false)
//   - NOTIFY_TIMEOUT: budget for sending alerts, 1s-2m (default 10s)
type WorkerConfig struct {
	CronSchedule    string
	Timezone        string
	HealthPort      int
	MetricsPort     int
	RunOnStart      bool
	NotifyOnSuccess bool
	NotifyTimeout   time.Duration
}

// DefaultConfig schedules one run every morning at 08:00 Seoul time.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:  "0 8 * * *",
		Timezone:      "Asia/Seoul",
		HealthPort:    9091,
		MetricsPort:   9090,
		NotifyTimeout: 10 * time.Second,
	}
}

// Validate collects every invalid field into one error.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if c.HealthPort == c.MetricsPort {
		errs = append(errs, fmt.Errorf("health port and metrics port must differ, both are %d", c.HealthPort))
	}
	if err := config.ValidatePositiveDuration(c.NotifyTimeout); err != nil {
		errs = append(errs, fmt.Errorf("notify timeout: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// Location returns the schedule timezone, or UTC when it cannot be loaded.
func (c *WorkerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadConfigFromEnv loads the worker configuration, falling back to the
// default for every invalid value. Fallbacks are logged and counted; the
// returned configuration is always usable.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) *WorkerConfig {
	cfg := DefaultConfig()
	fallbackApplied := false

	note := func(field string, warnings []string, applied bool) {
		if !applied {
			return
		}
		fallbackApplied = true
		metrics.RecordFallback(field)
		for _, w := range warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", w))
		}
	}

	schedule := config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = schedule.Value
	note("cron_schedule", schedule.Warnings, schedule.FallbackApplied)

	tz := config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = tz.Value
	note("timezone", tz.Warnings, tz.FallbackApplied)

	portRange := func(v int) error { return config.ValidateIntRange(v, 1024, 65535) }

	health := config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, portRange)
	cfg.HealthPort = health.Value
	note("health_port", health.Warnings, health.FallbackApplied)

	metricsPort := config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, portRange)
	cfg.MetricsPort = metricsPort.Value
	note("metrics_port", metricsPort.Warnings, metricsPort.FallbackApplied)

	runOnStart := config.LoadEnvBool("WORKER_RUN_ON_START", cfg.RunOnStart)
	cfg.RunOnStart = runOnStart.Value
	note("run_on_start", runOnStart.Warnings, runOnStart.FallbackApplied)

	onSuccess := config.LoadEnvBool("NOTIFY_ON_SUCCESS", cfg.NotifyOnSuccess)
	cfg.NotifyOnSuccess = onSuccess.Value
	note("notify_on_success", onSuccess.Warnings, onSuccess.FallbackApplied)

	notifyTimeout := config.LoadEnvDuration("NOTIFY_TIMEOUT", cfg.NotifyTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Second, 2*time.Minute)
	})
	cfg.NotifyTimeout = notifyTimeout.Value
	note("notify_timeout", notifyTimeout.Warnings, notifyTimeout.FallbackApplied)

	metrics.SetFallbackActive(fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg
}
