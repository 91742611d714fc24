package worker

import (
	"context"
	"log/slog"
	"time"

	"tech-newsletter/internal/domain/entity"
	"tech-newsletter/internal/infra/notifier"
	"tech-newsletter/internal/usecase/pipeline"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, req pipeline.RunRequest) entity.RunResult
}

// JobConfig wires the collaborators of a scheduled run.
type JobConfig struct {
	Request pipeline.RunRequest
	// Timeout bounds a single run. Zero means no run deadline.
	Timeout         time.Duration
	Notifier        notifier.Notifier
	NotifyOnSuccess bool
	NotifyTimeout   time.Duration
	Metrics         *WorkerMetrics
	Health          *HealthServer
	Logger          *slog.Logger
}

// Job is one scheduled newsletter run.
type Job struct {
	runner Runner
	cfg    JobConfig
}

func NewJob(runner Runner, cfg JobConfig) *Job {
	if cfg.Notifier == nil {
		cfg.Notifier = notifier.NewNoOpNotifier()
	}
	if !cfg.NotifyOnSuccess {
		cfg.Notifier = notifier.FailuresOnly{Next: cfg.Notifier}
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Job{runner: runner, cfg: cfg}
}

// Run executes the pipeline under the configured timeout, records the
// outcome and sends the alert. Alerts are sent even when ctx is canceled.
func (j *Job) Run(ctx context.Context) entity.RunResult {
	start := time.Now()
	j.recordStatus("started")

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if j.cfg.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, j.cfg.Timeout)
	}
	result := j.runner.Run(runCtx, j.cfg.Request)
	cancel()

	if m := j.cfg.Metrics; m != nil {
		m.RecordJobDuration(time.Since(start).Seconds())
		if result.Success {
			m.RecordLastSuccess()
		}
	}
	if result.Success {
		j.recordStatus("success")
	} else {
		j.recordStatus("failure")
	}
	if j.cfg.Health != nil {
		j.cfg.Health.RecordRun(result)
	}

	j.cfg.Logger.Info("scheduled run finished",
		slog.String("run_id", result.RunID),
		slog.Bool("success", result.Success),
		slog.String("stage_reached", string(result.StageReached)),
		slog.String("error_kind", string(result.Kind)),
		slog.Duration("duration", time.Since(start)))

	j.notify(ctx, result)
	return result
}

func (j *Job) notify(ctx context.Context, result entity.RunResult) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), j.cfg.NotifyTimeout)
	defer cancel()

	if err := j.cfg.Notifier.NotifyRun(nctx, result); err != nil {
		if j.cfg.Metrics != nil {
			j.cfg.Metrics.RecordNotificationFailure()
		}
		j.cfg.Logger.Warn("run notification failed",
			slog.String("run_id", result.RunID),
			slog.Any("error", err))
	}
}

func (j *Job) recordStatus(status string) {
	if j.cfg.Metrics != nil {
		j.cfg.Metrics.RecordJobRun(status)
	}
}
