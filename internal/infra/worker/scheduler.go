package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"tech-newsletter/internal/pkg/config"
)

// Scheduler triggers a Job on a cron schedule. Overlapping triggers are
// dropped while a run is still active.
type Scheduler struct {
	cron   *cron.Cron
	run    cron.Job
	logger *slog.Logger

	// manual tracks RunNow calls, which cron's own job tracking does not see.
	manual sync.WaitGroup
}

// NewScheduler registers job on cfg's schedule in cfg's timezone. Runs use
// ctx as their parent context.
func NewScheduler(ctx context.Context, cfg *WorkerConfig, job *Job, metrics *WorkerMetrics, logger *slog.Logger) (*Scheduler, error) {
	schedule, err := config.ParseCronSchedule(cfg.CronSchedule)
	if err != nil {
		return nil, err
	}

	cl := cronLogger{logger: logger, metrics: metrics}
	c := cron.New(cron.WithLocation(cfg.Location()), cron.WithLogger(cl))

	wrapped := cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).
		Then(cron.FuncJob(func() { job.Run(ctx) }))
	c.Schedule(schedule, wrapped)

	return &Scheduler{cron: c, run: wrapped, logger: logger}, nil
}

// Start begins scheduling in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	if next := s.NextRun(); !next.IsZero() {
		s.logger.Info("next newsletter run scheduled", slog.Time("next_run", next))
	}
}

// Stop halts scheduling and returns a context that is done once every
// active run, scheduled or started by RunNow, has finished.
func (s *Scheduler) Stop() context.Context {
	cronDone := s.cron.Stop()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-cronDone.Done()
		s.manual.Wait()
		cancel()
	}()
	return ctx
}

// RunNow triggers the job synchronously through the same overlap guard as
// scheduled runs.
func (s *Scheduler) RunNow() {
	s.manual.Add(1)
	defer s.manual.Done()
	s.run.Run()
}

// NextRun is the next scheduled activation, zero before Start.
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// cronLogger adapts cron's logger to slog and counts skipped ticks.
type cronLogger struct {
	logger  *slog.Logger
	metrics *WorkerMetrics
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	if msg == "skip" {
		if l.metrics != nil {
			l.metrics.RecordSkipped()
		}
		l.logger.Warn("newsletter run skipped, previous run still active")
		return
	}
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(fmt.Sprintf("cron: %s", msg), append(keysAndValues, "error", err)...)
}
