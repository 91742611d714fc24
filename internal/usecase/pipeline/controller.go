// Package pipeline sequences the Collector, Curator and Dispatcher stages of one
// newsletter run and reports the outcome as an entity.RunResult.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"tech-newsletter/internal/domain/entity"
	"tech-newsletter/internal/observability/logging"
	"tech-newsletter/internal/observability/metrics"
	"tech-newsletter/internal/observability/tracing"
	"tech-newsletter/internal/usecase/curate"
)

// Collector produces the ranked selection for a run.
type Collector interface {
	Collect(ctx context.Context, feedURL string, fetchLimit, selectionLimit int) (entity.SelectionSet, error)
}

// Curator turns a selection into a rendered newsletter.
type Curator interface {
	Curate(ctx context.Context, selection entity.SelectionSet, language string, model curate.ModelConfig) (*entity.Newsletter, error)
}

// Dispatcher delivers a rendered newsletter.
type Dispatcher interface {
	Dispatch(ctx context.Context, req entity.DispatchRequest) (entity.RunResult, error)
}

// RunRequest carries the inputs of one run.
type RunRequest struct {
	FeedURL        string
	FetchLimit     int
	SelectionLimit int
	Language       string
	Model          string
	// CharLimit bounds each generated item summary in runes. Zero uses the curator default.
	CharLimit int
	Recipient string
}

// Controller runs the pipeline state machine:
//
//	idle -> collecting -> curating -> dispatching -> done
//
// Any stage failure moves the run to failed. Stages run to completion once started;
// cancellation and the run deadline are honored between stages.
type Controller struct {
	collector  Collector
	curator    Curator
	dispatcher Dispatcher

	tracer trace.Tracer
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Controller.
type Option func(*Controller)

// WithTracer sets the tracer used for run and stage spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Controller) { c.tracer = t }
}

// WithLogger sets the base logger. Run records carry a run_id attribute.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithRunIDGenerator overrides run ID generation.
func WithRunIDGenerator(f func() string) Option {
	return func(c *Controller) { c.newID = f }
}

// WithClock overrides the clock used for run timing.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController wires the three stages into a Controller.
func NewController(collector Collector, curator Curator, dispatcher Dispatcher, opts ...Option) *Controller {
	c := &Controller{
		collector:  collector,
		curator:    curator,
		dispatcher: dispatcher,
		tracer:     tracing.GetTracer(),
		logger:     slog.Default(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// run tracks the state of a single execution.
type run struct {
	id     string
	state  entity.State
	stage  entity.Stage
	logger *slog.Logger
}

func (r *run) transition(to entity.State) {
	r.logger.Debug("pipeline state transition",
		slog.String("from", string(r.state)),
		slog.String("to", string(to)))
	r.state = to
}

// Run executes one pipeline run and always returns a result; it never panics on stage failure.
// The result's StageReached is the furthest stage that completed: none when collection fails,
// collected when curation fails, curated when dispatch fails.
func (c *Controller) Run(ctx context.Context, req RunRequest) entity.RunResult {
	started := c.now()
	runID := c.newID()

	ctx = logging.ContextWithRunID(ctx, runID)
	logger := logging.WithRunID(ctx, c.logger)
	ctx = logging.WithLogger(ctx, logger)

	ctx, span := c.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(tracing.StageAttributes("run", runID)...))

	r := &run{id: runID, state: entity.StateIdle, stage: entity.StageNone, logger: logger}
	logger.Info("pipeline run started",
		slog.String("feed_url", req.FeedURL),
		slog.String("language", req.Language),
		slog.String("model", req.Model))

	result := c.execute(ctx, req, r)
	result.RunID = runID
	result.StartedAt = started
	result.Duration = c.now().Sub(started)
	result.StageReached = r.stage
	result.FinalState = r.state
	result.Kind = entity.KindOf(result.Err)

	metrics.RecordRun(result)
	tracing.EndSpan(span, result.Err, string(result.Kind))

	if result.Success {
		logger.Info("pipeline run succeeded",
			slog.String("stage_reached", string(result.StageReached)),
			slog.String("subject", result.Subject),
			slog.Int("attempts", result.Attempts),
			slog.Duration("duration", result.Duration))
	} else {
		logger.Error("pipeline run failed",
			slog.String("stage_reached", string(result.StageReached)),
			slog.String("failed_in", string(result.FailedIn)),
			slog.String("error_kind", string(result.Kind)),
			slog.Any("error", result.Err),
			slog.Duration("duration", result.Duration))
	}
	return result
}

func (c *Controller) execute(ctx context.Context, req RunRequest, r *run) entity.RunResult {
	// Stages run under a context that keeps the run's values but not its deadline,
	// so a started stage is never interrupted.
	stageCtx := context.WithoutCancel(ctx)

	// Collecting
	if err := c.checkpoint(ctx, r); err != nil {
		return c.fail(r, err)
	}
	r.transition(entity.StateCollecting)
	var selection entity.SelectionSet
	err := c.stage(stageCtx, r, "collect", entity.ErrFetch, func(ctx context.Context) error {
		var err error
		selection, err = c.collector.Collect(ctx, req.FeedURL, req.FetchLimit, req.SelectionLimit)
		return err
	})
	if err != nil {
		return c.fail(r, err)
	}
	r.stage = entity.StageCollected

	// Curating
	if err := c.checkpoint(ctx, r); err != nil {
		return c.fail(r, err)
	}
	r.transition(entity.StateCurating)
	var newsletter *entity.Newsletter
	err = c.stage(stageCtx, r, "curate", entity.ErrCuration, func(ctx context.Context) error {
		var err error
		newsletter, err = c.curator.Curate(ctx, selection, req.Language, curate.ModelConfig{
			Model:     req.Model,
			CharLimit: req.CharLimit,
		})
		if err == nil && newsletter == nil {
			err = fmt.Errorf("%w: curator returned no newsletter", entity.ErrInvariant)
		}
		return err
	})
	if err != nil {
		return c.fail(r, err)
	}
	r.stage = entity.StageCurated

	// Dispatching
	if err := c.checkpoint(ctx, r); err != nil {
		return c.fail(r, err)
	}
	r.transition(entity.StateDispatching)
	var dispatched entity.RunResult
	err = c.stage(stageCtx, r, "dispatch", entity.ErrDispatch, func(ctx context.Context) error {
		var err error
		dispatched, err = c.dispatcher.Dispatch(ctx, entity.DispatchRequest{
			Newsletter: newsletter,
			Recipient:  req.Recipient,
		})
		return err
	})
	if err != nil {
		res := c.fail(r, err)
		res.Attempts = dispatched.Attempts
		res.Subject = newsletter.Title
		return res
	}
	r.stage = entity.StageDispatched
	r.transition(entity.StateDone)

	return entity.RunResult{
		Success:  true,
		Attempts: dispatched.Attempts,
		Subject:  newsletter.Title,
	}
}

// stage runs fn inside a span and records its duration.
// Errors outside the pipeline taxonomy are wrapped with fallback so every failure is classified.
func (c *Controller) stage(ctx context.Context, r *run, name string, fallback error, fn func(context.Context) error) error {
	ctx, span := c.tracer.Start(ctx, "pipeline."+name,
		trace.WithAttributes(tracing.StageAttributes(name, r.id)...))
	start := c.now()

	err := fn(ctx)
	if err != nil && entity.KindOf(err) == entity.KindUnknown {
		err = fmt.Errorf("%w: %w", fallback, err)
	}

	metrics.RecordStage(name, c.now().Sub(start), err)
	tracing.EndSpan(span, err, string(entity.KindOf(err)))
	return err
}

// checkpoint reports ErrRunAborted once the run context is done.
func (c *Controller) checkpoint(ctx context.Context, r *run) error {
	if err := ctx.Err(); err != nil {
		reason := "canceled"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "deadline exceeded"
		}
		r.logger.Warn("pipeline run aborted between stages",
			slog.String("state", string(r.state)),
			slog.String("reason", reason))
		return fmt.Errorf("%w: %s after stage %s: %w", entity.ErrRunAborted, reason, r.stage, err)
	}
	return nil
}

func (c *Controller) fail(r *run, err error) entity.RunResult {
	failedIn := r.state
	r.transition(entity.StateFailed)
	return entity.RunResult{FailedIn: failedIn, Err: err}
}
