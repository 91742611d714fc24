// Package summarizer provides text generation backends for the Curator.
// It includes adapters for OpenAI, Claude (Anthropic) and Gemini (Google) with
// circuit breaker and retry, plus an offline Echo backend for dry runs.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tech-newsletter/internal/observability/logging"
	"tech-newsletter/internal/resilience/circuitbreaker"
	"tech-newsletter/internal/resilience/retry"
	"tech-newsletter/internal/usecase/curate"
	"tech-newsletter/internal/utils/text"
)

// errEmptyResponse is returned when an API answers without any text.
var errEmptyResponse = errors.New("api returned empty response")

// Option customizes a provider.
type Option func(*engine)

// WithRetryConfig overrides the retry policy (default retry.AIAPIConfig).
func WithRetryConfig(cfg retry.Config) Option {
	return func(e *engine) { e.retryConfig = cfg }
}

// WithCircuitBreaker overrides the circuit breaker.
func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(e *engine) { e.circuitBreaker = cb }
}

// WithMetrics overrides the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(e *engine) { e.metrics = m }
}

// completeFunc performs one API call without retry or circuit breaker.
type completeFunc func(ctx context.Context, model, system, user string) (string, error)

// engine holds the reliability and observability plumbing shared by the API providers.
type engine struct {
	provider       string
	config         Config
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	metrics        MetricsRecorder
}

func newEngine(provider string, cfg Config, opts []Option) engine {
	e := engine{
		provider:       provider,
		config:         cfg,
		circuitBreaker: circuitbreaker.New(circuitbreaker.GenerationAPIConfig(provider)),
		retryConfig:    retry.AIAPIConfig(),
		metrics:        NewPrometheusMetrics(),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// generate builds the prompt and calls complete through the circuit breaker with retries.
func (e *engine) generate(ctx context.Context, p curate.Prompt, complete completeFunc) (string, error) {
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	model := p.Model
	if model == "" {
		model = e.config.Model
	}
	system, user := BuildPrompt(p)
	logger := logging.FromContext(ctx)

	logger.Debug("generation started",
		slog.String("provider", e.provider),
		slog.String("model", model),
		slog.String("kind", string(p.Kind)),
		slog.Int("input_length", text.CountRunes(p.Text)),
		slog.Int("character_limit", p.CharLimit))

	var result string
	retryErr := retry.WithBackoff(ctx, e.retryConfig, func() error {
		start := time.Now()
		out, err := circuitbreaker.Do(e.circuitBreaker, func() (string, error) {
			return complete(ctx, model, system, user)
		})
		duration := time.Since(start)

		if err != nil {
			if circuitbreaker.IsRejection(err) {
				e.metrics.RecordRequest(e.provider, "rejected")
				logger.Warn("generation api circuit breaker open, request rejected",
					slog.String("service", e.circuitBreaker.Name()),
					slog.String("state", e.circuitBreaker.State().String()))
				return fmt.Errorf("%s api unavailable: %w", e.provider, err)
			}
			e.metrics.RecordRequest(e.provider, "failure")
			logger.Warn("generation failed",
				slog.String("provider", e.provider),
				slog.Duration("duration", duration),
				slog.Any("error", err))
			return err
		}

		result = strings.TrimSpace(out)
		e.metrics.RecordRequest(e.provider, "success")
		e.metrics.RecordDuration(e.provider, duration)
		e.record(ctx, result, p.CharLimit, duration)
		return nil
	})
	if retryErr != nil {
		return "", fmt.Errorf("%s generate: %w", e.provider, retryErr)
	}
	return result, nil
}

// record logs and measures output length against the requested limit.
// The limit is soft: longer output is reported, not rejected.
func (e *engine) record(ctx context.Context, out string, limit int, duration time.Duration) {
	length := text.CountRunes(out)
	withinLimit := limit <= 0 || length <= limit

	e.metrics.RecordLength(e.provider, length)
	logger := logging.FromContext(ctx)
	logger.Debug("generation completed",
		slog.String("provider", e.provider),
		slog.Int("output_length", length),
		slog.Bool("within_limit", withinLimit),
		slog.Duration("duration", duration))

	if !withinLimit {
		e.metrics.RecordLimitExceeded(e.provider)
		logger.Warn("generated text exceeds character limit",
			slog.String("provider", e.provider),
			slog.Int("output_length", length),
			slog.Int("limit", limit),
			slog.Int("excess", length-limit))
	}
}

// statusError converts an API status code into a retry.HTTPError so that
// 5xx, 429 and 408 responses are retried and other statuses are not.
func statusError(provider string, code int, msg string) error {
	return fmt.Errorf("%s api error: %w", provider, &retry.HTTPError{StatusCode: code, Message: msg})
}
