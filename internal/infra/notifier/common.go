package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"tech-newsletter/internal/domain/entity"
	"tech-newsletter/internal/observability/logging"
	"tech-newsletter/internal/utils/text"

	"github.com/google/uuid"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultRetryDelay = 5 * time.Second
	maxAttempts       = 2

	// maxBodyLen caps response bodies kept in error messages.
	maxBodyLen = 512
)

// RateLimitError represents a 429 rate limit error from a webhook service.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError represents a 4xx client error from a webhook service.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError represents a 5xx server error from a webhook service.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

func is429Error(err error) (*RateLimitError, bool) {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return rateLimitErr, true
	}
	return nil, false
}

// isRetryableError reports whether a webhook failure may succeed on retry.
// Client errors are final; rate limits are handled by is429Error.
func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return false
	}
	var rateLimitErr *RateLimitError
	return !errors.As(err, &rateLimitErr)
}

// webhook is the transport shared by the Slack and Discord notifiers.
type webhook struct {
	service     string
	url         string
	httpClient  *http.Client
	rateLimiter *RateLimiter
	retryDelay  time.Duration
}

func newWebhook(service, url string, timeout, retryDelay time.Duration, limiter *RateLimiter) *webhook {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	return &webhook{
		service:     service,
		url:         url,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: limiter,
		retryDelay:  retryDelay,
	}
}

// post sends one JSON payload and maps the response status onto the
// package's error types.
func (w *webhook) post(ctx context.Context, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyLen))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    w.service + " rate limit exceeded",
			RetryAfter: extractRetryAfter(resp, body, w.retryDelay),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s API client error: %s", w.service, string(body)),
		}
	case resp.StatusCode >= 500:
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s API server error: %s", w.service, string(body)),
		}
	}
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
}

// extractRetryAfter reads retry_after from a JSON body (Discord) or the
// Retry-After header in seconds, falling back to def.
func extractRetryAfter(resp *http.Response, body []byte, def time.Duration) time.Duration {
	var hint struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &hint); err == nil && hint.RetryAfter > 0 {
		return time.Duration(hint.RetryAfter * float64(time.Second))
	}
	if h := resp.Header.Get("Retry-After"); h != "" {
		if seconds, err := strconv.Atoi(h); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return def
}

// deliver rate-limits and posts payload, retrying server errors with a
// linear delay and rate limits after the advertised wait.
func (w *webhook) deliver(ctx context.Context, runID string, payload any) error {
	logger := logging.FromContext(ctx).With(
		slog.String("notifier", w.service),
		slog.String("request_id", uuid.NewString()),
		slog.String("run_id", runID),
	)

	if err := w.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := w.post(ctx, payload)
		if err == nil {
			logger.Info("notification sent", slog.Int("attempt", attempt))
			return nil
		}
		lastErr = err

		var wait time.Duration
		if rateLimitErr, ok := is429Error(err); ok {
			wait = rateLimitErr.RetryAfter
			logger.Warn("webhook rate limit hit, backing off",
				slog.Duration("retry_after", wait),
				slog.Int("attempt", attempt))
		} else if !isRetryableError(err) {
			logger.Error("notification failed with non-retryable error",
				slog.Any("error", err),
				slog.Int("attempt", attempt))
			return err
		} else {
			wait = w.retryDelay * time.Duration(attempt)
			logger.Warn("webhook request failed, retrying",
				slog.Any("error", err),
				slog.Int("attempt", attempt),
				slog.Duration("delay", wait))
		}

		if attempt == maxAttempts {
			break
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return fmt.Errorf("context canceled during retry backoff: %w", ctx.Err())
		}
	}

	logger.Error("notification failed after all retries",
		slog.Any("error", lastErr),
		slog.Int("max_attempts", maxAttempts))
	return fmt.Errorf("%s notification failed after %d attempts: %w", w.service, maxAttempts, lastErr)
}

// headline is the one-line summary used as the notification title.
func headline(r entity.RunResult) string {
	if r.Success {
		return "Newsletter dispatched: " + r.Subject
	}
	return fmt.Sprintf("Newsletter run failed (%s)", r.Kind)
}

// details lists the run facts shown beneath the headline.
func details(r entity.RunResult, limit int) []string {
	lines := []string{
		"Run: " + r.RunID,
		"Stage reached: " + string(r.StageReached),
		"Duration: " + r.Duration.Round(time.Millisecond).String(),
	}
	if r.Attempts > 0 {
		lines = append(lines, "Attempts: "+strconv.Itoa(r.Attempts))
	}
	if !r.Success {
		lines = append(lines, "Failed in: "+string(r.FailedIn))
		if r.Err != nil {
			lines = append(lines, "Error: "+text.Truncate(r.Err.Error(), limit, "..."))
		}
	}
	return lines
}
