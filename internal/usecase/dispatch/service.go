// Package dispatch implements the Dispatcher stage: it validates the recipient and
// delivers the rendered newsletter through an email transport with bounded retries.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tech-newsletter/internal/domain/entity"
	"tech-newsletter/internal/observability/logging"
	"tech-newsletter/internal/observability/metrics"
	"tech-newsletter/internal/resilience/retry"
)

// Message is a single HTML email with a plain text alternative.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

// Transport delivers one message. Implementations return an error wrapping
// entity.ErrAuthentication when the server rejects the sender credentials.
type Transport interface {
	Send(ctx context.Context, msg *Message) error
}

// Config holds the delivery policy.
type Config struct {
	// From is the sender address placed in the message header.
	From string
	// MaxAttempts bounds transport attempts, including the first one.
	MaxAttempts int
	// Backoff is the linear backoff step: attempt n+1 starts n×Backoff after attempt n fails.
	Backoff time.Duration
}

// DefaultConfig returns three attempts with a two second linear backoff step.
func DefaultConfig(from string) Config {
	return Config{From: from, MaxAttempts: 3, Backoff: 2 * time.Second}
}

// Service provides the Dispatcher stage.
type Service struct {
	transport Transport
	cfg       Config
}

// NewService creates a Dispatcher sending through transport.
func NewService(transport Transport, cfg Config) *Service {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Service{transport: transport, cfg: cfg}
}

// Dispatch validates the recipient, then sends the newsletter.
// An invalid recipient fails before any transport call. Authentication failures
// are returned after the first attempt; other transport failures are retried and
// surface as entity.ErrDispatch once the attempts are used up.
func (s *Service) Dispatch(ctx context.Context, req entity.DispatchRequest) (entity.RunResult, error) {
	fail := func(attempts int, err error) (entity.RunResult, error) {
		return entity.RunResult{
			StageReached: entity.StageCurated,
			Kind:         entity.KindOf(err),
			Err:          err,
			Attempts:     attempts,
		}, err
	}

	if err := entity.ValidateEmail(req.Recipient); err != nil {
		return fail(0, err)
	}
	if req.Newsletter == nil {
		return fail(0, fmt.Errorf("%w: dispatch request without newsletter", entity.ErrInvariant))
	}

	logger := logging.FromContext(ctx)
	msg := &Message{
		From:    s.cfg.From,
		To:      req.Recipient,
		Subject: req.Newsletter.Title,
		HTML:    req.Newsletter.BodyHTML,
		Text:    req.Newsletter.BodyText,
	}

	policy := retry.MailDeliveryConfig(s.cfg.MaxAttempts, s.cfg.Backoff)
	policy.Retryable = isTransient

	attempts := 0
	err := retry.WithBackoff(ctx, policy, func() error {
		attempts++
		sendErr := s.transport.Send(ctx, msg)
		metrics.RecordDispatchAttempt(sendErr)
		if sendErr != nil {
			logger.Warn("newsletter send attempt failed",
				slog.Int("attempt", attempts),
				slog.Int("max_attempts", s.cfg.MaxAttempts),
				slog.Any("error", sendErr))
		}
		return sendErr
	})

	if err != nil {
		if errors.Is(err, entity.ErrAuthentication) || errors.Is(err, entity.ErrInvalidRecipient) {
			return fail(attempts, fmt.Errorf("send newsletter: %w", err))
		}
		return fail(attempts, fmt.Errorf("%w: %d attempt(s): %w", entity.ErrDispatch, attempts, err))
	}

	logger.Info("newsletter dispatched",
		slog.String("subject", msg.Subject),
		slog.Int("attempts", attempts))

	return entity.RunResult{
		StageReached: entity.StageDispatched,
		Success:      true,
		Attempts:     attempts,
		Subject:      msg.Subject,
	}, nil
}

// isTransient reports whether a transport failure may succeed on another attempt.
// Credential and address rejections are deterministic; so is a finished context.
func isTransient(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, entity.ErrAuthentication), errors.Is(err, entity.ErrInvalidRecipient):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}
