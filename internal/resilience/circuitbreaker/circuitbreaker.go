// Package circuitbreaker guards the pipeline's outbound calls (feed, article
// pages, generation providers) with github.com/sony/gobreaker.
package circuitbreaker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"tech-newsletter/internal/observability/metrics"
)

// ErrOpen is returned while a circuit rejects calls outright.
var ErrOpen = gobreaker.ErrOpenState

// Config describes when a circuit opens and how it recovers.
type Config struct {
	Name string

	// MinRequests is the sample size required before the failure ratio is evaluated.
	MinRequests uint32
	// FailureRatio trips the circuit once reached, e.g. 0.6 for 60%.
	FailureRatio float64
	// Interval clears the closed-state counts periodically. Zero never clears.
	Interval time.Duration
	// Cooldown is how long the circuit stays open before letting trial requests through.
	Cooldown time.Duration
	// HalfOpenMax is the number of requests let through while half-open.
	HalfOpenMax uint32
}

// DefaultConfig returns the baseline policy under the given circuit name.
func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		MinRequests:  5,
		FailureRatio: 0.6,
		Interval:     30 * time.Second,
		Cooldown:     time.Minute,
		HalfOpenMax:  3,
	}
}

// GenerationAPIConfig is used for text generation providers. The circuit is
// named "<provider>-api".
func GenerationAPIConfig(provider string) Config {
	return DefaultConfig(provider + "-api")
}

// FeedFetchConfig tolerates more failures than the default because feed hosts
// often answer slowly under load.
func FeedFetchConfig() Config {
	cfg := DefaultConfig("feed-fetch")
	cfg.MinRequests = 10
	cfg.FailureRatio = 0.7
	cfg.Interval = time.Minute
	cfg.Cooldown = 2 * time.Minute
	cfg.HalfOpenMax = 5
	return cfg
}

// ContentFetchConfig backs off for an hour once article hosts start refusing us.
func ContentFetchConfig() Config {
	cfg := DefaultConfig("content-fetch")
	cfg.FailureRatio = 0.8
	cfg.Interval = time.Minute
	cfg.Cooldown = time.Hour
	return cfg
}

// CircuitBreaker is a named gobreaker circuit that reports its state as
// newsletter_circuit_breaker_state.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New creates a circuit in the closed state.
func New(cfg Config) *CircuitBreaker {
	minRequests, ratio := cfg.MinRequests, cfg.FailureRatio

	cb := &CircuitBreaker{name: cfg.Name}
	cb.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenMax,
		Interval:    cfg.Interval,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.Requests >= minRequests &&
				float64(c.TotalFailures)/float64(c.Requests) >= ratio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			metrics.RecordCircuitState(name, int(to))
		},
	})
	metrics.RecordCircuitState(cfg.Name, int(gobreaker.StateClosed))
	return cb
}

func (cb *CircuitBreaker) Name() string { return cb.name }

func (cb *CircuitBreaker) State() gobreaker.State { return cb.breaker.State() }

// IsOpen reports whether calls are currently rejected outright.
func (cb *CircuitBreaker) IsOpen() bool { return cb.State() == gobreaker.StateOpen }

// Do runs fn through the circuit and returns its typed result.
// While the circuit is open fn is not called and the error satisfies IsRejection.
func Do[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	out, err := cb.breaker.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}

// IsRejection reports whether err came from the circuit itself rather than
// from the wrapped call.
func IsRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
