package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tech-newsletter/internal/domain/entity"
	"tech-newsletter/internal/usecase/dispatch"
)

// mockTransport fails the first failures calls with err, then succeeds.
type mockTransport struct {
	failures int
	err      error
	calls    int
	sent     []*dispatch.Message
	times    []time.Time
}

func (m *mockTransport) Send(_ context.Context, msg *dispatch.Message) error {
	m.calls++
	m.times = append(m.times, time.Now())
	if m.calls <= m.failures {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func testConfig() dispatch.Config {
	return dispatch.Config{From: "sender@example.com", MaxAttempts: 3, Backoff: 5 * time.Millisecond}
}

func testRequest(recipient string) entity.DispatchRequest {
	return entity.DispatchRequest{
		Recipient: recipient,
		Newsletter: &entity.Newsletter{
			Title:    "AI Newsletter - 2024-06-01",
			BodyHTML: "<html><body>hi</body></html>",
			BodyText: "hi",
		},
	}
}

func TestDispatch_Success(t *testing.T) {
	// Arrange
	transport := &mockTransport{}
	svc := dispatch.NewService(transport, testConfig())

	// Act
	result, err := svc.Dispatch(context.Background(), testRequest("reader@example.com"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.StageDispatched, result.StageReached)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Attempts)
	require.Len(t, transport.sent, 1)
	msg := transport.sent[0]
	assert.Equal(t, "sender@example.com", msg.From)
	assert.Equal(t, "reader@example.com", msg.To)
	assert.Equal(t, "AI Newsletter - 2024-06-01", msg.Subject)
	assert.Equal(t, "<html><body>hi</body></html>", msg.HTML)
	assert.Equal(t, "hi", msg.Text)
}

func TestDispatch_InvalidRecipientNeverSends(t *testing.T) {
	recipients := []string{"", "not-an-email", "a@b", "Reader <reader@example.com>", " reader@example.com", "a@@example.com", "x@example.com, y@example.com"}

	for _, rcpt := range recipients {
		t.Run(fmt.Sprintf("%q", rcpt), func(t *testing.T) {
			transport := &mockTransport{}
			svc := dispatch.NewService(transport, testConfig())

			result, err := svc.Dispatch(context.Background(), testRequest(rcpt))

			assert.ErrorIs(t, err, entity.ErrInvalidRecipient)
			assert.Equal(t, entity.KindInvalidRecipient, result.Kind)
			assert.False(t, result.Success)
			assert.Equal(t, 0, transport.calls, "no network call for an invalid recipient")
		})
	}
}

func TestDispatch_FailsTwiceThenSucceeds(t *testing.T) {
	transport := &mockTransport{failures: 2, err: errors.New("connection reset by peer")}
	svc := dispatch.NewService(transport, testConfig())

	result, err := svc.Dispatch(context.Background(), testRequest("reader@example.com"))

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, entity.StageDispatched, result.StageReached)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, 3, transport.calls)
}

func TestDispatch_AlwaysFailsStopsAtBound(t *testing.T) {
	transport := &mockTransport{failures: 100, err: errors.New("connection reset by peer")}
	svc := dispatch.NewService(transport, testConfig())

	result, err := svc.Dispatch(context.Background(), testRequest("reader@example.com"))

	assert.ErrorIs(t, err, entity.ErrDispatch)
	assert.Equal(t, entity.KindDispatch, result.Kind)
	assert.Equal(t, 3, transport.calls, "exactly the configured number of attempts")
	assert.Equal(t, 3, result.Attempts)
	assert.False(t, result.Success)
}

func TestDispatch_LinearBackoff(t *testing.T) {
	transport := &mockTransport{failures: 100, err: errors.New("timeout")}
	cfg := testConfig()
	cfg.Backoff = 20 * time.Millisecond
	svc := dispatch.NewService(transport, cfg)

	_, _ = svc.Dispatch(context.Background(), testRequest("reader@example.com"))

	require.Len(t, transport.times, 3)
	assert.GreaterOrEqual(t, transport.times[1].Sub(transport.times[0]), 20*time.Millisecond)
	assert.GreaterOrEqual(t, transport.times[2].Sub(transport.times[1]), 40*time.Millisecond)
}

func TestDispatch_AuthenticationNotRetried(t *testing.T) {
	authErr := fmt.Errorf("%w: 535 5.7.8 Username and Password not accepted", entity.ErrAuthentication)
	transport := &mockTransport{failures: 100, err: authErr}
	svc := dispatch.NewService(transport, testConfig())

	result, err := svc.Dispatch(context.Background(), testRequest("reader@example.com"))

	assert.ErrorIs(t, err, entity.ErrAuthentication)
	assert.NotErrorIs(t, err, entity.ErrDispatch)
	assert.Equal(t, entity.KindAuthentication, result.Kind)
	assert.Equal(t, 1, transport.calls)
	assert.Equal(t, 1, result.Attempts)
}

func TestDispatch_MissingNewsletter(t *testing.T) {
	transport := &mockTransport{}
	svc := dispatch.NewService(transport, testConfig())

	_, err := svc.Dispatch(context.Background(), entity.DispatchRequest{Recipient: "reader@example.com"})

	assert.ErrorIs(t, err, entity.ErrInvariant)
	assert.Equal(t, 0, transport.calls)
}

func TestDispatch_SingleAttemptConfig(t *testing.T) {
	transport := &mockTransport{failures: 1, err: errors.New("EOF")}
	svc := dispatch.NewService(transport, dispatch.Config{From: "s@example.com", MaxAttempts: 0})

	_, err := svc.Dispatch(context.Background(), testRequest("reader@example.com"))

	assert.ErrorIs(t, err, entity.ErrDispatch)
	assert.Equal(t, 1, transport.calls)
}

func TestDefaultConfig(t *testing.T) {
	cfg := dispatch.DefaultConfig("me@example.com")

	assert.Equal(t, "me@example.com", cfg.From)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Backoff)
}
