package summarizer_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tech-newsletter/internal/infra/summarizer"
	"tech-newsletter/internal/resilience/retry"
	"tech-newsletter/internal/usecase/curate"
)

/* ───────── Test helpers ───────── */

type mockMetrics struct {
	requests      map[string]int
	lengths       []int
	limitExceeded int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{requests: map[string]int{}}
}

func (m *mockMetrics) RecordRequest(_, status string) { m.requests[status]++ }

func (m *mockMetrics) RecordDuration(string, time.Duration) {}

func (m *mockMetrics) RecordLength(_ string, length int) { m.lengths = append(m.lengths, length) }

func (m *mockMetrics) RecordLimitExceeded(string) { m.limitExceeded++ }

func fastRetry() summarizer.Option {
	return summarizer.WithRetryConfig(retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   1.0,
	})
}

func testConfig(provider, baseURL string) summarizer.Config {
	cfg := summarizer.DefaultConfig(provider)
	cfg.BaseURL = baseURL
	cfg.Timeout = 5 * time.Second
	return cfg
}

func itemPrompt() curate.Prompt {
	return curate.Prompt{
		Kind:      curate.PromptItem,
		Language:  "korean",
		CharLimit: 400,
		Title:     "OpenAI launches new GPT model",
		URL:       "https://example.com/gpt",
		Text:      "OpenAI announced a new model today.",
	}
}

/* ───────── OpenAI ───────── */

func TestOpenAI_Generate(t *testing.T) {
	// Arrange
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"  A short summary.  "},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	metrics := newMockMetrics()
	gen := summarizer.NewOpenAI("test-key", testConfig(summarizer.ProviderOpenAI, srv.URL+"/v1"), summarizer.WithMetrics(metrics))

	// Act
	out, err := gen.Generate(context.Background(), itemPrompt())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "A short summary.", out)
	assert.Equal(t, summarizer.DefaultOpenAIModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "korean")
	assert.Contains(t, got.Messages[1].Content, "OpenAI launches new GPT model")
	assert.Equal(t, 1, metrics.requests["success"])
	assert.Equal(t, []int{16}, metrics.lengths)
}

func TestOpenAI_PromptModelOverridesDefault(t *testing.T) {
	var model string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		model, _ = body["model"].(string)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer srv.Close()

	gen := summarizer.NewOpenAI("test-key", testConfig(summarizer.ProviderOpenAI, srv.URL+"/v1"), summarizer.WithMetrics(newMockMetrics()))
	p := itemPrompt()
	p.Model = "gpt-4o"

	_, err := gen.Generate(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", model)
}

func TestOpenAI_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"third time"}}]}`)
	}))
	defer srv.Close()

	metrics := newMockMetrics()
	gen := summarizer.NewOpenAI("test-key", testConfig(summarizer.ProviderOpenAI, srv.URL+"/v1"), fastRetry(), summarizer.WithMetrics(metrics))

	out, err := gen.Generate(context.Background(), itemPrompt())

	require.NoError(t, err)
	assert.Equal(t, "third time", out)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 2, metrics.requests["failure"])
}

func TestOpenAI_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"invalid api key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	gen := summarizer.NewOpenAI("bad-key", testConfig(summarizer.ProviderOpenAI, srv.URL+"/v1"), fastRetry(), summarizer.WithMetrics(newMockMetrics()))

	_, err := gen.Generate(context.Background(), itemPrompt())

	require.Error(t, err)
	var httpErr *retry.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	gen := summarizer.NewOpenAI("test-key", testConfig(summarizer.ProviderOpenAI, srv.URL+"/v1"), fastRetry(), summarizer.WithMetrics(newMockMetrics()))

	_, err := gen.Generate(context.Background(), itemPrompt())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestOpenAI_RecordsLimitExceeded(t *testing.T) {
	long := strings.Repeat("가", 50)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":%q}}]}`, long)
	}))
	defer srv.Close()

	metrics := newMockMetrics()
	gen := summarizer.NewOpenAI("test-key", testConfig(summarizer.ProviderOpenAI, srv.URL+"/v1"), summarizer.WithMetrics(metrics))
	p := itemPrompt()
	p.CharLimit = 10

	out, err := gen.Generate(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, long, out, "the limit is soft")
	assert.Equal(t, 1, metrics.limitExceeded)
}

/* ───────── Claude ───────── */

func TestClaude_Generate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_01","type":"message","role":"assistant","model":"claude-sonnet-4-5-20250929",
			"content":[{"type":"text","text":"Claude summary."}],
			"stop_reason":"end_turn","stop_sequence":null,"usage":{"input_tokens":10,"output_tokens":5}}`)
	}))
	defer srv.Close()

	gen := summarizer.NewClaude("test-key", testConfig(summarizer.ProviderClaude, srv.URL+"/"), summarizer.WithMetrics(newMockMetrics()))

	out, err := gen.Generate(context.Background(), itemPrompt())

	require.NoError(t, err)
	assert.Equal(t, "Claude summary.", out)
	assert.Equal(t, summarizer.DefaultClaudeModel, body["model"])
	system, ok := body["system"].([]any)
	require.True(t, ok)
	require.Len(t, system, 1)
	assert.Contains(t, system[0].(map[string]any)["text"], "korean")
}

func TestClaude_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"msg_02","type":"message","role":"assistant","model":"m",
			"content":[{"type":"text","text":"after retry"}],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`)
	}))
	defer srv.Close()

	gen := summarizer.NewClaude("test-key", testConfig(summarizer.ProviderClaude, srv.URL+"/"), fastRetry(), summarizer.WithMetrics(newMockMetrics()))

	out, err := gen.Generate(context.Background(), itemPrompt())

	require.NoError(t, err)
	assert.Equal(t, "after retry", out)
	assert.Equal(t, int32(2), calls.Load())
}

/* ───────── Gemini ───────── */

func TestGemini_Generate(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Gemini summary."}]},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	gen, err := summarizer.NewGemini(context.Background(), "test-key",
		testConfig(summarizer.ProviderGemini, srv.URL+"/"), summarizer.WithMetrics(newMockMetrics()))
	require.NoError(t, err)

	out, err := gen.Generate(context.Background(), itemPrompt())

	require.NoError(t, err)
	assert.Equal(t, "Gemini summary.", out)
	assert.Contains(t, path, summarizer.DefaultGeminiModel)
	assert.True(t, strings.HasSuffix(path, ":generateContent"), path)
}

func TestNewGemini_RequiresKey(t *testing.T) {
	_, err := summarizer.NewGemini(context.Background(), "", summarizer.DefaultConfig(summarizer.ProviderGemini))

	assert.Error(t, err)
}

/* ───────── Echo and factory ───────── */

func TestEcho_Generate(t *testing.T) {
	tests := []struct {
		name   string
		prompt curate.Prompt
		want   string
	}{
		{
			name:   "item text",
			prompt: curate.Prompt{Kind: curate.PromptItem, Title: "T", Text: "  some   article\ntext ", CharLimit: 400},
			want:   "some article text",
		},
		{
			name:   "falls back to title",
			prompt: curate.Prompt{Kind: curate.PromptItem, Title: "Only a title", CharLimit: 400},
			want:   "Only a title",
		},
		{
			name:   "truncated to limit",
			prompt: curate.Prompt{Kind: curate.PromptItem, Title: "T", Text: "abcdefghij", CharLimit: 4},
			want:   "abcd...",
		},
		{
			name:   "intro",
			prompt: curate.Prompt{Kind: curate.PromptIntro, Title: "AI Newsletter", Text: "1. A", CharLimit: 400},
			want:   "AI Newsletter: 1. A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := summarizer.NewEcho().Generate(context.Background(), tt.prompt)

			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("echo needs no key", func(t *testing.T) {
		gen, err := summarizer.New(ctx, summarizer.ProviderEcho, "", summarizer.DefaultConfig(summarizer.ProviderEcho))
		require.NoError(t, err)
		assert.IsType(t, &summarizer.Echo{}, gen)
	})

	t.Run("openai", func(t *testing.T) {
		gen, err := summarizer.New(ctx, summarizer.ProviderOpenAI, "k", summarizer.DefaultConfig(summarizer.ProviderOpenAI))
		require.NoError(t, err)
		assert.IsType(t, &summarizer.OpenAI{}, gen)
	})

	t.Run("claude", func(t *testing.T) {
		gen, err := summarizer.New(ctx, summarizer.ProviderClaude, "k", summarizer.DefaultConfig(summarizer.ProviderClaude))
		require.NoError(t, err)
		assert.IsType(t, &summarizer.Claude{}, gen)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := summarizer.New(ctx, summarizer.ProviderOpenAI, "", summarizer.DefaultConfig(summarizer.ProviderOpenAI))
		assert.ErrorContains(t, err, "api key is required")
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := summarizer.DefaultConfig(summarizer.ProviderOpenAI)
		cfg.MaxTokens = 0
		_, err := summarizer.New(ctx, summarizer.ProviderOpenAI, "k", cfg)
		assert.ErrorContains(t, err, "max tokens")
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := summarizer.New(ctx, "llama", "k", summarizer.DefaultConfig("llama"))
		assert.ErrorContains(t, err, "unknown summarizer type")
	})

	t.Run("unknown provider checked before key", func(t *testing.T) {
		_, err := summarizer.New(ctx, "llama", "", summarizer.Config{})
		assert.ErrorContains(t, err, "unknown summarizer type")
	})
}
