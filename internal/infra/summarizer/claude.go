package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"tech-newsletter/internal/usecase/curate"
)

// Claude generates text with Anthropic's Messages API.
type Claude struct {
	engine
	client anthropic.Client
}

// NewClaude creates a Claude provider authenticated with apiKey.
// The SDK's own retries are disabled; the engine's retry policy applies instead.
func NewClaude(apiKey string, cfg Config, opts ...Option) *Claude {
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Claude{
		engine: newEngine(ProviderClaude, cfg, opts),
		client: anthropic.NewClient(clientOpts...),
	}
}

// Generate implements curate.Generator.
func (c *Claude) Generate(ctx context.Context, p curate.Prompt) (string, error) {
	return c.generate(ctx, p, c.complete)
}

func (c *Claude) complete(ctx context.Context, model, system, user string) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(c.config.MaxTokens),
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", statusError(ProviderClaude, apiErr.StatusCode, apiErr.Error())
		}
		return "", fmt.Errorf("claude api error: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("claude: %w", errEmptyResponse)
	}
	return sb.String(), nil
}
