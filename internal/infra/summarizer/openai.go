package summarizer

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"tech-newsletter/internal/usecase/curate"
)

// OpenAI generates text with OpenAI's chat completion API.
type OpenAI struct {
	engine
	client *openai.Client
}

// NewOpenAI creates an OpenAI provider authenticated with apiKey.
func NewOpenAI(apiKey string, cfg Config, opts ...Option) *OpenAI {
	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAI{
		engine: newEngine(ProviderOpenAI, cfg, opts),
		client: openai.NewClientWithConfig(clientCfg),
	}
}

// Generate implements curate.Generator.
func (o *OpenAI) Generate(ctx context.Context, p curate.Prompt) (string, error) {
	return o.generate(ctx, p, o.complete)
}

func (o *OpenAI) complete(ctx context.Context, model, system, user string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:               model,
		MaxCompletionTokens: o.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", statusError(ProviderOpenAI, apiErr.HTTPStatusCode, apiErr.Message)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", statusError(ProviderOpenAI, reqErr.HTTPStatusCode, reqErr.Error())
		}
		return "", fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", errEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}
