package summarizer

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"tech-newsletter/internal/usecase/curate"
)

// Gemini generates text with Google's Gemini API.
type Gemini struct {
	engine
	client *genai.Client
}

// NewGemini creates a Gemini provider authenticated with apiKey.
func NewGemini(ctx context.Context, apiKey string, cfg Config, opts ...Option) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{
		engine: newEngine(ProviderGemini, cfg, opts),
		client: client,
	}, nil
}

// Generate implements curate.Generator.
func (g *Gemini) Generate(ctx context.Context, p curate.Prompt) (string, error) {
	return g.generate(ctx, p, g.complete)
}

func (g *Gemini) complete(ctx context.Context, model, system, user string) (string, error) {
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: user}},
	}}
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", statusError(ProviderGemini, apiErr.Code, apiErr.Message)
		}
		var apiErrPtr *genai.APIError
		if errors.As(err, &apiErrPtr) {
			return "", statusError(ProviderGemini, apiErrPtr.Code, apiErrPtr.Message)
		}
		return "", fmt.Errorf("gemini api error: %w", err)
	}

	out := resp.Text()
	if out == "" {
		return "", fmt.Errorf("gemini: %w", errEmptyResponse)
	}
	return out, nil
}
