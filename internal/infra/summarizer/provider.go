package summarizer

import (
	"context"
	"fmt"

	"tech-newsletter/internal/usecase/curate"
)

// New creates the generator named by provider. apiKey is ignored for echo.
// Unknown providers are rejected before credentials or config are checked.
func New(ctx context.Context, provider, apiKey string, cfg Config, opts ...Option) (curate.Generator, error) {
	switch provider {
	case ProviderEcho:
		return NewEcho(), nil
	case ProviderOpenAI, ProviderClaude, ProviderGemini:
	default:
		return nil, fmt.Errorf("unknown summarizer type %q (want openai, claude, gemini or echo)", provider)
	}

	if apiKey == "" {
		return nil, fmt.Errorf("%s: api key is required", provider)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s configuration: %w", provider, err)
	}

	switch provider {
	case ProviderClaude:
		return NewClaude(apiKey, cfg, opts...), nil
	case ProviderGemini:
		return NewGemini(ctx, apiKey, cfg, opts...)
	default:
		return NewOpenAI(apiKey, cfg, opts...), nil
	}
}
