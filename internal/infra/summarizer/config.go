package summarizer

import (
	"fmt"
	"time"
)

// Provider names accepted by New.
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
	ProviderEcho   = "echo"
)

// Default models per provider.
const (
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultClaudeModel = "claude-sonnet-4-5-20250929"
	DefaultGeminiModel = "gemini-2.5-flash"
)

// maxInputRunes bounds the article text placed in a prompt.
const maxInputRunes = 10000

// Config holds the settings shared by every provider.
type Config struct {
	// Model is used when a prompt does not name one.
	Model string

	// MaxTokens caps the response length requested from the API.
	MaxTokens int

	// Timeout bounds a single Generate call including retries.
	Timeout time.Duration

	// BaseURL overrides the provider endpoint. Empty uses the provider default.
	BaseURL string
}

// DefaultConfig returns the configuration for provider with its default model.
func DefaultConfig(provider string) Config {
	cfg := Config{
		MaxTokens: 1024,
		Timeout:   60 * time.Second,
	}
	switch provider {
	case ProviderOpenAI:
		cfg.Model = DefaultOpenAIModel
	case ProviderClaude:
		cfg.Model = DefaultClaudeModel
	case ProviderGemini:
		cfg.Model = DefaultGeminiModel
	case ProviderEcho:
		cfg.Model = ProviderEcho
	}
	return cfg
}

// Validate checks the configuration and returns an error if invalid.
func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	return nil
}
