// Package config builds the process-wide newsletter configuration from the
// environment. A Config is loaded once at startup and passed explicitly to
// each stage constructor.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tech-newsletter/internal/infra/summarizer"
	pkgconfig "tech-newsletter/internal/pkg/config"
	"tech-newsletter/internal/usecase/collect"
	"tech-newsletter/pkg/config"
)

// DefaultFeedURL is the TechCrunch artificial intelligence feed.
const DefaultFeedURL = "https://techcrunch.com/category/artificial-intelligence/feed/"

// Config is the immutable configuration of one process.
type Config struct {
	Feed       FeedConfig
	Generation GenerationConfig
	Content    ContentConfig
	SMTP       SMTPConfig
	Dispatch   DispatchConfig

	// RunTimeout bounds one pipeline run. It is honored between stages.
	RunTimeout time.Duration

	// DryRun renders the newsletter without sending it or calling a model.
	DryRun bool
}

// FeedConfig controls the Collector.
type FeedConfig struct {
	URL            string
	FetchLimit     int
	SelectionLimit int
	// RankingPath is an optional YAML file overriding the ranking policy.
	RankingPath string
	Ranking     collect.RankingConfig
}

// GenerationConfig controls the Curator and its text generator.
type GenerationConfig struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	Language  string
	CharLimit int
	// RPS paces generation calls.
	RPS     float64
	Timeout time.Duration

	// modelPinned is set when the model came from NEWSLETTER_MODEL or
	// UseModel and must survive a provider switch.
	modelPinned bool
}

// ContentConfig controls optional article enrichment.
type ContentConfig struct {
	Enabled bool
	// Threshold is the feed summary length in runes below which the
	// article page is fetched.
	Threshold int
}

// SMTPConfig holds the mail transport settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// DispatchConfig controls delivery.
type DispatchConfig struct {
	Recipient   string
	MaxAttempts int
	Backoff     time.Duration
}

// apiKeyEnv names the credential variable of each provider.
var apiKeyEnv = map[string]string{
	summarizer.ProviderOpenAI: "OPENAI_API_KEY",
	summarizer.ProviderClaude: "ANTHROPIC_API_KEY",
	summarizer.ProviderGemini: "GEMINI_API_KEY",
}

// modelEnv names the provider-specific model variable. NEWSLETTER_MODEL
// overrides it for every provider.
var modelEnv = map[string]string{
	summarizer.ProviderOpenAI: "OPENAI_MODEL",
	summarizer.ProviderClaude: "ANTHROPIC_MODEL",
	summarizer.ProviderGemini: "GEMINI_MODEL",
}

// Load reads the configuration from the environment and the optional
// ranking file. Only a malformed ranking file is an error here; call
// Validate for the remaining checks.
func Load() (*Config, error) {
	provider := strings.ToLower(config.GetEnvString("SUMMARIZER_TYPE", summarizer.ProviderOpenAI))
	smtpUser := config.GetEnvFirst("", "GMAIL_USER", "SMTP_USER")

	cfg := &Config{
		Feed: FeedConfig{
			URL:            config.GetEnvString("FEED_URL", DefaultFeedURL),
			FetchLimit:     config.GetEnvInt("FETCH_LIMIT", 5),
			SelectionLimit: config.GetEnvInt("SELECTION_LIMIT", 3),
			RankingPath:    config.GetEnvString("RANKING_CONFIG", ""),
			Ranking:        collect.DefaultRankingConfig(),
		},
		Generation: GenerationConfig{
			Provider:  provider,
			BaseURL:   config.GetEnvString("OPENAI_BASE_URL", ""),
			Language:  config.GetEnvString("NEWSLETTER_LANGUAGE", "korean"),
			CharLimit: config.GetEnvInt("SUMMARY_CHAR_LIMIT", 400),
			Timeout:   config.GetEnvDuration("GENERATION_TIMEOUT", 60*time.Second),
		},
		Content: ContentConfig{
			Enabled:   config.GetEnvBool("CONTENT_FETCH_ENABLED", false),
			Threshold: config.GetEnvInt("CONTENT_FETCH_THRESHOLD", 300),
		},
		SMTP: SMTPConfig{
			Host:     config.GetEnvString("SMTP_HOST", "smtp.gmail.com"),
			Port:     config.GetEnvInt("SMTP_PORT", 587),
			Username: smtpUser,
			Password: config.GetEnvFirst("", "GMAIL_APP_PASSWORD", "SMTP_PASSWORD"),
			From:     config.GetEnvString("SMTP_FROM", smtpUser),
			Timeout:  config.GetEnvDuration("SMTP_TIMEOUT", 30*time.Second),
		},
		Dispatch: DispatchConfig{
			Recipient:   config.GetEnvFirst("", "RECIPIENT_EMAIL", "EMAIL", "GMAIL_USER"),
			MaxAttempts: config.GetEnvInt("DISPATCH_MAX_ATTEMPTS", 3),
			Backoff:     config.GetEnvDuration("DISPATCH_BACKOFF", 2*time.Second),
		},
		RunTimeout: config.GetEnvDuration("RUN_TIMEOUT", 10*time.Minute),
	}
	rps := pkgconfig.LoadEnvFloat("GENERATION_RPS", 2.0, pkgconfig.ValidatePositiveFloat)
	for _, w := range rps.Warnings {
		slog.Warn("configuration fallback applied", slog.String("warning", w))
	}
	cfg.Generation.RPS = rps.Value

	cfg.UseModel(config.GetEnvString("NEWSLETTER_MODEL", ""))
	cfg.UseProvider(provider)

	if cfg.Feed.RankingPath != "" {
		ranking, err := collect.LoadRankingConfig(cfg.Feed.RankingPath)
		if err != nil {
			return nil, fmt.Errorf("load ranking config: %w", err)
		}
		cfg.Feed.Ranking = ranking
	}
	cfg.Feed.Ranking.Keywords = config.GetEnvStringList("RANKING_KEYWORDS", cfg.Feed.Ranking.Keywords)
	return cfg, nil
}

// UseProvider switches the generator, reloading the matching API key. A
// model that was not pinned is replaced by the provider's model variable,
// or cleared so the provider default applies.
func (c *Config) UseProvider(provider string) {
	c.Generation.Provider = strings.ToLower(provider)
	c.Generation.APIKey = ""
	if key, ok := apiKeyEnv[c.Generation.Provider]; ok {
		c.Generation.APIKey = config.GetEnvString(key, "")
	}
	if c.Generation.modelPinned {
		return
	}
	c.Generation.Model = ""
	if key, ok := modelEnv[c.Generation.Provider]; ok {
		c.Generation.Model = config.GetEnvString(key, "")
	}
}

// UseModel pins model for every provider. An empty model is ignored.
func (c *Config) UseModel(model string) {
	if model == "" {
		return
	}
	c.Generation.Model = model
	c.Generation.modelPinned = true
}

// Validate reports every invalid setting at once. Credentials are not
// required in dry-run mode. The recipient address is checked by the
// Dispatcher so that a bad address is reported as a run failure.
func (c *Config) Validate() error {
	var errs []error
	add := func(field string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}

	if c.Feed.URL == "" {
		add("FEED_URL", errors.New("cannot be empty"))
	}
	add("FETCH_LIMIT", pkgconfig.ValidateIntRange(c.Feed.FetchLimit, 1, 100))
	add("SELECTION_LIMIT", pkgconfig.ValidateIntRange(c.Feed.SelectionLimit, 1, 100))
	if c.Feed.SelectionLimit > c.Feed.FetchLimit {
		add("SELECTION_LIMIT", fmt.Errorf("%d exceeds FETCH_LIMIT %d", c.Feed.SelectionLimit, c.Feed.FetchLimit))
	}
	add("ranking", c.Feed.Ranking.Validate())

	switch c.Generation.Provider {
	case summarizer.ProviderOpenAI, summarizer.ProviderClaude, summarizer.ProviderGemini, summarizer.ProviderEcho:
	default:
		add("SUMMARIZER_TYPE", fmt.Errorf("unknown provider %q", c.Generation.Provider))
	}
	if c.Generation.Language == "" {
		add("NEWSLETTER_LANGUAGE", errors.New("cannot be empty"))
	}
	add("SUMMARY_CHAR_LIMIT", pkgconfig.ValidateIntRange(c.Generation.CharLimit, 50, 4000))
	add("GENERATION_RPS", pkgconfig.ValidatePositiveFloat(c.Generation.RPS))
	add("GENERATION_TIMEOUT", pkgconfig.ValidatePositiveDuration(c.Generation.Timeout))
	add("CONTENT_FETCH_THRESHOLD", pkgconfig.ValidateIntRange(c.Content.Threshold, 0, 100000))
	add("DISPATCH_MAX_ATTEMPTS", pkgconfig.ValidateIntRange(c.Dispatch.MaxAttempts, 1, 10))
	add("DISPATCH_BACKOFF", pkgconfig.ValidateDuration(c.Dispatch.Backoff, 0, time.Minute))
	add("RUN_TIMEOUT", pkgconfig.ValidatePositiveDuration(c.RunTimeout))

	if !c.DryRun {
		if key, ok := apiKeyEnv[c.Generation.Provider]; ok && c.Generation.APIKey == "" {
			add(key, errors.New("is required"))
		}
		if c.SMTP.Username == "" {
			add("GMAIL_USER", errors.New("is required"))
		}
		if c.SMTP.Password == "" {
			add("GMAIL_APP_PASSWORD", errors.New("is required"))
		}
		add("SMTP_PORT", pkgconfig.ValidateIntRange(c.SMTP.Port, 1, 65535))
		add("SMTP_TIMEOUT", pkgconfig.ValidatePositiveDuration(c.SMTP.Timeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// LogValue implements slog.LogValuer. Secrets are never included.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("feed_url", c.Feed.URL),
		slog.Int("fetch_limit", c.Feed.FetchLimit),
		slog.Int("selection_limit", c.Feed.SelectionLimit),
		slog.String("provider", c.Generation.Provider),
		slog.String("model", c.Generation.Model),
		slog.Bool("api_key_set", c.Generation.APIKey != ""),
		slog.String("language", c.Generation.Language),
		slog.Bool("content_fetch", c.Content.Enabled),
		slog.String("smtp_host", c.SMTP.Host),
		slog.Int("smtp_port", c.SMTP.Port),
		slog.String("smtp_user", c.SMTP.Username),
		slog.Bool("smtp_password_set", c.SMTP.Password != ""),
		slog.String("recipient", c.Dispatch.Recipient),
		slog.Duration("run_timeout", c.RunTimeout),
		slog.Bool("dry_run", c.DryRun),
	)
}
