// Package app assembles the newsletter pipeline from a config.Config. Both
// the one-shot CLI and the scheduled worker build their controller here.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"tech-newsletter/internal/config"
	"tech-newsletter/internal/domain/entity"
	"tech-newsletter/internal/infra/fetcher"
	"tech-newsletter/internal/infra/mailer"
	"tech-newsletter/internal/infra/scraper"
	"tech-newsletter/internal/infra/summarizer"
	"tech-newsletter/internal/usecase/collect"
	"tech-newsletter/internal/usecase/curate"
	"tech-newsletter/internal/usecase/dispatch"
	"tech-newsletter/internal/usecase/pipeline"
)

// feedTimeout bounds one feed HTTP request.
const feedTimeout = 10 * time.Second

// Options supplies process-level collaborators.
type Options struct {
	Logger *slog.Logger
	// Preview receives the rendered message in dry-run mode. Defaults to io.Discard.
	Preview io.Writer
	// HTTPClient is used for feed retrieval. Defaults to a client with a 10s timeout.
	HTTPClient *http.Client
}

// App is a wired pipeline ready to run.
type App struct {
	Controller *pipeline.Controller
	Request    pipeline.RunRequest
}

// Run executes one pipeline run with the configured request.
func (a *App) Run(ctx context.Context) entity.RunResult {
	return a.Controller.Run(ctx, a.Request)
}

// Build wires collector, curator and dispatcher for cfg. In dry-run mode
// the echo generator and the preview transport replace the network
// adapters.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Preview == nil {
		opts.Preview = io.Discard
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: feedTimeout}
	}

	collector := collect.NewService(scraper.NewRSSFetcher(opts.HTTPClient), cfg.Feed.Ranking)

	curator, err := buildCurator(ctx, cfg)
	if err != nil {
		return nil, err
	}

	dispatcher := dispatch.NewService(buildTransport(cfg, opts.Preview), dispatch.Config{
		From:        cfg.SMTP.From,
		MaxAttempts: cfg.Dispatch.MaxAttempts,
		Backoff:     cfg.Dispatch.Backoff,
	})

	controller := pipeline.NewController(collector, curator, dispatcher, pipeline.WithLogger(opts.Logger))

	return &App{
		Controller: controller,
		Request: pipeline.RunRequest{
			FeedURL:        cfg.Feed.URL,
			FetchLimit:     cfg.Feed.FetchLimit,
			SelectionLimit: cfg.Feed.SelectionLimit,
			Language:       cfg.Generation.Language,
			Model:          cfg.Generation.Model,
			CharLimit:      cfg.Generation.CharLimit,
			Recipient:      cfg.Dispatch.Recipient,
		},
	}, nil
}

func buildCurator(ctx context.Context, cfg *config.Config) (*curate.Service, error) {
	provider := cfg.Generation.Provider
	if cfg.DryRun {
		provider = summarizer.ProviderEcho
	}

	genCfg := summarizer.DefaultConfig(provider)
	if cfg.Generation.Model != "" {
		genCfg.Model = cfg.Generation.Model
	}
	genCfg.Timeout = cfg.Generation.Timeout
	genCfg.BaseURL = cfg.Generation.BaseURL

	gen, err := summarizer.New(ctx, provider, cfg.Generation.APIKey, genCfg,
		summarizer.WithMetrics(summarizer.NewPrometheusMetrics()))
	if err != nil {
		return nil, fmt.Errorf("create summarizer: %w", err)
	}

	curateOpts := []curate.Option{curate.WithRateLimit(cfg.Generation.RPS, 1)}
	if cfg.Content.Enabled && !cfg.DryRun {
		fetchCfg, err := fetcher.LoadConfigFromEnv()
		if err != nil {
			return nil, fmt.Errorf("content fetcher config: %w", err)
		}
		curateOpts = append(curateOpts, curate.WithContentFetcher(fetcher.NewReadabilityFetcher(fetchCfg), cfg.Content.Threshold))
	}
	return curate.NewService(gen, curateOpts...), nil
}

func buildTransport(cfg *config.Config, preview io.Writer) dispatch.Transport {
	if cfg.DryRun {
		return mailer.NewPreviewTransport(preview)
	}
	return mailer.NewSMTPTransport(mailer.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		Timeout:  cfg.SMTP.Timeout,
	})
}
