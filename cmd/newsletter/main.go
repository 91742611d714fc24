// Package main runs the newsletter pipeline once and exits.
//
// Usage: newsletter [--email addr] [--model name] [--provider openai|claude|gemini|echo]
//
//	[--language korean|english|japanese] [--dry-run] [--timeout 10m]
//
// The timeout is checked between stages only, so a stage that has started
// always runs to completion.
//
// Exit status: 0 when the newsletter was dispatched, 2 for an invalid
// recipient or rejected credentials, 3 when the run was aborted, 1 otherwise.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tech-newsletter/internal/app"
	"tech-newsletter/internal/config"
	"tech-newsletter/internal/observability/logging"
	"tech-newsletter/internal/observability/tracing"
)

func main() {
	// A missing .env file is normal in production.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type cliFlags struct {
	email    string
	model    string
	provider string
	language string
	dryRun   bool
	timeout  time.Duration
}

func parseFlags(args []string, stderr io.Writer) (cliFlags, error) {
	var f cliFlags
	fs := flag.NewFlagSet("newsletter", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.email, "email", "", "Recipient address (default: RECIPIENT_EMAIL, EMAIL or GMAIL_USER)")
	fs.StringVar(&f.model, "model", "", "Text generation model (default: NEWSLETTER_MODEL or the provider default)")
	fs.StringVar(&f.provider, "provider", "", "Summarizer: openai, claude, gemini or echo (default: SUMMARIZER_TYPE)")
	fs.StringVar(&f.language, "language", "", "Newsletter language (default: NEWSLETTER_LANGUAGE)")
	fs.BoolVar(&f.dryRun, "dry-run", false, "Render with the echo summarizer and print instead of sending")
	fs.DurationVar(&f.timeout, "timeout", 0, "Run timeout, checked between stages; a started stage always runs to completion (default: RUN_TIMEOUT)")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	if fs.NArg() > 0 {
		return f, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return f, nil
}

func (f cliFlags) apply(cfg *config.Config) {
	if f.email != "" {
		cfg.Dispatch.Recipient = f.email
	}
	if f.provider != "" {
		cfg.UseProvider(f.provider)
	}
	cfg.UseModel(f.model)
	if f.language != "" {
		cfg.Generation.Language = f.language
	}
	if f.timeout > 0 {
		cfg.RunTimeout = f.timeout
	}
	cfg.DryRun = f.dryRun
}

// run executes one newsletter run and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger := logging.New(stderr, logging.OptionsFromEnv())
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		return 1
	}
	flags.apply(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		return 1
	}
	logger.Info("configuration loaded", slog.Any("config", cfg))

	shutdownTracing := tracing.Setup("tech-newsletter", logger)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	a, err := app.Build(ctx, cfg, app.Options{Logger: logger, Preview: stdout})
	if err != nil {
		logger.Error("failed to build pipeline", slog.Any("error", err))
		return 1
	}

	runCtx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	result := a.Run(runCtx)
	if !result.Success {
		fmt.Fprintf(stderr, "Error: newsletter run failed at stage %q (%s): %v\n", result.StageReached, result.Kind, result.Err)
	}
	return result.ExitCode()
}
