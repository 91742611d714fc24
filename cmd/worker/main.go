// Package main runs the newsletter pipeline on a cron schedule.
//
// The worker serves Prometheus metrics on METRICS_PORT and health checks on
// WORKER_HEALTH_PORT, and optionally posts run outcomes to Slack or Discord.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"tech-newsletter/internal/app"
	"tech-newsletter/internal/config"
	"tech-newsletter/internal/infra/notifier"
	workerPkg "tech-newsletter/internal/infra/worker"
	"tech-newsletter/internal/observability/logging"
	"tech-newsletter/internal/observability/tracing"
	pkgconfig "tech-newsletter/pkg/config"
)

// drainTimeout bounds how long shutdown waits for an active run.
const drainTimeout = 2 * time.Minute

func main() {
	_ = godotenv.Load()

	logger := logging.New(os.Stdout, logging.OptionsFromEnv())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runWorker(ctx, logger); err != nil {
		logger.Error("worker stopped with error", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}

func runWorker(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	workerMetrics := workerPkg.NewWorkerMetrics(nil)
	workerConfig := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err := workerConfig.Validate(); err != nil {
		return err
	}
	logger.Info("worker configuration loaded",
		slog.Any("config", cfg),
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Int("health_port", workerConfig.HealthPort),
		slog.Int("metrics_port", workerConfig.MetricsPort))

	shutdownTracing := tracing.Setup("tech-newsletter-worker", logger)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	pipelineApp, err := app.Build(ctx, cfg, app.Options{Logger: logger})
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", workerConfig.HealthPort), logger)
	job := workerPkg.NewJob(pipelineApp.Controller, workerPkg.JobConfig{
		Request:         pipelineApp.Request,
		Timeout:         cfg.RunTimeout,
		Notifier:        buildNotifier(logger),
		NotifyOnSuccess: workerConfig.NotifyOnSuccess,
		NotifyTimeout:   workerConfig.NotifyTimeout,
		Metrics:         workerMetrics,
		Health:          healthServer,
		Logger:          logger,
	})

	scheduler, err := workerPkg.NewScheduler(ctx, workerConfig, job, workerMetrics, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := healthServer.Start(gctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return serveUntilDone(gctx, newMetricsServer(workerConfig.MetricsPort), logger)
	})
	g.Go(func() error {
		scheduler.Start()
		healthServer.SetReady(true)
		logger.Info("worker started",
			slog.String("schedule", workerConfig.CronSchedule),
			slog.String("timezone", workerConfig.Timezone))

		if workerConfig.RunOnStart {
			go scheduler.RunNow()
		}

		<-gctx.Done()
		healthServer.SetReady(false)
		logger.Info("worker stopping, waiting for active run")

		select {
		case <-scheduler.Stop().Done():
		case <-time.After(drainTimeout):
			logger.Warn("active run did not finish before shutdown", slog.Duration("waited", drainTimeout))
		}
		return nil
	})

	return g.Wait()
}

// buildNotifier assembles the enabled alert channels.
//
// Environment variables:
//   - SLACK_ENABLED, SLACK_WEBHOOK_URL (https://hooks.slack.com/services/...)
//   - DISCORD_ENABLED, DISCORD_WEBHOOK_URL (https://discord.com/api/webhooks/...)
func buildNotifier(logger *slog.Logger) notifier.Notifier {
	var channels notifier.Multi

	if pkgconfig.GetEnvBool("SLACK_ENABLED", false) {
		webhookURL := pkgconfig.GetEnvString("SLACK_WEBHOOK_URL", "")
		if err := validateWebhookURL(webhookURL, []string{"hooks.slack.com"}, "/services/"); err != nil {
			logger.Warn("Slack notifications disabled", slog.Any("error", err))
		} else {
			channels = append(channels, notifier.NewSlackNotifier(notifier.SlackConfig{
				Enabled:    true,
				WebhookURL: webhookURL,
				Timeout:    30 * time.Second,
			}))
			logger.Info("Slack channel initialized")
		}
	}

	if pkgconfig.GetEnvBool("DISCORD_ENABLED", false) {
		webhookURL := pkgconfig.GetEnvString("DISCORD_WEBHOOK_URL", "")
		if err := validateWebhookURL(webhookURL, []string{"discord.com", "discordapp.com"}, "/api/webhooks/"); err != nil {
			logger.Warn("Discord notifications disabled", slog.Any("error", err))
		} else {
			channels = append(channels, notifier.NewDiscordNotifier(notifier.DiscordConfig{
				Enabled:    true,
				WebhookURL: webhookURL,
				Timeout:    30 * time.Second,
			}))
			logger.Info("Discord channel initialized")
		}
	}

	if len(channels) == 0 {
		return notifier.NewNoOpNotifier()
	}
	return channels
}

// validateWebhookURL requires an https URL on one of hosts under pathPrefix.
func validateWebhookURL(raw string, hosts []string, pathPrefix string) error {
	if raw == "" {
		return errors.New("webhook URL is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}
	if u.Scheme != "https" {
		return errors.New("webhook URL must use HTTPS")
	}
	hostOK := false
	for _, h := range hosts {
		if u.Host == h {
			hostOK = true
			break
		}
	}
	if !hostOK {
		return fmt.Errorf("unexpected webhook host %q", u.Host)
	}
	if !strings.HasPrefix(u.Path, pathPrefix) {
		return fmt.Errorf("webhook path must start with %s", pathPrefix)
	}
	return nil
}
