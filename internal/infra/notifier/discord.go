package notifier

import (
	"context"
	"strings"
	"time"

	"tech-newsletter/internal/domain/entity"
	"tech-newsletter/internal/utils/text"
)

// DiscordConfig contains configuration for Discord webhook notifications.
type DiscordConfig struct {
	Enabled bool

	// WebhookURL is the Discord webhook URL (includes authentication token)
	WebhookURL string

	Timeout    time.Duration
	RetryDelay time.Duration
}

// DiscordNotifier posts run outcomes to Discord via webhook.
type DiscordNotifier struct {
	webhook *webhook
}

// NewDiscordNotifier creates a DiscordNotifier limited to 30 requests per
// minute with a burst of 3.
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{
		webhook: newWebhook("Discord", config.WebhookURL, config.Timeout, config.RetryDelay, NewRateLimiter(0.5, 3)),
	}
}

// DiscordWebhookPayload represents the JSON payload sent to Discord webhook.
type DiscordWebhookPayload struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed represents a Discord embed message.
type DiscordEmbed struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Color       int                `json:"color"`
	Footer      DiscordEmbedFooter `json:"footer"`
	Timestamp   string             `json:"timestamp"`
}

// DiscordEmbedFooter represents the footer of a Discord embed.
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

const (
	colorSuccess = 0x57F287
	colorFailure = 0xED4245

	maxEmbedTitleLength       = 256
	maxEmbedDescriptionLength = 4096
)

func buildDiscordPayload(r entity.RunResult) DiscordWebhookPayload {
	color := colorSuccess
	if !r.Success {
		color = colorFailure
	}
	return DiscordWebhookPayload{
		Embeds: []DiscordEmbed{{
			Title:       text.Truncate(headline(r), maxEmbedTitleLength-3, "..."),
			Description: text.Truncate(strings.Join(details(r, 1000), "\n"), maxEmbedDescriptionLength-3, "..."),
			Color:       color,
			Footer:      DiscordEmbedFooter{Text: "tech-newsletter"},
			Timestamp:   r.StartedAt.UTC().Format(time.RFC3339),
		}},
	}
}

// NotifyRun implements Notifier.
func (d *DiscordNotifier) NotifyRun(ctx context.Context, result entity.RunResult) error {
	return d.webhook.deliver(ctx, result.RunID, buildDiscordPayload(result))
}
