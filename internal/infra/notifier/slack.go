package notifier

import (
	"context"
	"strings"
	"time"

	"tech-newsletter/internal/domain/entity"
	"tech-newsletter/internal/utils/text"
)

// SlackConfig contains configuration for Slack webhook notifications.
type SlackConfig struct {
	Enabled bool

	// WebhookURL is the Slack Incoming Webhook URL (includes authentication token)
	WebhookURL string

	Timeout time.Duration

	// RetryDelay is the base delay between attempts. Defaults to 5s.
	RetryDelay time.Duration
}

// SlackNotifier posts run outcomes to Slack via Incoming Webhook.
type SlackNotifier struct {
	webhook *webhook
}

// NewSlackNotifier creates a SlackNotifier limited to 1 request/second,
// the Slack webhook limit.
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	return &SlackNotifier{
		webhook: newWebhook("Slack", config.WebhookURL, config.Timeout, config.RetryDelay, NewRateLimiter(1.0, 1)),
	}
}

// SlackWebhookPayload is the Block Kit message body.
type SlackWebhookPayload struct {
	Text   string       `json:"text"`
	Blocks []SlackBlock `json:"blocks"`
}

// SlackBlock represents a Slack Block Kit block.
type SlackBlock struct {
	Type     string            `json:"type"`
	Text     *SlackTextObject  `json:"text,omitempty"`
	Elements []SlackTextObject `json:"elements,omitempty"`
}

// SlackTextObject represents a text object in Slack Block Kit.
type SlackTextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	// Slack Block Kit limits
	maxSectionTextLength = 3000
	maxFallbackLength    = 150
)

func buildSlackPayload(r entity.RunResult) SlackWebhookPayload {
	icon := ":white_check_mark:"
	if !r.Success {
		icon = ":x:"
	}
	title := headline(r)

	section := "*" + icon + " " + title + "*\n" + strings.Join(details(r, 1000), "\n")

	return SlackWebhookPayload{
		Text: text.Truncate(title, maxFallbackLength-3, "..."),
		Blocks: []SlackBlock{
			{
				Type: "section",
				Text: &SlackTextObject{Type: "mrkdwn", Text: text.Truncate(section, maxSectionTextLength-3, "...")},
			},
			{
				Type:     "context",
				Elements: []SlackTextObject{{Type: "mrkdwn", Text: "tech-newsletter • " + r.StartedAt.Format(time.RFC3339)}},
			},
		},
	}
}

// NotifyRun implements Notifier.
func (s *SlackNotifier) NotifyRun(ctx context.Context, result entity.RunResult) error {
	return s.webhook.deliver(ctx, result.RunID, buildSlackPayload(result))
}
