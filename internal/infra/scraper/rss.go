// Package scraper provides the RSS/Atom feed fetcher used by the Collector.
// It uses the gofeed library to parse feed content with reliability patterns.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"tech-newsletter/internal/resilience/circuitbreaker"
	"tech-newsletter/internal/resilience/retry"
	"tech-newsletter/internal/usecase/collect"
	"tech-newsletter/internal/utils/text"
)

const (
	// DefaultUserAgent identifies the fetcher to feed servers.
	DefaultUserAgent = "TechNewsletterBot/1.0"

	// DescriptionLimit caps feed descriptions, counted in runes after HTML is stripped.
	DescriptionLimit = 200
)

// RSSFetcher implements collect.FeedFetcher using the gofeed library.
// It includes circuit breaker and retry logic for improved reliability.
type RSSFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	userAgent      string
}

// Option customizes an RSSFetcher.
type Option func(*RSSFetcher)

// WithRetryConfig replaces the default feed retry policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(f *RSSFetcher) { f.retryConfig = cfg }
}

// WithCircuitBreaker replaces the default feed circuit breaker.
func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(f *RSSFetcher) { f.circuitBreaker = cb }
}

// WithUserAgent sets the User-Agent header sent to feed servers.
func WithUserAgent(ua string) Option {
	return func(f *RSSFetcher) { f.userAgent = ua }
}

// NewRSSFetcher creates a new RSSFetcher with the given HTTP client.
// It automatically configures circuit breaker and retry logic.
func NewRSSFetcher(client *http.Client, opts ...Option) *RSSFetcher {
	f := &RSSFetcher{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
		userAgent:      DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves and parses an RSS/Atom feed from the given URL.
// Transient failures (timeouts, 5xx, 429) are retried; 4xx responses and malformed
// documents fail immediately. Entries are returned in feed order.
func (f *RSSFetcher) Fetch(ctx context.Context, feedURL string) ([]collect.FeedEntry, error) {
	var entries []collect.FeedEntry

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		result, err := circuitbreaker.Do(f.circuitBreaker, func() ([]collect.FeedEntry, error) {
			return f.doFetch(ctx, feedURL)
		})
		if err != nil {
			if circuitbreaker.IsRejection(err) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("service", f.circuitBreaker.Name()),
					slog.String("url", feedURL),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}

		entries = result
		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	return entries, nil
}

// doFetch performs the actual feed fetch without retry or circuit breaker.
func (f *RSSFetcher) doFetch(ctx context.Context, feedURL string) ([]collect.FeedEntry, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = f.userAgent
	fp.Client = f.client

	start := time.Now()
	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &retry.HTTPError{StatusCode: httpErr.StatusCode, Message: httpErr.Status}
		}
		if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
			return nil, fmt.Errorf("malformed feed: %w", err)
		}
		return nil, err
	}

	entries := make([]collect.FeedEntry, 0, len(feed.Items))
	for _, it := range feed.Items {
		entries = append(entries, toEntry(it))
	}

	slog.Debug("feed parsed",
		slog.String("url", feedURL),
		slog.String("feed_type", feed.FeedType),
		slog.Int("items", len(entries)),
		slog.Duration("duration", time.Since(start)))

	return entries, nil
}

// toEntry maps a gofeed item. The description falls back to the full content,
// is reduced to plain text and truncated to DescriptionLimit runes.
func toEntry(it *gofeed.Item) collect.FeedEntry {
	var published time.Time
	switch {
	case it.PublishedParsed != nil:
		published = *it.PublishedParsed
	case it.UpdatedParsed != nil:
		published = *it.UpdatedParsed
	}

	description := it.Description
	if description == "" {
		description = it.Content
	}
	description = text.Truncate(text.StripHTML(description), DescriptionLimit, "...")

	link := it.Link
	if link == "" && len(it.Links) > 0 {
		link = it.Links[0]
	}

	return collect.FeedEntry{
		Title:       text.CollapseSpace(it.Title),
		Link:        link,
		Description: description,
		PublishedAt: published,
		Categories:  it.Categories,
	}
}

var _ collect.FeedFetcher = (*RSSFetcher)(nil)
