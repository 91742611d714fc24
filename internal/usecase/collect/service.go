// Package collect implements the Collector stage: it fetches the news feed,
// orders entries into a CandidateSet and selects the highest-ranked items.
package collect

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"tech-newsletter/internal/domain/entity"
	"tech-newsletter/internal/observability/logging"
	"tech-newsletter/internal/observability/metrics"
)

// FeedFetcher is an interface for fetching RSS/Atom feeds from a URL.
// Entries are returned in feed document order.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]FeedEntry, error)
}

// FeedEntry represents a single entry from an RSS/Atom feed.
type FeedEntry struct {
	Title       string
	Link        string
	Description string
	// PublishedAt is the zero time when the feed carries no parseable date.
	PublishedAt time.Time
	Categories  []string
}

// Service provides the Collector stage.
type Service struct {
	fetcher FeedFetcher
	ranking RankingConfig
}

// NewService creates a Collector using fetcher for network access and ranking for scoring.
func NewService(fetcher FeedFetcher, ranking RankingConfig) *Service {
	return &Service{fetcher: fetcher, ranking: ranking}
}

// Collect fetches feedURL and returns the top selectionLimit items of the ranked CandidateSet.
// A feed with fewer usable entries than selectionLimit yields a shorter selection;
// an empty feed fails with entity.ErrInsufficientItems.
func (s *Service) Collect(ctx context.Context, feedURL string, fetchLimit, selectionLimit int) (entity.SelectionSet, error) {
	if selectionLimit < 1 {
		return nil, &entity.ValidationError{Field: "selection_limit", Message: "must be at least 1"}
	}

	candidates, err := s.CollectCandidates(ctx, feedURL, fetchLimit)
	if err != nil {
		return nil, err
	}

	n := min(selectionLimit, len(candidates))
	selection := make(entity.SelectionSet, n)
	copy(selection, candidates[:n])
	metrics.RecordCollection(len(candidates), len(selection))

	logging.FromContext(ctx).Info("collection completed",
		slog.Int("candidates", len(candidates)),
		slog.Int("selected", len(selection)),
		slog.Any("urls", selection.URLs()))

	return selection, nil
}

// CollectCandidates fetches feedURL and returns up to fetchLimit most recent entries,
// ordered by ranking score.
func (s *Service) CollectCandidates(ctx context.Context, feedURL string, fetchLimit int) (entity.CandidateSet, error) {
	if fetchLimit < 1 {
		return nil, &entity.ValidationError{Field: "fetch_limit", Message: "must be at least 1"}
	}
	if err := entity.ValidateFeedURL(feedURL); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrFetch, err)
	}

	logger := logging.FromContext(ctx)
	start := time.Now()

	entries, err := s.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		if errors.Is(err, entity.ErrFetch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", entity.ErrFetch, feedURL, err)
	}

	items := toNewsItems(entries)
	logger.Info("feed fetched",
		slog.String("feed_url", feedURL),
		slog.Int("entries", len(entries)),
		slog.Int("usable", len(items)),
		slog.Duration("duration", time.Since(start)))

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s", entity.ErrInsufficientItems, feedURL)
	}

	recent := mostRecent(items, fetchLimit)
	scored := Rank(recent, s.ranking)

	candidates := make(entity.CandidateSet, len(scored))
	for i, sc := range scored {
		candidates[i] = sc.Item
		logger.Debug("candidate ranked",
			slog.Int("rank", i+1),
			slog.Int("source_rank", sc.Item.SourceRank),
			slog.Float64("score", sc.Score),
			slog.Float64("recency", sc.Recency),
			slog.Float64("keyword", sc.Keyword),
			slog.String("title", sc.Item.Title))
	}

	return candidates, nil
}

// toNewsItems maps feed entries onto NewsItems.
// Entries without a link have no identity and are dropped, as are repeated links.
func toNewsItems(entries []FeedEntry) []entity.NewsItem {
	items := make([]entity.NewsItem, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))

	for i, e := range entries {
		link := strings.TrimSpace(e.Link)
		if link == "" {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}

		items = append(items, entity.NewsItem{
			Title:       strings.TrimSpace(e.Title),
			Summary:     strings.TrimSpace(e.Description),
			URL:         link,
			PublishedAt: e.PublishedAt,
			SourceRank:  i + 1,
			Categories:  e.Categories,
		})
	}
	return items
}

// mostRecent returns up to limit items, newest first.
// Dated items precede undated ones; feed position breaks ties.
func mostRecent(items []entity.NewsItem, limit int) entity.CandidateSet {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b entity.NewsItem) int {
		aZero, bZero := a.PublishedAt.IsZero(), b.PublishedAt.IsZero()
		switch {
		case aZero && bZero:
			return cmp.Compare(a.SourceRank, b.SourceRank)
		case aZero:
			return 1
		case bZero:
			return -1
		}
		if c := b.PublishedAt.Compare(a.PublishedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.SourceRank, b.SourceRank)
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return entity.CandidateSet(sorted)
}
