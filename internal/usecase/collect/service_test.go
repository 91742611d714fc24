package collect_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tech-newsletter/internal/domain/entity"
	"tech-newsletter/internal/usecase/collect"
)

const testFeedURL = "https://techcrunch.com/category/artificial-intelligence/feed/"

type stubFeedFetcher struct {
	entries []collect.FeedEntry
	err     error
	calls   int
	gotURL  string
}

func (s *stubFeedFetcher) Fetch(_ context.Context, url string) ([]collect.FeedEntry, error) {
	s.calls++
	s.gotURL = url
	if s.err != nil {
		return nil, s.err
	}
	return s.entries, nil
}

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// fiveEntries has distinct scores under DefaultRankingConfig:
// #2 0.954, #3 0.776, #1 0.600, #5 0.550, #4 0.200.
func fiveEntries() []collect.FeedEntry {
	return []collect.FeedEntry{
		{Title: "Weather update", Link: "https://example.com/1", PublishedAt: baseTime},
		{Title: "OpenAI launches new GPT model", Link: "https://example.com/2", PublishedAt: baseTime.Add(-2 * time.Hour)},
		{Title: "Quarterly earnings", Link: "https://example.com/3", Description: "A startup raised funding", PublishedAt: baseTime.Add(-1 * time.Hour)},
		{Title: "Local news", Link: "https://example.com/4", PublishedAt: baseTime.Add(-48 * time.Hour)},
		{Title: "Robot chip", Link: "https://example.com/5", PublishedAt: baseTime.Add(-72 * time.Hour)},
	}
}

func newService(fetcher collect.FeedFetcher) *collect.Service {
	return collect.NewService(fetcher, collect.DefaultRankingConfig())
}

func TestCollect_SelectsHighestScored(t *testing.T) {
	// Arrange
	fetcher := &stubFeedFetcher{entries: fiveEntries()}
	svc := newService(fetcher)

	// Act
	selection, err := svc.Collect(context.Background(), testFeedURL, 5, 3)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.com/2",
		"https://example.com/3",
		"https://example.com/1",
	}, selection.URLs())
	assert.Equal(t, 2, selection[0].SourceRank)
	assert.Equal(t, testFeedURL, fetcher.gotURL)
}

func TestCollect_SelectionIsPrefixOfCandidates(t *testing.T) {
	svc := newService(&stubFeedFetcher{entries: fiveEntries()})

	candidates, err := svc.CollectCandidates(context.Background(), testFeedURL, 5)
	require.NoError(t, err)
	selection, err := svc.Collect(context.Background(), testFeedURL, 5, 3)
	require.NoError(t, err)

	assert.Len(t, candidates, 5)
	assert.True(t, selection.IsRankedSubsequenceOf(candidates))
	if diff := cmp.Diff([]entity.NewsItem(candidates[:3]), []entity.NewsItem(selection)); diff != "" {
		t.Errorf("selection mismatch (-candidates +selection):\n%s", diff)
	}
}

func TestCollect_LengthIsMinOfLimitAndFetched(t *testing.T) {
	tests := []struct {
		name           string
		entries        int
		fetchLimit     int
		selectionLimit int
		want           int
	}{
		{name: "more entries than limits", entries: 5, fetchLimit: 5, selectionLimit: 3, want: 3},
		{name: "fewer entries than selection", entries: 2, fetchLimit: 5, selectionLimit: 3, want: 2},
		{name: "single entry", entries: 1, fetchLimit: 5, selectionLimit: 3, want: 1},
		{name: "fetch limit below selection", entries: 5, fetchLimit: 2, selectionLimit: 3, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(&stubFeedFetcher{entries: fiveEntries()[:tt.entries]})

			selection, err := svc.Collect(context.Background(), testFeedURL, tt.fetchLimit, tt.selectionLimit)

			require.NoError(t, err)
			assert.Len(t, selection, tt.want)
		})
	}
}

func TestCollect_Deterministic(t *testing.T) {
	svc := newService(&stubFeedFetcher{entries: fiveEntries()})

	first, err := svc.Collect(context.Background(), testFeedURL, 5, 3)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := svc.Collect(context.Background(), testFeedURL, 5, 3)
		require.NoError(t, err)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
		}
	}
}

func TestCollect_EmptyFeed(t *testing.T) {
	tests := []struct {
		name    string
		entries []collect.FeedEntry
	}{
		{name: "no entries", entries: nil},
		{name: "entries without links", entries: []collect.FeedEntry{{Title: "no link"}, {Title: "blank", Link: "  "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(&stubFeedFetcher{entries: tt.entries})

			selection, err := svc.Collect(context.Background(), testFeedURL, 5, 3)

			assert.Nil(t, selection)
			assert.ErrorIs(t, err, entity.ErrInsufficientItems)
			assert.Equal(t, entity.KindInsufficientItems, entity.KindOf(err))
		})
	}
}

func TestCollect_FetchError(t *testing.T) {
	fetcher := &stubFeedFetcher{err: errors.New("connection refused")}
	svc := newService(fetcher)

	_, err := svc.Collect(context.Background(), testFeedURL, 5, 3)

	assert.ErrorIs(t, err, entity.ErrFetch)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 1, fetcher.calls)
}

func TestCollect_InvalidFeedURL(t *testing.T) {
	fetcher := &stubFeedFetcher{entries: fiveEntries()}
	svc := newService(fetcher)

	_, err := svc.Collect(context.Background(), "ftp://example.com/feed", 5, 3)

	assert.ErrorIs(t, err, entity.ErrFetch)
	assert.Equal(t, 0, fetcher.calls, "fetcher must not be called for an invalid URL")
}

func TestCollect_InvalidLimits(t *testing.T) {
	svc := newService(&stubFeedFetcher{entries: fiveEntries()})

	_, err := svc.Collect(context.Background(), testFeedURL, 0, 3)
	var vErr *entity.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "fetch_limit", vErr.Field)

	_, err = svc.Collect(context.Background(), testFeedURL, 5, 0)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "selection_limit", vErr.Field)
}

func TestCollectCandidates_KeepsMostRecent(t *testing.T) {
	entries := []collect.FeedEntry{
		{Title: "old", Link: "https://example.com/old", PublishedAt: baseTime.Add(-96 * time.Hour)},
		{Title: "undated", Link: "https://example.com/undated"},
		{Title: "newest", Link: "https://example.com/newest", PublishedAt: baseTime},
		{Title: "middle", Link: "https://example.com/middle", PublishedAt: baseTime.Add(-5 * time.Hour)},
	}
	svc := newService(&stubFeedFetcher{entries: entries})

	candidates, err := svc.CollectCandidates(context.Background(), testFeedURL, 2)

	require.NoError(t, err)
	got := entity.SelectionSet(candidates).URLs()
	assert.ElementsMatch(t, []string{"https://example.com/newest", "https://example.com/middle"}, got)
}

func TestCollectCandidates_DuplicateLinksDropped(t *testing.T) {
	entries := []collect.FeedEntry{
		{Title: "first", Link: "https://example.com/a", PublishedAt: baseTime},
		{Title: "repeat", Link: "https://example.com/a", PublishedAt: baseTime},
		{Title: "second", Link: "https://example.com/b", PublishedAt: baseTime},
	}
	svc := newService(&stubFeedFetcher{entries: entries})

	candidates, err := svc.CollectCandidates(context.Background(), testFeedURL, 5)

	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "first", candidates[0].Title)
	assert.Equal(t, 3, candidates[1].SourceRank, "source rank is the position in the fetched feed")
}
