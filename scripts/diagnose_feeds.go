// diagnose_feeds fetches one or more feeds the way the Collector does and
// prints how each entry would rank. Useful when tuning RANKING_CONFIG.
//
// Usage:
//
//	go run ./scripts/diagnose_feeds.go [feed-url ...]
//
// Without arguments the configured FEED_URL is diagnosed.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"tech-newsletter/internal/config"
	"tech-newsletter/internal/domain/entity"
	"tech-newsletter/internal/infra/scraper"
	"tech-newsletter/internal/usecase/collect"
)

// FeedDiagnostic is the report for a single feed.
type FeedDiagnostic struct {
	URL          string          `json:"url"`
	Status       string          `json:"status"` // "OK", "EMPTY", "FETCH_ERROR"
	Candidates   int             `json:"candidates"`
	LatestDate   string          `json:"latest_date,omitempty"`
	Undated      int             `json:"undated"`
	ResponseTime int64           `json:"response_time_ms"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Ranking      []RankingResult `json:"ranking,omitempty"`
}

// RankingResult is one ranked candidate with its score breakdown.
type RankingResult struct {
	Rank       int     `json:"rank"`
	SourceRank int     `json:"source_rank"`
	Score      float64 `json:"score"`
	Recency    float64 `json:"recency"`
	Keyword    float64 `json:"keyword"`
	Selected   bool    `json:"selected"`
	Title      string  `json:"title"`
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	urls := os.Args[1:]
	if len(urls) == 0 {
		urls = []string{cfg.Feed.URL}
	}

	fetcher := scraper.NewRSSFetcher(&http.Client{Timeout: 30 * time.Second})
	collector := collect.NewService(fetcher, cfg.Feed.Ranking)

	diagnostics := make([]FeedDiagnostic, 0, len(urls))
	for i, url := range urls {
		log.Printf("[%d/%d] Diagnosing: %s", i+1, len(urls), url)
		diagnostics = append(diagnostics, diagnoseFeed(collector, cfg, url))
		if i < len(urls)-1 {
			time.Sleep(500 * time.Millisecond)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(diagnostics); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
}

func diagnoseFeed(collector *collect.Service, cfg *config.Config, url string) FeedDiagnostic {
	diag := FeedDiagnostic{URL: url}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	start := time.Now()
	candidates, err := collector.CollectCandidates(ctx, url, cfg.Feed.FetchLimit)
	diag.ResponseTime = time.Since(start).Milliseconds()

	switch {
	case errors.Is(err, entity.ErrInsufficientItems):
		diag.Status = "EMPTY"
		diag.ErrorMessage = err.Error()
		return diag
	case err != nil:
		diag.Status = "FETCH_ERROR"
		diag.ErrorMessage = err.Error()
		return diag
	}

	diag.Status = "OK"
	diag.Candidates = len(candidates)

	var latest time.Time
	for _, c := range candidates {
		if c.PublishedAt.IsZero() {
			diag.Undated++
		} else if c.PublishedAt.After(latest) {
			latest = c.PublishedAt
		}
	}
	if !latest.IsZero() {
		diag.LatestDate = latest.Format(time.RFC3339)
	}

	for i, sc := range collect.Rank(candidates, cfg.Feed.Ranking) {
		diag.Ranking = append(diag.Ranking, RankingResult{
			Rank:       i + 1,
			SourceRank: sc.Item.SourceRank,
			Score:      round(sc.Score),
			Recency:    round(sc.Recency),
			Keyword:    round(sc.Keyword),
			Selected:   i < cfg.Feed.SelectionLimit,
			Title:      sc.Item.Title,
		})
	}
	return diag
}

func round(f float64) float64 {
	return math.Round(f*1e4) / 1e4
}
