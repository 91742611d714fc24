package collect

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tech-newsletter/internal/domain/entity"
	"tech-newsletter/internal/utils/text"
)

// RankingConfig parameterizes the importance score.
//
// For every candidate:
//
//	recency = 1 / (1 + hoursBehindNewest / RecencyHalfLifeHours)
//	keyword = min(1, (2*titleHits + bodyHits) / KeywordSaturation)
//	score   = RecencyWeight*recency + KeywordWeight*keyword
//
// hoursBehindNewest is measured from the newest PublishedAt among the candidates,
// so the score depends only on the feed content, never on the wall clock.
// Undated candidates get recency 0. A keyword found in the title counts as a
// title hit; a keyword found only in the summary or categories counts as a body hit.
// Candidates are ordered by score descending; equal scores keep feed order.
type RankingConfig struct {
	RecencyWeight        float64  `yaml:"recency_weight"`
	KeywordWeight        float64  `yaml:"keyword_weight"`
	RecencyHalfLifeHours float64  `yaml:"recency_half_life_hours"`
	KeywordSaturation    float64  `yaml:"keyword_saturation"`
	Keywords             []string `yaml:"keywords"`
}

// DefaultRankingConfig returns the built-in ranking parameters tuned for an AI news feed.
func DefaultRankingConfig() RankingConfig {
	return RankingConfig{
		RecencyWeight:        0.6,
		KeywordWeight:        0.4,
		RecencyHalfLifeHours: 24,
		KeywordSaturation:    4,
		Keywords: []string{
			"ai", "openai", "llm", "model", "agent", "gpt",
			"anthropic", "google", "startup", "funding", "chip", "robot",
		},
	}
}

// Validate checks that the configuration produces finite, non-negative scores.
func (c RankingConfig) Validate() error {
	var errs []error
	if c.RecencyWeight < 0 || c.KeywordWeight < 0 {
		errs = append(errs, errors.New("ranking weights must not be negative"))
	}
	if c.RecencyWeight+c.KeywordWeight == 0 {
		errs = append(errs, errors.New("at least one ranking weight must be positive"))
	}
	if c.RecencyHalfLifeHours <= 0 {
		errs = append(errs, fmt.Errorf("recency_half_life_hours must be positive, got %v", c.RecencyHalfLifeHours))
	}
	if c.KeywordSaturation <= 0 {
		errs = append(errs, fmt.Errorf("keyword_saturation must be positive, got %v", c.KeywordSaturation))
	}
	return errors.Join(errs...)
}

// LoadRankingConfig reads a YAML file on top of DefaultRankingConfig.
// Fields absent from the file keep their default value. An empty path returns the defaults.
func LoadRankingConfig(path string) (RankingConfig, error) {
	cfg := DefaultRankingConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
	if err != nil {
		return RankingConfig{}, fmt.Errorf("read ranking config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RankingConfig{}, fmt.Errorf("parse ranking config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return RankingConfig{}, fmt.Errorf("invalid ranking config %s: %w", path, err)
	}
	return cfg, nil
}

// ScoredItem is a candidate together with its score components.
type ScoredItem struct {
	Item    entity.NewsItem
	Recency float64
	Keyword float64
	Score   float64
}

// Rank scores candidates and returns them ordered by score descending.
// Ties are broken by SourceRank ascending. The result is identical for identical input.
func Rank(candidates entity.CandidateSet, cfg RankingConfig) []ScoredItem {
	var newest time.Time
	for _, c := range candidates {
		if c.PublishedAt.After(newest) {
			newest = c.PublishedAt
		}
	}

	keywords := normalizeKeywords(cfg.Keywords)

	scored := make([]ScoredItem, len(candidates))
	for i, c := range candidates {
		rec := recencyScore(c.PublishedAt, newest, cfg.RecencyHalfLifeHours)
		kw := keywordScore(c, keywords, cfg.KeywordSaturation)
		scored[i] = ScoredItem{
			Item:    c,
			Recency: rec,
			Keyword: kw,
			Score:   cfg.RecencyWeight*rec + cfg.KeywordWeight*kw,
		}
	}

	slices.SortStableFunc(scored, func(a, b ScoredItem) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Item.SourceRank, b.Item.SourceRank)
	})
	return scored
}

func recencyScore(published, newest time.Time, halfLifeHours float64) float64 {
	if published.IsZero() || halfLifeHours <= 0 {
		return 0
	}
	behind := math.Max(0, newest.Sub(published).Hours())
	return 1 / (1 + behind/halfLifeHours)
}

func keywordScore(item entity.NewsItem, keywords []string, saturation float64) float64 {
	if len(keywords) == 0 || saturation <= 0 {
		return 0
	}

	title := text.NewPhraseIndex(item.Title)
	body := text.NewPhraseIndex(item.Summary + " " + strings.Join(item.Categories, " "))

	hits := 0
	for _, kw := range keywords {
		switch {
		case title.Contains(kw):
			hits += 2
		case body.Contains(kw):
			hits++
		}
	}
	return math.Min(1, float64(hits)/saturation)
}

// normalizeKeywords lowercases keywords and drops blanks and duplicates, keeping first occurrence order.
func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		norm := strings.Join(text.Tokens(kw), " ")
		if norm == "" {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}
