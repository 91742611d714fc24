// Package curate implements the Curator stage: it turns a SelectionSet into a
// localized Newsletter by summarizing every item with a text generator and
// rendering the results into a fixed HTML template.
package curate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"tech-newsletter/internal/domain/entity"
	"tech-newsletter/internal/observability/logging"
	"tech-newsletter/internal/observability/metrics"
	"tech-newsletter/internal/utils/text"
)

// PromptKind distinguishes the two generation requests the Curator makes.
type PromptKind string

const (
	// PromptItem asks for a localized summary of one news item.
	PromptItem PromptKind = "item"
	// PromptIntro asks for the opening paragraph of the newsletter.
	PromptIntro PromptKind = "intro"
)

// Prompt is the input of one text generation call.
type Prompt struct {
	Kind      PromptKind
	Model     string
	Language  string
	CharLimit int
	Title     string
	URL       string
	// Text is the source material: the item summary or article body for PromptItem,
	// the list of curated headlines for PromptIntro.
	Text string
}

// Generator is the external text generation capability.
// An empty result is treated as a failure.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// ContentFetcher retrieves the readable body of an article.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}

// ModelConfig selects the model and output length for a run.
type ModelConfig struct {
	Model     string
	CharLimit int
}

// DefaultCharLimit bounds generated summaries when ModelConfig leaves it unset.
const DefaultCharLimit = 400

// Service provides the Curator stage.
type Service struct {
	generator        Generator
	renderer         *Renderer
	limiter          *rate.Limiter
	contentFetcher   ContentFetcher
	contentThreshold int
	now              func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithRateLimit paces generation calls to rps requests per second.
// A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Service) {
		if rps <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), max(1, burst))
	}
}

// WithContentFetcher enables article body retrieval for items whose feed summary
// is shorter than threshold runes. Retrieval failures fall back to the feed summary.
func WithContentFetcher(f ContentFetcher, threshold int) Option {
	return func(s *Service) {
		s.contentFetcher = f
		s.contentThreshold = threshold
	}
}

// WithClock overrides the clock used to date the newsletter.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Curator backed by gen.
func NewService(gen Generator, opts ...Option) *Service {
	s := &Service{
		generator: gen,
		renderer:  NewRenderer(),
		limiter:   rate.NewLimiter(rate.Inf, 1),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Curate summarizes every selected item in language and renders the newsletter.
// Curation is all-or-nothing: any generation error or empty result fails the
// whole stage with entity.ErrCuration and no Newsletter is returned.
func (s *Service) Curate(ctx context.Context, selection entity.SelectionSet, language string, model ModelConfig) (*entity.Newsletter, error) {
	if len(selection) == 0 {
		return nil, fmt.Errorf("%w: empty selection", entity.ErrCuration)
	}
	if model.CharLimit <= 0 {
		model.CharLimit = DefaultCharLimit
	}

	logger := logging.FromContext(ctx)
	locale := LookupLocale(language)
	generatedAt := s.now()

	sections := make([]Section, len(selection))
	for i, item := range selection {
		source := s.sourceText(ctx, item)

		summary, err := s.generate(ctx, Prompt{
			Kind:      PromptItem,
			Model:     model.Model,
			Language:  locale.Language,
			CharLimit: model.CharLimit,
			Title:     item.Title,
			URL:       item.URL,
			Text:      source,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: item %d (%s): %w", entity.ErrCuration, i+1, item.URL, err)
		}

		sections[i] = Section{Key: item.Key(), Title: item.Title, Summary: summary, URL: item.URL}
		logger.Debug("item curated",
			slog.Int("position", i+1),
			slog.String("url", item.URL),
			slog.Int("summary_chars", text.CountRunes(summary)))
	}

	intro, err := s.generate(ctx, Prompt{
		Kind:      PromptIntro,
		Model:     model.Model,
		Language:  locale.Language,
		CharLimit: model.CharLimit,
		Title:     locale.TitlePrefix,
		Text:      headlines(sections),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: intro: %w", entity.ErrCuration, err)
	}

	title := locale.Title(generatedAt)
	bodyHTML, bodyText, err := s.renderer.Render(locale, title, intro, sections)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrCuration, err)
	}

	newsletter := &entity.Newsletter{
		Title:       title,
		Intro:       intro,
		BodyHTML:    bodyHTML,
		BodyText:    bodyText,
		Language:    locale.Language,
		GeneratedAt: generatedAt,
		SourceItems: selection,
	}
	if err := VerifyNewsletter(newsletter, locale); err != nil {
		return nil, err
	}

	logger.Info("newsletter curated",
		slog.String("title", title),
		slog.String("language", locale.Language),
		slog.Int("sections", len(sections)))

	return newsletter, nil
}

// generate runs one paced generation call and rejects blank output.
func (s *Service) generate(ctx context.Context, p Prompt) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	out, err := s.generator.Generate(ctx, p)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("generator returned empty content")
	}
	return out, nil
}

// sourceText returns the material to summarize for item: the feed summary, or the
// article body when the summary is too thin and a ContentFetcher is configured.
func (s *Service) sourceText(ctx context.Context, item entity.NewsItem) string {
	if s.contentFetcher == nil {
		return item.Summary
	}
	if text.CountRunes(item.Summary) >= s.contentThreshold {
		metrics.RecordContentFetchSkipped()
		return item.Summary
	}

	start := time.Now()
	body, err := s.contentFetcher.FetchContent(ctx, item.URL)
	if err != nil || strings.TrimSpace(body) == "" {
		metrics.RecordContentFetchFailed(time.Since(start))
		logging.FromContext(ctx).Warn("article content unavailable, using feed summary",
			slog.String("url", item.URL),
			slog.Any("error", err))
		return item.Summary
	}

	metrics.RecordContentFetchSuccess(time.Since(start))
	return body
}

func headlines(sections []Section) string {
	var sb strings.Builder
	for i, s := range sections {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, s.Title)
	}
	return sb.String()
}
