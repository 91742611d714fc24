package summarizer

import (
	"context"

	"tech-newsletter/internal/usecase/curate"
	"tech-newsletter/internal/utils/text"
)

// Echo is an offline generator that returns the prompt text itself, cut to the
// character limit. It makes no network calls and is used for dry runs and tests.
type Echo struct{}

// NewEcho creates a new Echo generator.
func NewEcho() *Echo {
	return &Echo{}
}

// Generate implements curate.Generator.
func (Echo) Generate(_ context.Context, p curate.Prompt) (string, error) {
	out := text.CollapseSpace(p.Text)
	if out == "" {
		out = p.Title
	}
	if p.Kind == curate.PromptIntro {
		out = p.Title + ": " + out
	}
	return text.Truncate(out, p.CharLimit, "..."), nil
}
