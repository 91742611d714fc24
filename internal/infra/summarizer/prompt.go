package summarizer

import (
	"fmt"

	"tech-newsletter/internal/usecase/curate"
	"tech-newsletter/internal/utils/text"
)

// BuildPrompt renders p into a system instruction and a user message.
// Article text longer than maxInputRunes is truncated.
func BuildPrompt(p curate.Prompt) (system, user string) {
	system = fmt.Sprintf(
		"You are the editor of a technology newsletter about AI. "+
			"Write in %s. Reply with plain text only, without markdown or HTML, "+
			"in at most %d characters.",
		p.Language, p.CharLimit)

	body := text.Truncate(p.Text, maxInputRunes, "...")

	switch p.Kind {
	case curate.PromptIntro:
		user = fmt.Sprintf(
			"Write a short, friendly introduction of two or three sentences for today's issue of %q. "+
				"It covers these headlines:\n%s",
			p.Title, body)
	default:
		user = fmt.Sprintf(
			"Summarize the following news article for newsletter readers. "+
				"Explain what happened and why it matters.\n\nTitle: %s\nURL: %s\n\n%s",
			p.Title, p.URL, body)
	}
	return system, user
}
