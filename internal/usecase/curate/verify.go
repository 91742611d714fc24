package curate

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"tech-newsletter/internal/domain/entity"
)

// itemSelector matches the per-item sections emitted by the newsletter template.
const itemSelector = "div.news-item[data-item-key]"

// VerifyNewsletter checks the Newsletter contract: BodyHTML holds exactly one section
// per source item and no other sections, and the title embeds the generation date in
// the locale's format. Violations wrap entity.ErrInvariant.
func VerifyNewsletter(n *entity.Newsletter, locale Locale) error {
	if n == nil {
		return fmt.Errorf("%w: newsletter is nil", entity.ErrInvariant)
	}

	date := locale.FormatDate(n.GeneratedAt)
	if !strings.Contains(n.Title, date) {
		return fmt.Errorf("%w: title %q does not contain date %q", entity.ErrInvariant, n.Title, date)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(n.BodyHTML))
	if err != nil {
		return fmt.Errorf("%w: parse body: %w", entity.ErrInvariant, err)
	}

	rendered := make(map[string]int)
	doc.Find(itemSelector).Each(func(_ int, s *goquery.Selection) {
		key, _ := s.Attr("data-item-key")
		rendered[key]++
	})

	for _, item := range n.SourceItems {
		switch count := rendered[item.Key()]; count {
		case 1:
			delete(rendered, item.Key())
		case 0:
			return fmt.Errorf("%w: item %s has no section", entity.ErrInvariant, item.URL)
		default:
			return fmt.Errorf("%w: item %s rendered %d times", entity.ErrInvariant, item.URL, count)
		}
	}
	if len(rendered) > 0 {
		return fmt.Errorf("%w: %d section(s) match no source item", entity.ErrInvariant, len(rendered))
	}

	return nil
}
