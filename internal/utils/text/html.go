package text

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StripHTML converts an HTML fragment to plain text and collapses whitespace.
// Feed descriptions frequently embed markup (images, paragraphs, "continue reading" links);
// only the visible text is kept. Input that fails to parse is returned with whitespace collapsed.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return CollapseSpace(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return CollapseSpace(fragment)
	}
	doc.Find("script, style").Remove()

	return CollapseSpace(doc.Text())
}

// CollapseSpace trims s and replaces every run of whitespace with a single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
