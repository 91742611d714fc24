package curate

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// Section is one curated item ready for rendering.
type Section struct {
	Key     string
	Title   string
	Summary string
	URL     string
}

type renderItem struct {
	Section
	Index int
}

type renderData struct {
	Lang     string
	Title    string
	Intro    string
	Items    []renderItem
	ReadMore string
	Footer   string
}

// Renderer renders the newsletter as HTML with a plain text alternative.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer creates a renderer with the default newsletter template.
func NewRenderer() *Renderer {
	t := template.Must(template.New("newsletter").Parse(newsletterHTMLTemplate))
	return &Renderer{tmpl: t}
}

// Render produces the HTML body and the plain text body.
// Sections appear in the order given, one block per section.
func (r *Renderer) Render(locale Locale, title, intro string, sections []Section) (string, string, error) {
	data := renderData{
		Lang:     locale.HTMLLang,
		Title:    title,
		Intro:    intro,
		Items:    make([]renderItem, len(sections)),
		ReadMore: locale.ReadMore,
		Footer:   locale.Footer,
	}
	for i, s := range sections {
		data.Items[i] = renderItem{Section: s, Index: i + 1}
	}

	var htmlBuf bytes.Buffer
	if err := r.tmpl.Execute(&htmlBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to render HTML template: %w", err)
	}

	return htmlBuf.String(), renderPlainText(data), nil
}

// renderPlainText produces a readable plain text version for email clients that don't support HTML.
func renderPlainText(data renderData) string {
	var sb strings.Builder

	sb.WriteString(data.Title + "\n")
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	if data.Intro != "" {
		sb.WriteString(data.Intro + "\n\n")
	}

	for _, it := range data.Items {
		sb.WriteString(fmt.Sprintf("%d. %s\n", it.Index, it.Title))
		sb.WriteString(strings.Repeat("-", 20) + "\n")
		sb.WriteString(it.Summary + "\n")
		sb.WriteString(fmt.Sprintf("%s: %s\n\n", data.ReadMore, it.URL))
	}

	sb.WriteString(data.Footer + "\n")
	return sb.String()
}
