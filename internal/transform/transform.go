// Package transform implements the formatting pipeline applied to long-form
// record fields before they are shown on a page: Unicode normalization,
// paragraph wrapping, and HTML sanitizing. Live-preview fragments run through
// the same pipeline so a patched region matches a full page render.
package transform

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// DefaultExcerptWords is the summary length generated from a body.
const DefaultExcerptWords = 55

// ExcerptMore is appended to generated summaries that were truncated.
const ExcerptMore = " […]"

// Pipeline formats field values.
type Pipeline struct {
	// ExcerptWords bounds summaries generated from the body
	ExcerptWords int
	// Autop wraps blank-line separated blocks in paragraphs
	Autop bool
}

// NewPipeline returns a pipeline with paragraph wrapping enabled.
func NewPipeline(excerptWords int) *Pipeline {
	if excerptWords <= 0 {
		excerptWords = DefaultExcerptWords
	}
	return &Pipeline{ExcerptWords: excerptWords, Autop: true}
}

// Transform formats raw for display in the given field.
// Fields other than body and summary are returned escaped.
func (p *Pipeline) Transform(fieldID, raw string) string {
	value := norm.NFC.String(raw)

	switch fieldID {
	case "body", "summary":
		if p.Autop {
			value = Autop(value)
		}
		return Sanitize(value)
	default:
		return html.EscapeString(value)
	}
}

// Excerpt builds a plain-text summary from body markup.
func (p *Pipeline) Excerpt(body string) string {
	return TrimWords(StripTags(norm.NFC.String(body)), p.ExcerptWords, ExcerptMore)
}

// TrimWords keeps the first n whitespace-separated words of text, appending
// more when anything was cut.
func TrimWords(text string, n int, more string) string {
	words := strings.Fields(text)
	if n <= 0 || len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + more
}

// StripTags returns the text content of an HTML fragment. Text stays escaped
// so the result can be parsed as markup again without creating elements.
func StripTags(fragment string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			if skip == 0 {
				b.WriteString(html.EscapeString(string(z.Text())))
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			if droppedElements[string(name)] {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			name, _ := z.TagName()
			if droppedElements[string(name)] && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		}
	}
}
