package partial

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conneroisu/livefield/internal/content"
)

type fieldRenderer func(rec *content.Record, rc RenderContext) templ.Component

var fieldRenderers = map[string]fieldRenderer{
	"title":   renderTitle,
	"body":    renderBody,
	"summary": renderSummary,
}

// SupportedFields lists the field ids Render can produce output for.
func SupportedFields() []string {
	fields := make([]string, 0, len(fieldRenderers))
	for name := range fieldRenderers {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

// renderTitle links the title to the record only when the record is part of
// the current listing.
func renderTitle(rec *content.Record, rc RenderContext) templ.Component {
	title := rec.Field("title")
	if !rc.inScope(rec.ID) || rec.Permalink == "" {
		return text(title)
	}
	return link(templ.URL(rec.Permalink), title)
}

func renderBody(rec *content.Record, rc RenderContext) templ.Component {
	return templ.Raw(rc.transform("body", rec.Field("body")))
}

func renderSummary(rec *content.Record, rc RenderContext) templ.Component {
	raw := rec.Field("summary")
	if strings.TrimSpace(raw) == "" {
		if ex, ok := rc.Transform.(Excerpter); ok {
			raw = ex.Excerpt(rec.Field("body"))
		}
	}
	return templ.Raw(rc.transform("summary", raw))
}

func text(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(s))
		return err
	})
}

func link(href templ.SafeURL, label string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<a href="`+templ.EscapeString(string(href))+`" rel="bookmark">`+
			templ.EscapeString(label)+`</a>`)
		return err
	})
}

func protectedPlaceholder(fieldID string) templ.Component {
	return placeholder("protected", "Protected", fieldID)
}

func privatePlaceholder(fieldID string) templ.Component {
	return placeholder("private", "Private", fieldID)
}

func placeholder(kind, marker, fieldID string) templ.Component {
	label := cases.Title(language.English).String(strings.ReplaceAll(fieldID, "_", " "))
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<span class="record-field-placeholder record-field-`+kind+`" data-field="`+
			templ.EscapeString(fieldID)+`">`+marker+`: `+templ.EscapeString(label)+`</span>`)
		return err
	})
}
