package partial

import (
	"context"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/livefield/internal/content"
)

// RecordLookup fetches the current state of a record.
type RecordLookup interface {
	LookupRecord(contentType string, id int64) (*content.Record, bool)
}

// QueryScope reports which records belong to the page's primary listing.
type QueryScope interface {
	IncludesRecord(id int64) bool
}

// ContentTransform applies the page's formatting to a long-form field value.
type ContentTransform interface {
	Transform(fieldID, raw string) string
}

// Excerpter is implemented by transforms that can derive a summary from a body.
type Excerpter interface {
	Excerpt(body string) string
}

// RenderContext carries the live collaborators for one render call. A nil Scope
// includes no records; a nil Transform leaves values untouched.
type RenderContext struct {
	Records   RecordLookup
	Scope     QueryScope
	Transform ContentTransform
}

func (rc RenderContext) transform(fieldID, raw string) string {
	if rc.Transform == nil {
		return raw
	}
	return rc.Transform.Transform(fieldID, raw)
}

func (rc RenderContext) inScope(id int64) bool {
	return rc.Scope != nil && rc.Scope.IncludesRecord(id)
}

// Render returns the field's HTML for the record's current state. ok is false
// when no in-place update is possible: the record is missing or of another
// type, no field was named, or the field is not supported.
//
// Password-protected and private records render a placeholder instead of the
// field value. The password check takes precedence.
func (p *FieldPartial) Render(ctx context.Context, rc RenderContext) (html string, ok bool) {
	if rc.Records == nil {
		return "", false
	}

	rec, found := rc.Records.LookupRecord(p.id.ContentType, p.id.RecordID)
	if !found || rec == nil || rec.Type != p.id.ContentType {
		return "", false
	}

	if !p.id.HasField() {
		return "", false
	}

	var component templ.Component
	switch {
	case rec.Protected():
		component = protectedPlaceholder(p.id.FieldID)
	case rec.Status == content.StatusPrivate:
		component = privatePlaceholder(p.id.FieldID)
	default:
		render, supported := fieldRenderers[p.id.FieldID]
		if !supported {
			return "", false
		}
		component = render(rec, rc)
	}

	var b strings.Builder
	if err := component.Render(ctx, &b); err != nil {
		return "", false
	}
	return b.String(), true
}
