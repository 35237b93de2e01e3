package transform

import (
	"github.com/microcosm-cc/bluemonday"
)

// droppedElements are skipped together with their content when text is
// extracted from markup.
var droppedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"iframe":   true,
	"object":   true,
	"embed":    true,
	"noscript": true,
}

// policy allows the elements and attributes of user-authored prose. Anything
// else, including forms, meta refreshes, event handlers and non-http URLs,
// is removed. A Policy is safe for concurrent use once built.
var policy = bluemonday.UGCPolicy()

// Sanitize removes active content from an HTML fragment.
func Sanitize(fragment string) string {
	return policy.Sanitize(fragment)
}
