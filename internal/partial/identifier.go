package partial

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/conneroisu/livefield/internal/errors"
)

var idPattern = regexp.MustCompile(`^record\[([^\[\]]+)\]\[(-?[0-9]+)\](?:\[([^\[\]]+)\](?:\[([^\[\]]+)\])?)?$`)

// Identifier holds the raw segments of a partial id. RecordID is only checked
// to be numeric; its validity is decided at render time.
type Identifier struct {
	Raw         string
	ContentType string
	RecordID    int64
	FieldID     string
	Placement   string
}

// ParseID splits raw into its segments.
func ParseID(raw string) (Identifier, error) {
	m := idPattern.FindStringSubmatch(raw)
	if m == nil {
		return Identifier{}, errors.NewParseError(raw, nil)
	}

	recordID, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Identifier{}, errors.NewParseError(raw, err)
	}

	return Identifier{
		Raw:         raw,
		ContentType: m[1],
		RecordID:    recordID,
		FieldID:     m[3],
		Placement:   m[4],
	}, nil
}

// HasField reports whether the identifier names a field.
func (id Identifier) HasField() bool {
	return id.FieldID != ""
}

// HasPlacement reports whether the identifier names a placement.
func (id Identifier) HasPlacement() bool {
	return id.Placement != ""
}

// String formats the identifier back into its canonical form.
func (id Identifier) String() string {
	s := fmt.Sprintf("record[%s][%d]", id.ContentType, id.RecordID)
	if id.FieldID != "" {
		s += "[" + id.FieldID + "]"
		if id.Placement != "" {
			s += "[" + id.Placement + "]"
		}
	}
	return s
}
