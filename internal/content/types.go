// Package content provides the content model consumed by live-preview partials:
// a registry of content types, an in-memory record store that notifies watchers
// of changes, listing scopes, and a YAML loader for content files.
package content

import (
	"fmt"
	"time"
)

// DefaultCapability is required to preview a type that declares no edit capability.
const DefaultCapability = "edit_records"

// Status is the publication state of a record.
type Status string

const (
	StatusPublish Status = "publish"
	StatusDraft   Status = "draft"
	StatusPending Status = "pending"
	StatusPrivate Status = "private"
)

// Type describes a registered content type.
type Type struct {
	// Name is the identifier used in partial ids (e.g. "post", "page")
	Name string `yaml:"name" toml:"name" json:"name"`
	// Label is a human-readable name
	Label string `yaml:"label" toml:"label" json:"label"`
	// Public marks the type as queryable; non-public types cannot be previewed
	Public bool `yaml:"public" toml:"public" json:"public"`
	// EditCapability is the capability needed to edit records of this type
	EditCapability string `yaml:"edit_capability" toml:"edit_capability" json:"edit_capability,omitempty"`
	// PermalinkBase prefixes generated permalinks (defaults to "/<name>/")
	PermalinkBase string `yaml:"permalink_base" toml:"permalink_base" json:"permalink_base,omitempty"`
}

// Record is one content record with its editable fields.
type Record struct {
	Type      string            `yaml:"type" toml:"type" json:"type"`
	ID        int64             `yaml:"id" toml:"id" json:"id"`
	Status    Status            `yaml:"status" toml:"status" json:"status"`
	Password  string            `yaml:"password" toml:"password" json:"-"`
	Slug      string            `yaml:"slug" toml:"slug" json:"slug,omitempty"`
	Permalink string            `yaml:"permalink" toml:"permalink" json:"permalink,omitempty"`
	Fields    map[string]string `yaml:"fields" toml:"fields" json:"fields"`
	Modified  time.Time         `yaml:"modified" toml:"modified" json:"modified"`
}

// Field returns the stored value of a field, or "" if unset.
func (r *Record) Field(name string) string {
	if r == nil || r.Fields == nil {
		return ""
	}
	return r.Fields[name]
}

// Protected reports whether the record requires a password to view.
func (r *Record) Protected() bool {
	return r.Password != ""
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.Fields != nil {
		c.Fields = make(map[string]string, len(r.Fields))
		for k, v := range r.Fields {
			c.Fields[k] = v
		}
	}
	return &c
}

// SettingID is the setting a record's partials depend on: record[<type>][<id>].
func SettingID(contentType string, id int64) string {
	return fmt.Sprintf("record[%s][%d]", contentType, id)
}
