package partial

import (
	"github.com/conneroisu/livefield/internal/content"
	"github.com/conneroisu/livefield/internal/errors"
)

// Kind is the partial type reported to clients.
const Kind = "record_field"

// TypeRegistry looks up content type metadata.
type TypeRegistry interface {
	LookupType(name string) (content.Type, bool)
}

// FieldPartial is a resolved, immutable record field partial.
type FieldPartial struct {
	id                 Identifier
	capability         string
	settings           []string
	selector           string
	containerInclusive bool
	fallbackRefresh    bool
}

type options struct {
	selector          string
	defaultCapability string
}

// Option customizes partial construction.
type Option func(*options)

// WithSelector sets the DOM selector exported to clients.
func WithSelector(selector string) Option {
	return func(o *options) {
		o.selector = selector
	}
}

// WithDefaultCapability overrides the capability used when a content type
// declares none.
func WithDefaultCapability(capability string) Option {
	return func(o *options) {
		if capability != "" {
			o.defaultCapability = capability
		}
	}
}

// New parses id and resolves it against types.
func New(id string, types TypeRegistry, opts ...Option) (*FieldPartial, error) {
	parsed, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return Resolve(parsed, types, opts...)
}

// Resolve derives a partial from already parsed segments. The content type must
// be registered and public.
func Resolve(id Identifier, types TypeRegistry, opts ...Option) (*FieldPartial, error) {
	o := options{defaultCapability: content.DefaultCapability}
	for _, opt := range opts {
		opt(&o)
	}

	if types == nil {
		return nil, errors.NewResolveError(id.Raw, id.ContentType)
	}
	t, ok := types.LookupType(id.ContentType)
	if !ok || !t.Public {
		return nil, errors.NewResolveError(id.Raw, id.ContentType)
	}

	capability := t.EditCapability
	if capability == "" {
		capability = o.defaultCapability
	}

	return &FieldPartial{
		id:                 id,
		capability:         capability,
		settings:           []string{content.SettingID(id.ContentType, id.RecordID)},
		selector:           o.selector,
		containerInclusive: id.HasPlacement(),
		fallbackRefresh:    !id.HasPlacement(),
	}, nil
}

// ID returns the identifier exactly as given to New.
func (p *FieldPartial) ID() string { return p.id.Raw }

// Identifier returns the parsed segments.
func (p *FieldPartial) Identifier() Identifier { return p.id }

// ContentType returns the record's content type.
func (p *FieldPartial) ContentType() string { return p.id.ContentType }

// RecordID returns the record id.
func (p *FieldPartial) RecordID() int64 { return p.id.RecordID }

// FieldID returns the field name, or "" for a whole-record reference.
func (p *FieldPartial) FieldID() string { return p.id.FieldID }

// Placement returns the placement token, or "" if none was given.
func (p *FieldPartial) Placement() string { return p.id.Placement }

// ContainerInclusive reports whether rendered output includes its own container.
func (p *FieldPartial) ContainerInclusive() bool { return p.containerInclusive }

// FallbackRefresh reports whether a full container refresh may substitute for this partial.
func (p *FieldPartial) FallbackRefresh() bool { return p.fallbackRefresh }

// Capability returns the capability required to preview the partial.
func (p *FieldPartial) Capability() string { return p.capability }

// Selector returns the configured DOM selector.
func (p *FieldPartial) Selector() string { return p.selector }

// Settings returns the setting ids the partial depends on.
func (p *FieldPartial) Settings() []string {
	out := make([]string, len(p.settings))
	copy(out, p.settings)
	return out
}

// PrimarySetting returns the first dependent setting.
func (p *FieldPartial) PrimarySetting() string { return p.settings[0] }
