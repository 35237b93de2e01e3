package content

import (
	"sort"
	"strings"
	"sync"
)

// TypeRegistry holds the content types known to the preview host.
type TypeRegistry struct {
	types map[string]Type
	mutex sync.RWMutex
}

// NewTypeRegistry creates a registry pre-populated with the given types.
func NewTypeRegistry(types ...Type) *TypeRegistry {
	r := &TypeRegistry{types: make(map[string]Type)}
	for _, t := range types {
		r.Register(t)
	}
	return r
}

// DefaultTypes are the built-in post and page types.
func DefaultTypes() []Type {
	return []Type{
		{Name: "post", Label: "Posts", Public: true, EditCapability: "edit_posts"},
		{Name: "page", Label: "Pages", Public: true, EditCapability: "edit_pages"},
	}
}

// Register adds or replaces a content type.
func (r *TypeRegistry) Register(t Type) {
	if t.PermalinkBase == "" {
		t.PermalinkBase = "/" + t.Name + "/"
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.types[t.Name] = t
}

// LookupType returns a registered type by name.
func (r *TypeRegistry) LookupType(name string) (Type, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	t, ok := r.types[name]
	return t, ok
}

// Types returns all registered types sorted by name.
func (r *TypeRegistry) Types() []Type {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]Type, 0, len(r.types))
	for _, t := range r.types {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Permalink builds the public URL of a record. An explicit record permalink wins.
func (r *TypeRegistry) Permalink(rec *Record) string {
	if rec == nil {
		return ""
	}
	if rec.Permalink != "" {
		return rec.Permalink
	}

	base := "/" + rec.Type + "/"
	if t, ok := r.LookupType(rec.Type); ok {
		base = t.PermalinkBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	if rec.Slug != "" {
		return base + rec.Slug + "/"
	}
	return base + "?p=" + formatID(rec.ID)
}
