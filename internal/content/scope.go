package content

// ListingScope is the set of records in the page's primary listing. The zero
// value includes nothing.
type ListingScope struct {
	ids map[int64]struct{}
}

// NewListingScope creates a scope containing the given record ids.
func NewListingScope(ids ...int64) ListingScope {
	s := ListingScope{ids: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// IncludesRecord reports whether the record is part of the listing.
func (s ListingScope) IncludesRecord(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of records in the listing.
func (s ListingScope) Len() int {
	return len(s.ids)
}
