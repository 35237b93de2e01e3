package content

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// EventType represents the type of record event.
type EventType int

const (
	EventTypeAdded EventType = iota
	EventTypeUpdated
	EventTypeRemoved
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeAdded:
		return "added"
	case EventTypeUpdated:
		return "updated"
	case EventTypeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// RecordEvent represents a change in the store.
type RecordEvent struct {
	Type      EventType
	Record    *Record
	Timestamp time.Time
}

// SettingID is the setting affected by the event.
func (e RecordEvent) SettingID() string {
	return SettingID(e.Record.Type, e.Record.ID)
}

// Store keeps records in memory, keyed by record id, and notifies watchers of changes.
type Store struct {
	records  map[int64]*Record
	mutex    sync.RWMutex
	watchers []chan RecordEvent
	// permalinks fills Record.Permalink on write when set
	permalinks *TypeRegistry
}

// NewStore creates an empty store. The registry, if given, is used to fill
// missing permalinks on write.
func NewStore(types *TypeRegistry) *Store {
	return &Store{
		records:    make(map[int64]*Record),
		watchers:   make([]chan RecordEvent, 0),
		permalinks: types,
	}
}

// Put adds or updates a record. A nil record is ignored.
func (s *Store) Put(rec *Record) {
	if rec == nil {
		return
	}
	stored := rec.Clone()

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.putLocked(stored)
}

// Update applies fn to a copy of the record and stores the result.
// It returns false if the record does not exist.
func (s *Store) Update(id int64, fn func(rec *Record)) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	current, exists := s.records[id]
	if !exists {
		return false
	}

	next := current.Clone()
	fn(next)
	next.ID = id
	next.Modified = time.Now()
	s.putLocked(next)
	return true
}

func (s *Store) putLocked(stored *Record) {
	if s.permalinks != nil && stored.Permalink == "" {
		stored.Permalink = s.permalinks.Permalink(stored)
	}
	if stored.Modified.IsZero() {
		stored.Modified = time.Now()
	}

	eventType := EventTypeAdded
	if _, exists := s.records[stored.ID]; exists {
		eventType = EventTypeUpdated
	}
	s.records[stored.ID] = stored

	s.notify(RecordEvent{Type: eventType, Record: stored.Clone(), Timestamp: time.Now()})
}

// Remove deletes a record.
func (s *Store) Remove(id int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	rec, exists := s.records[id]
	if !exists {
		return
	}
	delete(s.records, id)

	s.notify(RecordEvent{Type: EventTypeRemoved, Record: rec, Timestamp: time.Now()})
}

// Replace swaps the store contents for recs, emitting events only for records
// that were added, changed, or removed.
func (s *Store) Replace(recs []*Record) {
	incoming := make(map[int64]*Record, len(recs))
	for _, rec := range recs {
		if rec != nil {
			incoming[rec.ID] = rec
		}
	}

	s.mutex.RLock()
	var removed []int64
	for id := range s.records {
		if _, ok := incoming[id]; !ok {
			removed = append(removed, id)
		}
	}
	s.mutex.RUnlock()

	for _, id := range removed {
		s.Remove(id)
	}

	for _, rec := range recs {
		if rec == nil {
			continue
		}
		s.mutex.RLock()
		current, exists := s.records[rec.ID]
		s.mutex.RUnlock()
		if exists && sameContent(current, rec) {
			continue
		}
		s.Put(rec)
	}
}

// LookupRecord returns a copy of the record with the given id. The content type
// argument is not used as a filter: callers compare Record.Type themselves so a
// type mismatch is distinguishable from a missing record.
func (s *Store) LookupRecord(_ string, id int64) (*Record, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	rec, exists := s.records[id]
	if !exists {
		return nil, false
	}
	return rec.Clone(), true
}

// All returns copies of all records ordered by id.
func (s *Store) All() []*Record {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		result = append(result, rec.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Count returns the number of stored records.
func (s *Store) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.records)
}

// Watch returns a channel that receives record events.
func (s *Store) Watch() <-chan RecordEvent {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	ch := make(chan RecordEvent, 100)
	s.watchers = append(s.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (s *Store) UnWatch(ch <-chan RecordEvent) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i, watcher := range s.watchers {
		if watcher == ch {
			close(watcher)
			s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
			break
		}
	}
}

// notify must be called with the write lock held.
func (s *Store) notify(event RecordEvent) {
	for _, watcher := range s.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}

func sameContent(a, b *Record) bool {
	if a.Type != b.Type || a.Status != b.Status || a.Password != b.Password ||
		a.Slug != b.Slug || len(a.Fields) != len(b.Fields) {
		return false
	}
	if b.Permalink != "" && a.Permalink != b.Permalink {
		return false
	}
	for k, v := range b.Fields {
		if a.Fields[k] != v {
			return false
		}
	}
	return true
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
