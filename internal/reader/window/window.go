// Package window holds the chapters currently materialized in the reader.
//
// Entries are sparse and kept sorted by their index in the manga's sorted
// chapter list. Each reset starts a new generation; inserts carrying an older
// generation are dropped so late responses from a previous manga never land.
package window

import (
	"slices"
	"sync"

	"github.com/justyntemme/webby-manga/pkg/models"
)

// Entry is one materialized chapter
type Entry struct {
	Index   int
	Chapter models.Chapter
	Images  []models.ChapterImage
}

// Empty reports whether the chapter has no pages to show
func (e Entry) Empty() bool {
	return len(e.Images) == 0
}

// Store is the ordered set of materialized chapters and the active index
type Store struct {
	mu         sync.RWMutex
	entries    []Entry
	active     int
	hasActive  bool
	generation uint64
}

// NewStore creates an empty store at generation 1
func NewStore() *Store {
	return &Store{generation: 1}
}

// Generation returns the current session generation
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Reset empties the store, clears the active index and starts a new generation
func (s *Store) Reset() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.active = 0
	s.hasActive = false
	s.generation++
	return s.generation
}

// Insert adds entry, replacing an existing entry with the same index.
// It returns false when gen is not the current generation.
func (s *Store) Insert(gen uint64, entry Entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}

	pos, found := s.search(entry.Index)
	if found {
		s.entries[pos] = entry
		return true
	}
	s.entries = slices.Insert(s.entries, pos, entry)
	return true
}

// Has reports whether index is materialized
func (s *Store) Has(index int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, found := s.search(index)
	return found
}

// Entry returns the entry for index
func (s *Store) Entry(index int) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, found := s.search(index)
	if !found {
		return Entry{}, false
	}
	return s.entries[pos], true
}

// Entries returns a copy of all entries in index order
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

// Indices returns the materialized indices in order
func (s *Store) Indices() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Index
	}
	return out
}

// First returns the entry with the lowest index
func (s *Store) First() (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return s.entries[0], true
}

// Len returns the number of entries
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// SetActive makes index the active chapter if it is materialized
func (s *Store) SetActive(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.search(index); !found {
		return false
	}
	s.active = index
	s.hasActive = true
	return true
}

// Active returns the active index. An active index that no longer names an
// entry snaps to the first entry.
func (s *Store) Active() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasActive {
		return 0, false
	}
	if _, found := s.search(s.active); found {
		return s.active, true
	}
	if len(s.entries) == 0 {
		s.hasActive = false
		return 0, false
	}
	s.active = s.entries[0].Index
	return s.active, true
}

// ActiveEntry returns the entry of the active chapter
func (s *Store) ActiveEntry() (Entry, bool) {
	index, ok := s.Active()
	if !ok {
		return Entry{}, false
	}
	return s.Entry(index)
}

// UpdateChapter applies fn to the chapter with the given id
func (s *Store) UpdateChapter(id int64, fn func(*models.Chapter)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].Chapter.ID == id {
			fn(&s.entries[i].Chapter)
			return true
		}
	}
	return false
}

// search returns the position of index or where it would be inserted
func (s *Store) search(index int) (int, bool) {
	return slices.BinarySearchFunc(s.entries, index, func(e Entry, target int) int {
		return e.Index - target
	})
}
