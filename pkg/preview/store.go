// Package preview keeps the transient display handles that crop previews are
// shown through. A handle stays live until it is released.
package preview

import (
	"sync"

	"github.com/google/uuid"
)

// Handle identifies one stored preview
type Handle string

// Entry is the data behind a handle
type Entry struct {
	Data        []byte
	ContentType string
}

// Store holds live previews. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	entries map[Handle]Entry
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{entries: make(map[Handle]Entry)}
}

// Create registers data under a fresh handle
func (s *Store) Create(data []byte, contentType string) Handle {
	h := Handle("blob:" + uuid.NewString())
	s.mu.Lock()
	s.entries[h] = Entry{Data: data, ContentType: contentType}
	s.mu.Unlock()
	return h
}

// Get returns the entry for a live handle
func (s *Store) Get(h Handle) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[h]
	return e, ok
}

// Release frees a handle. Releasing an unknown or empty handle is a no-op.
func (s *Store) Release(h Handle) {
	if h == "" {
		return
	}
	s.mu.Lock()
	delete(s.entries, h)
	s.mu.Unlock()
}

// Len returns the number of live handles
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
