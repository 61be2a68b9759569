package entry

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps entries in a map for the life of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Get(_ context.Context, title string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[Key(title)]
	return e, ok, nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	titles := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		titles = append(titles, e.Title)
	}
	s.mu.RUnlock()
	SortTitles(titles)
	return titles, nil
}

func (s *MemoryStore) Save(_ context.Context, title, content string) error {
	key := Key(title)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[key]; ok {
		title = existing.Title
	}
	s.entries[key] = Entry{Title: strings.TrimSpace(title), Content: content}
	return nil
}
