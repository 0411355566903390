package session

import (
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process session bag with a random identifier.
type MemoryStore struct {
	id     string
	mu     sync.RWMutex
	values map[string]any
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore starts a new session.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{id: uuid.NewString(), values: make(map[string]any)}
}

// ID identifies the session.
func (s *MemoryStore) ID() string { return s.id }

func (s *MemoryStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryStore) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Keys lists the slots in use.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}
