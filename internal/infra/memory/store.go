package memory

import (
	"context"
	"sync"

	"github.com/Mayhomes/quiz/internal/domain"
)

// Store is an in-memory implementation of app.Store. It models the
// browser-local key-value store: synchronous, single-writer, full-record
// overwrites.
type Store struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewStore() *Store {
	return &Store{records: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.records[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	raw := make([]byte, len(value))
	copy(raw, value)
	s.mu.Lock()
	s.records[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.records, key)
	}
	s.mu.Unlock()
	return nil
}
