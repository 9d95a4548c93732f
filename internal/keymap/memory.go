package keymap

import (
	"sort"
	"sync"
)

// MemoryStore is an in-memory implementation of Store
type MemoryStore struct {
	mu    sync.RWMutex
	pairs map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pairs: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.pairs[key]
	return value, ok, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs[key] = value
	return nil
}

func (s *MemoryStore) Delete(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pairs[key]; !ok {
		return false, nil
	}
	delete(s.pairs, key)
	return true, nil
}

func (s *MemoryStore) All() ([]Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pairs := make([]Pair, 0, len(s.pairs))
	for k, v := range s.pairs {
		pairs = append(pairs, Pair{Key: k, Value: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	return pairs, nil
}

func (s *MemoryStore) Len() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pairs), nil
}

func (s *MemoryStore) Close() error {
	return nil
}
