package store

import "sync"

// MemStore is an in-memory Store. It backs tests and hosts whose own
// durable storage is wired in elsewhere; contents do not survive the
// process.
type MemStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string]string)}
}

// Get returns the value for key and whether it was present.
func (s *MemStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok, nil
}

// Put stores value under key, replacing any previous value.
func (s *MemStore) Put(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *MemStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// ListKeys returns all keys currently in the store.
func (s *MemStore) ListKeys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys, nil
}

// Len returns the number of entries. Test helper.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
