package memory

import (
	"context"
	"sync"
)

// Store is an in-memory key-value store. It satisfies both the raw
// persistence primitive and the object store contracts, which makes it the
// default collaborator in tests and on platforms without Badger or a cloud
// table configured.
type Store struct {
	mu    sync.RWMutex
	items map[string]string

	// Optional fault injection for tests
	setErr    error
	getErr    error
	removeErr error
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		items: make(map[string]string),
	}
}

// Available always reports true
func (s *Store) Available() bool {
	return true
}

// SetItem stores a value under a key
func (s *Store) SetItem(ctx context.Context, key, value string) error {
	if s.setErr != nil {
		return s.setErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

// GetItem retrieves the value for a key
func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	if s.getErr != nil {
		return "", false, s.getErr
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.items[key]
	return value, ok, nil
}

// RemoveItem deletes a key
func (s *Store) RemoveItem(ctx context.Context, key string) error {
	if s.removeErr != nil {
		return s.removeErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// MultiRemove deletes several keys in one call
func (s *Store) MultiRemove(ctx context.Context, keys []string) error {
	if s.removeErr != nil {
		return s.removeErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.items, key)
	}
	return nil
}

// GetAllKeys lists every key currently stored
func (s *Store) GetAllKeys(ctx context.Context) ([]string, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.items))
	for key := range s.items {
		keys = append(keys, key)
	}
	return keys, nil
}

// Len returns the number of stored keys
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Corrupt overwrites a key with arbitrary bytes, bypassing any validation.
// Test helper for exercising the recovery path.
func (s *Store) Corrupt(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

// FailSets makes subsequent SetItem calls return the given error
func (s *Store) FailSets(err error) {
	s.setErr = err
}

// FailGets makes subsequent GetItem/GetAllKeys calls return the given error
func (s *Store) FailGets(err error) {
	s.getErr = err
}

// FailRemoves makes subsequent RemoveItem/MultiRemove calls return the given error
func (s *Store) FailRemoves(err error) {
	s.removeErr = err
}
