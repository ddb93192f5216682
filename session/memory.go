package session

import "sync"

// InMemoryStore is a process-local Store implementation. It is the default
// for single-process runs and doubles as the fake in tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	current Session
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Set persists both values, replacing whatever was there.
func (s *InMemoryStore) Set(token, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Session{Token: token, User: user}
	return nil
}

// Get retrieves the current pair.
func (s *InMemoryStore) Get() (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

// Clear removes both values.
func (s *InMemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Session{}
	return nil
}
