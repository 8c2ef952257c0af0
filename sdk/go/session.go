package reelsdk

import "sync"

// SessionStore keeps session-scoped credentials such as the bearer token.
type SessionStore interface {
	// Get returns "" and a nil error when key is unset.
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// MemorySession is a process-local SessionStore.
type MemorySession struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemorySession returns an empty in-memory store.
func NewMemorySession() *MemorySession {
	return &MemorySession{values: make(map[string]string)}
}

func (s *MemorySession) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key], nil
}

func (s *MemorySession) Set(key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

func (s *MemorySession) Remove(key string) error {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}
