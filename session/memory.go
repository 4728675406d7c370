package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store using an in-memory map with optimistic locking.
// State does not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*State
	now      func() time.Time
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*State),
		now:      time.Now,
	}
}

// Create implements Store.
// Creates a new session with Version set to 1.
func (s *MemoryStore) Create(ctx context.Context, data *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessions == nil {
		return ErrClosed
	}

	now := s.now()
	data.CreatedAt = now
	data.UpdatedAt = now
	data.Version = 1

	s.sessions[data.ID] = data.Clone()
	return nil
}

// Get implements Store.
// Returns nil if the session is not found (not an error).
func (s *MemoryStore) Get(ctx context.Context, id string) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.sessions[id]
	if !exists {
		return nil, nil // Not found
	}
	return data.Clone(), nil
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, data *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.sessions[data.ID]
	if !exists {
		return ErrNotFound
	}

	// Check version for optimistic locking
	if stored.Version != data.Version {
		return ErrVersionConflict
	}

	data.Version++
	data.UpdatedAt = s.now()

	s.sessions[data.ID] = data.Clone()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = nil
	return nil
}
