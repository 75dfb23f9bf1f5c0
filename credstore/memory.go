package credstore

import (
	"context"
	"sync"
)

// MemoryStore keeps credentials in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrInvalidUserID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.creds[userID]
	if !ok {
		return "", ErrNotFound
	}
	return cred, nil
}

func (s *MemoryStore) Put(_ context.Context, userID, credential string) error {
	if userID == "" {
		return ErrInvalidUserID
	}
	s.mu.Lock()
	s.creds[userID] = credential
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Replace(_ context.Context, userID, old, updated string) error {
	if userID == "" {
		return ErrInvalidUserID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.creds[userID]
	if !ok {
		return ErrNotFound
	}
	if cur != old {
		return ErrConflict
	}
	s.creds[userID] = updated
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	if userID == "" {
		return ErrInvalidUserID
	}
	s.mu.Lock()
	delete(s.creds, userID)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored credentials.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.creds)
}
