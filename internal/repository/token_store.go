package repository

import (
	"sync"

	"todo_client/internal/domain"
)

// TokenKey is the single storage key the session token lives under.
const TokenKey = "token"

type memoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryTokenStore() domain.TokenStore {
	return &memoryTokenStore{}
}

func (s *memoryTokenStore) Get() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *memoryTokenStore) Set(token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *memoryTokenStore) Clear() error {
	return s.Set("")
}
