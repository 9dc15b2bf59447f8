package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	byToken map[string]User
	byID    map[uuid.UUID]User
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byToken: make(map[string]User),
		byID:    make(map[uuid.UUID]User),
	}
}

// Add registers a user under the given token.
func (s *MemoryStore) Add(token string, u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byToken[token] = u
	s.byID[u.ID] = u
}

func (s *MemoryStore) ByToken(ctx context.Context, token string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byToken[token]
	if !ok {
		return User{}, ErrTokenInvalid
	}
	return u, nil
}

func (s *MemoryStore) EmailByUserID(ctx context.Context, userID uuid.UUID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[userID]
	if !ok {
		return "", ErrUserNotFound
	}
	return u.Email, nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, u := range s.byToken {
		if u.ID == userID {
			delete(s.byToken, token)
		}
	}
	delete(s.byID, userID)
	return nil
}
