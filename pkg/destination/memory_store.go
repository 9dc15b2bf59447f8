package destination

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]map[string]struct{}
}

// NewMemoryStore returns an empty in-memory destination store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[uuid.UUID]map[string]struct{})}
}

// Link adds a destination row, mirroring what the OAuth flow does.
func (s *MemoryStore) Link(ctx context.Context, userID uuid.UUID, platform string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rows[userID] == nil {
		s.rows[userID] = make(map[string]struct{})
	}
	s.rows[userID][platform] = struct{}{}
}

func (s *MemoryStore) List(ctx context.Context, userID uuid.UUID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	platforms := make([]string, 0, len(s.rows[userID]))
	for p := range s.rows[userID] {
		platforms = append(platforms, p)
	}
	return platforms, nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID uuid.UUID, platform string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rows[userID], platform)
	return nil
}

func (s *MemoryStore) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(s.rows))
	for id, platforms := range s.rows {
		if len(platforms) > 0 {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
