package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unipost/unipost/pkg/tier"
)

// MemoryStore is an in-memory Store for tests and local development.
// All mutations run under one mutex, giving the same per-user atomicity
// the SQL implementation gets from single-statement updates.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*Subscription
}

// NewMemoryStore returns an empty in-memory subscription store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[uuid.UUID]*Subscription)}
}

func (s *MemoryStore) Get(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[userID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	cp := *row
	return &cp, nil
}

func (s *MemoryStore) UpsertPurchase(ctx context.Context, p Purchase) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := &Subscription{
		UserID:                 p.UserID,
		ProviderCustomerID:     p.ProviderCustomerID,
		ProviderSubscriptionID: p.ProviderSubscriptionID,
		Tier:                   p.Tier,
		Status:                 StatusActive,
		UpdatedAt:              time.Now().UTC(),
	}
	s.rows[p.UserID] = row
	cp := *row
	return &cp, nil
}

func (s *MemoryStore) ApplyPlanChange(ctx context.Context, providerSubscriptionID string, change PlanChange) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.findBySubscriptionID(providerSubscriptionID)
	if row == nil {
		return nil, ErrSubscriptionNotFound
	}
	row.Tier = change.Tier
	row.Status = change.Status
	row.CurrentPeriodEnd = change.CurrentPeriodEnd
	row.UpdatedAt = time.Now().UTC()
	cp := *row
	return &cp, nil
}

func (s *MemoryStore) MarkActive(ctx context.Context, providerSubscriptionID string, periodEnd *time.Time) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.findBySubscriptionID(providerSubscriptionID)
	if row == nil {
		return nil, ErrSubscriptionNotFound
	}
	row.Status = StatusActive
	row.CurrentPeriodEnd = periodEnd
	row.UpdatedAt = time.Now().UTC()
	cp := *row
	return &cp, nil
}

func (s *MemoryStore) MarkPastDue(ctx context.Context, providerSubscriptionID string) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.findBySubscriptionID(providerSubscriptionID)
	if row == nil {
		return nil, ErrSubscriptionNotFound
	}
	row.Status = StatusPastDue
	row.UpdatedAt = time.Now().UTC()
	cp := *row
	return &cp, nil
}

func (s *MemoryStore) ResetToFree(ctx context.Context, providerCustomerID string) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows {
		if row.ProviderCustomerID == providerCustomerID {
			row.Tier = tier.Free
			row.Status = StatusCanceled
			row.ProviderSubscriptionID = ""
			row.CurrentPeriodEnd = nil
			row.UpdatedAt = time.Now().UTC()
			cp := *row
			return &cp, nil
		}
	}
	return nil, ErrSubscriptionNotFound
}

// Delete removes a row. Exposed for the cascade the identity authority
// performs during account deletion.
func (s *MemoryStore) Delete(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rows, userID)
	return nil
}

func (s *MemoryStore) findBySubscriptionID(id string) *Subscription {
	if id == "" {
		return nil
	}
	for _, row := range s.rows {
		if row.ProviderSubscriptionID == id {
			return row
		}
	}
	return nil
}
