package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// BillingCanceller unwinds every live provider subscription for a user.
// Implemented by the subscription service.
type BillingCanceller interface {
	CancelAllBilling(ctx context.Context, userID uuid.UUID) error
}

// IdentityDeleter removes a user at the authority that owns identities.
// The deletion cascades to dependent rows (subscription, linked
// destinations, posts) at the storage layer.
type IdentityDeleter interface {
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// Service orchestrates irreversible account deletion in strict order:
// billing is unwound first, and only a fully successful unwind allows the
// identity to be deleted. A user must never disappear while the provider
// is still billing; there would be no account left to reach for a refund.
type Service struct {
	billing  BillingCanceller
	identity IdentityDeleter
	log      *slog.Logger
}

// NewService creates the deletion orchestrator. Panics on nil
// dependencies to fail fast during initialization.
func NewService(billing BillingCanceller, identity IdentityDeleter, log *slog.Logger) *Service {
	if billing == nil {
		panic("account: BillingCanceller is required")
	}
	if identity == nil {
		panic("account: IdentityDeleter is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{billing: billing, identity: identity, log: log}
}

// DeleteAccount cancels billing and then deletes the identity. Returns
// before touching the identity if billing cancellation fails.
func (s *Service) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if err := s.billing.CancelAllBilling(ctx, userID); err != nil {
		return fmt.Errorf("cancel billing before deletion: %w", err)
	}

	if err := s.identity.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}

	s.log.InfoContext(ctx, "account deleted", slog.String("user_id", userID.String()))
	return nil
}
