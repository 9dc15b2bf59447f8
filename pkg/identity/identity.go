package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is an account in the identity store.
type User struct {
	ID        uuid.UUID
	Email     string
	CreatedAt time.Time
}

// Store resolves and removes user accounts. Billing handlers use ByToken
// for request authentication, notifications use EmailByUserID, and account
// deletion terminates in Delete after billing has been torn down.
type Store interface {
	// ByToken resolves the user that owns the given API token.
	// Returns ErrTokenInvalid when no user matches.
	ByToken(ctx context.Context, token string) (User, error)

	// EmailByUserID returns the email address for the given user.
	// Returns ErrUserNotFound when the user does not exist.
	EmailByUserID(ctx context.Context, userID uuid.UUID) (string, error)

	// Delete removes the user row. Dependent rows are expected to be
	// removed by the storage schema. Deleting an absent user is a no-op.
	Delete(ctx context.Context, userID uuid.UUID) error
}
