package destination

import (
	"context"

	"github.com/google/uuid"
)

// Store defines linked destination persistence.
type Store interface {
	// List returns the platforms linked by a user, in no particular order.
	List(ctx context.Context, userID uuid.UUID) ([]string, error)

	// Delete removes one linked platform row. Deleting an absent row is
	// a no-op so enforcement can be retried safely.
	Delete(ctx context.Context, userID uuid.UUID, platform string) error

	// ListUserIDs returns every user with at least one linked
	// destination. Used by the periodic enforcement sweep.
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Unlinker revokes one linked platform at the platform side. Implemented
// by the OAuth collaborator that owns token revocation.
type Unlinker interface {
	Unlink(ctx context.Context, userID uuid.UUID, platform string) error
}
