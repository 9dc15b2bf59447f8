package destination

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgTokenRevoker is an Unlinker that destroys the stored OAuth
// credentials for a platform, after which the service can no longer act
// on the user's behalf there. Platform-side token invalidation happens
// out of band when the grant expires.
type PgTokenRevoker struct {
	pool *pgxpool.Pool
}

// NewPgTokenRevoker creates a revoker over the given pool.
func NewPgTokenRevoker(pool *pgxpool.Pool) *PgTokenRevoker {
	if pool == nil {
		panic("destination.NewPgTokenRevoker: pool is required")
	}
	return &PgTokenRevoker{pool: pool}
}

func (r *PgTokenRevoker) Unlink(ctx context.Context, userID uuid.UUID, platform string) error {
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM oauth_tokens WHERE user_id = $1 AND platform = $2`,
		userID, platform,
	); err != nil {
		return fmt.Errorf("destination: revoke oauth token %s/%s: %w", userID, platform, err)
	}
	return nil
}
