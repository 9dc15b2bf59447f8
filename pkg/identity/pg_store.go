package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unipost/unipost/pkg/pg"
)

// PgStore is the PostgreSQL identity store. API tokens are stored as
// SHA-256 hashes so a leaked table does not leak credentials.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a store over the given pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	if pool == nil {
		panic("identity.NewPgStore: pool is required")
	}
	return &PgStore{pool: pool}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *PgStore) ByToken(ctx context.Context, token string) (User, error) {
	if token == "" {
		return User{}, ErrTokenInvalid
	}

	row := s.pool.QueryRow(ctx,
		`SELECT id, email, created_at FROM users WHERE api_token_hash = $1`,
		hashToken(token),
	)

	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.CreatedAt); err != nil {
		if pg.IsNotFoundError(err) {
			return User{}, ErrTokenInvalid
		}
		return User{}, fmt.Errorf("identity: lookup by token: %w", err)
	}
	return u, nil
}

func (s *PgStore) EmailByUserID(ctx context.Context, userID uuid.UUID) (string, error) {
	row := s.pool.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, userID)

	var email string
	if err := row.Scan(&email); err != nil {
		if pg.IsNotFoundError(err) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("identity: lookup email for %s: %w", userID, err)
	}
	return email, nil
}

func (s *PgStore) Delete(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("identity: delete user %s: %w", userID, err)
	}
	return nil
}
