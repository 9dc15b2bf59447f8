package destination

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is the PostgreSQL Store implementation over the
// linked_destinations table written by the OAuth linking flow.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore returns a Store backed by the given connection pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	if pool == nil {
		panic("destination: pgxpool is required")
	}
	return &PgStore{pool: pool}
}

func (s *PgStore) List(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT platform FROM linked_destinations WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var platforms []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		platforms = append(platforms, p)
	}
	return platforms, rows.Err()
}

func (s *PgStore) Delete(ctx context.Context, userID uuid.UUID, platform string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM linked_destinations WHERE user_id = $1 AND platform = $2`,
		userID, platform,
	)
	return err
}

func (s *PgStore) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT user_id FROM linked_destinations`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
