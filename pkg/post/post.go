package post

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Post is one published piece of content. Creation and transcoding are
// owned by the upload pipeline; this package only counts rows for the
// rolling 30-day quota in entitlement snapshots.
type Post struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
}

// Store exposes the post usage counter.
type Store interface {
	// CountSince returns how many posts the user published at or after
	// the given time.
	CountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)
}
