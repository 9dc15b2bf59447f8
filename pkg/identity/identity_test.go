package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unipost/unipost/pkg/identity"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	user := identity.User{ID: uuid.New(), Email: "creator@example.com", CreatedAt: time.Now()}

	t.Run("resolve by token", func(t *testing.T) {
		t.Parallel()

		store := identity.NewMemoryStore()
		store.Add("tok-1", user)

		got, err := store.ByToken(ctx, "tok-1")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, user.Email, got.Email)

		_, err = store.ByToken(ctx, "tok-2")
		require.ErrorIs(t, err, identity.ErrTokenInvalid)
	})

	t.Run("email lookup", func(t *testing.T) {
		t.Parallel()

		store := identity.NewMemoryStore()
		store.Add("tok-1", user)

		email, err := store.EmailByUserID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, email)

		_, err = store.EmailByUserID(ctx, uuid.New())
		require.ErrorIs(t, err, identity.ErrUserNotFound)
	})

	t.Run("delete revokes tokens", func(t *testing.T) {
		t.Parallel()

		store := identity.NewMemoryStore()
		store.Add("tok-1", user)

		require.NoError(t, store.Delete(ctx, user.ID))

		_, err := store.ByToken(ctx, "tok-1")
		require.ErrorIs(t, err, identity.ErrTokenInvalid)

		// Deleting an absent user is a no-op.
		require.NoError(t, store.Delete(ctx, user.ID))
	})
}
