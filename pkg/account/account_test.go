package account_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unipost/unipost/pkg/account"
)

type fakeBilling struct {
	err    error
	called bool
}

func (f *fakeBilling) CancelAllBilling(ctx context.Context, userID uuid.UUID) error {
	f.called = true
	return f.err
}

type fakeIdentity struct {
	deleted []uuid.UUID
}

func (f *fakeIdentity) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	f.deleted = append(f.deleted, userID)
	return nil
}

func TestDeleteAccount(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("billing unwound before identity deletion", func(t *testing.T) {
		t.Parallel()

		billing := &fakeBilling{}
		identity := &fakeIdentity{}
		svc := account.NewService(billing, identity, nil)

		require.NoError(t, svc.DeleteAccount(context.Background(), userID))
		assert.True(t, billing.called)
		assert.Equal(t, []uuid.UUID{userID}, identity.deleted)
	})

	t.Run("billing failure aborts deletion", func(t *testing.T) {
		t.Parallel()

		billing := &fakeBilling{err: errors.New("provider 503")}
		identity := &fakeIdentity{}
		svc := account.NewService(billing, identity, nil)

		err := svc.DeleteAccount(context.Background(), userID)
		require.Error(t, err)
		assert.Empty(t, identity.deleted, "user must still exist while billing is live")
	})
}
