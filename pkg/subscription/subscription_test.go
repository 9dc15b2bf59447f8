package subscription_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/unipost/unipost/pkg/subscription"
	"github.com/unipost/unipost/pkg/tier"
)

func TestEffectiveTier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sub  *subscription.Subscription
		want tier.Tier
	}{
		{name: "nil reads free", sub: nil, want: tier.Free},
		{
			name: "active pro",
			sub:  &subscription.Subscription{Tier: tier.Pro, Status: subscription.StatusActive},
			want: tier.Pro,
		},
		{
			name: "trialing keeps paid tier",
			sub:  &subscription.Subscription{Tier: tier.Elite, Status: subscription.StatusTrialing},
			want: tier.Elite,
		},
		{
			name: "past_due reads free without touching stored tier",
			sub:  &subscription.Subscription{Tier: tier.Pro, Status: subscription.StatusPastDue},
			want: tier.Free,
		},
		{
			name: "canceled reads free",
			sub:  &subscription.Subscription{Tier: tier.Pro, Status: subscription.StatusCanceled},
			want: tier.Free,
		},
		{
			name: "corrupted tier fails closed",
			sub:  &subscription.Subscription{Tier: tier.Tier("platinum"), Status: subscription.StatusActive},
			want: tier.Free,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.sub.EffectiveTier())
		})
	}
}

func TestHasLiveBilling(t *testing.T) {
	t.Parallel()

	assert.False(t, (*subscription.Subscription)(nil).HasLiveBilling())
	assert.False(t, subscription.Default(uuid.New()).HasLiveBilling())

	withSub := func(status subscription.Status) *subscription.Subscription {
		return &subscription.Subscription{
			ProviderSubscriptionID: "sub_1",
			Tier:                   tier.Pro,
			Status:                 status,
		}
	}
	assert.True(t, withSub(subscription.StatusActive).HasLiveBilling())
	assert.True(t, withSub(subscription.StatusTrialing).HasLiveBilling())
	assert.True(t, withSub(subscription.StatusPastDue).HasLiveBilling())
	assert.False(t, withSub(subscription.StatusCanceled).HasLiveBilling())

	// Cleared subscription ID means nothing left to cancel even if the
	// status is stale.
	cleared := withSub(subscription.StatusActive)
	cleared.ProviderSubscriptionID = ""
	assert.False(t, cleared.HasLiveBilling())
}
