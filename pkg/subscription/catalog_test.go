package subscription_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unipost/unipost/pkg/subscription"
	"github.com/unipost/unipost/pkg/tier"
)

func TestNewPriceCatalog(t *testing.T) {
	t.Parallel()

	t.Run("resolves both directions", func(t *testing.T) {
		t.Parallel()

		catalog, err := subscription.NewPriceCatalog(map[tier.Tier]string{
			tier.Pro:   "pri_pro",
			tier.Elite: "pri_elite",
		})
		require.NoError(t, err)

		priceID, err := catalog.PriceID(tier.Pro)
		require.NoError(t, err)
		assert.Equal(t, "pri_pro", priceID)

		got, ok := catalog.TierOf("pri_elite")
		require.True(t, ok)
		assert.Equal(t, tier.Elite, got)

		_, ok = catalog.TierOf("pri_unseen")
		assert.False(t, ok)
	})

	t.Run("rejects free tier entries", func(t *testing.T) {
		t.Parallel()

		_, err := subscription.NewPriceCatalog(map[tier.Tier]string{tier.Free: "pri_free"})
		require.Error(t, err)
	})

	t.Run("rejects duplicate price IDs", func(t *testing.T) {
		t.Parallel()

		_, err := subscription.NewPriceCatalog(map[tier.Tier]string{
			tier.Pro:   "pri_same",
			tier.Elite: "pri_same",
		})
		require.Error(t, err)
	})

	t.Run("unknown tier has no price", func(t *testing.T) {
		t.Parallel()

		catalog, err := subscription.NewPriceCatalog(map[tier.Tier]string{tier.Pro: "pri_pro"})
		require.NoError(t, err)

		_, err = catalog.PriceID(tier.Tier("platinum"))
		assert.ErrorIs(t, err, subscription.ErrUnknownTier)

		_, err = catalog.PriceID(tier.Elite)
		assert.ErrorIs(t, err, subscription.ErrPriceNotConfigured)
	})
}

func TestLoadPriceCatalog(t *testing.T) {
	t.Parallel()

	t.Run("loads yaml file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "prices.yaml")
		require.NoError(t, os.WriteFile(path, []byte("prices:\n  pro: pri_pro\n  elite: pri_elite\n"), 0o600))

		catalog, err := subscription.LoadPriceCatalog(path)
		require.NoError(t, err)

		priceID, err := catalog.PriceID(tier.Elite)
		require.NoError(t, err)
		assert.Equal(t, "pri_elite", priceID)
	})

	t.Run("rejects unknown tier names", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "prices.yaml")
		require.NoError(t, os.WriteFile(path, []byte("prices:\n  platinum: pri_x\n"), 0o600))

		_, err := subscription.LoadPriceCatalog(path)
		require.ErrorIs(t, err, tier.ErrUnknownTier)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := subscription.LoadPriceCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}
