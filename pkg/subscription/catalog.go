package subscription

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/unipost/unipost/pkg/tier"
)

// PriceCatalog maps paid tiers to provider price IDs and back. The free
// tier never appears in the catalog: there is no purchase of free.
type PriceCatalog struct {
	byTier  map[tier.Tier]string
	byPrice map[string]tier.Tier
}

// NewPriceCatalog builds a catalog from an explicit tier-to-price table.
// Returns an error for invalid tiers, free-tier entries, empty price IDs,
// or a price ID mapped to two tiers.
func NewPriceCatalog(prices map[tier.Tier]string) (*PriceCatalog, error) {
	if len(prices) == 0 {
		return nil, errors.New("price catalog requires at least one paid tier")
	}

	c := &PriceCatalog{
		byTier:  make(map[tier.Tier]string, len(prices)),
		byPrice: make(map[string]tier.Tier, len(prices)),
	}
	for t, priceID := range prices {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: %q", tier.ErrUnknownTier, t)
		}
		if t == tier.Free {
			return nil, errors.New("free tier cannot have a provider price")
		}
		if priceID == "" {
			return nil, fmt.Errorf("empty price ID for tier %q", t)
		}
		if existing, dup := c.byPrice[priceID]; dup {
			return nil, fmt.Errorf("price ID %q mapped to both %q and %q", priceID, existing, t)
		}
		c.byTier[t] = priceID
		c.byPrice[priceID] = t
	}
	return c, nil
}

// LoadPriceCatalog reads a catalog from a YAML file of the form:
//
//	prices:
//	  pro: pri_01abc
//	  elite: pri_01def
func LoadPriceCatalog(path string) (*PriceCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read price catalog: %w", err)
	}

	var doc struct {
		Prices map[string]string `yaml:"prices"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse price catalog: %w", err)
	}

	prices := make(map[tier.Tier]string, len(doc.Prices))
	for name, priceID := range doc.Prices {
		t, err := tier.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("price catalog tier %q: %w", name, err)
		}
		prices[t] = priceID
	}
	return NewPriceCatalog(prices)
}

// PriceID resolves the provider price for a paid tier.
// Returns ErrUnknownTier for values outside the closed set and
// ErrPriceNotConfigured when the tier has no price entry.
func (c *PriceCatalog) PriceID(t tier.Tier) (string, error) {
	if !t.Valid() {
		return "", ErrUnknownTier
	}
	priceID, ok := c.byTier[t]
	if !ok {
		return "", ErrPriceNotConfigured
	}
	return priceID, nil
}

// TierOf resolves the tier a provider price belongs to. Used by the
// webhook processor to derive the tier from an event's current price.
func (c *PriceCatalog) TierOf(priceID string) (tier.Tier, bool) {
	t, ok := c.byPrice[priceID]
	return t, ok
}
