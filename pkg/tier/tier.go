package tier

import "strings"

// Tier is a closed enumeration of subscription levels with a strict total
// order: Free < Pro < Elite. Ordering comparisons must go through Order,
// never through string comparison, so that unknown or misspelled values
// cannot silently rank between real tiers.
type Tier string

const (
	Free  Tier = "free"
	Pro   Tier = "pro"
	Elite Tier = "elite"
)

// tierOrder is the single source of truth for tier ranking.
var tierOrder = map[Tier]int{
	Free:  0,
	Pro:   1,
	Elite: 2,
}

// Parse converts a raw string into a Tier. Input is lowercased before
// matching so provider payloads with inconsistent casing still resolve.
// Returns ErrUnknownTier for anything outside the closed set.
func Parse(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tierOrder[t]; !ok {
		return "", ErrUnknownTier
	}
	return t, nil
}

// Valid reports whether t is a member of the closed tier set.
func (t Tier) Valid() bool {
	_, ok := tierOrder[t]
	return ok
}

// Order returns the rank of t within the total order. Unknown tiers rank
// below Free so a corrupted value never grants paid entitlements.
func (t Tier) Order() int {
	if o, ok := tierOrder[t]; ok {
		return o
	}
	return -1
}

// Less reports whether t ranks strictly below other.
func (t Tier) Less(other Tier) bool {
	return t.Order() < other.Order()
}

func (t Tier) String() string {
	return string(t)
}
