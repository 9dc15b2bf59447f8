// Package tier defines the closed set of subscription tiers and the pure
// entitlement table derived from them.
//
// Tiers form a strict total order (Free < Pro < Elite) used for
// upgrade/downgrade decisions. All ordering goes through Tier.Order; string
// comparison is never used so typos or casing mismatches cannot rank
// between real tiers.
//
// Entitlements are resolved fresh from a tier value each time they are
// needed:
//
//	ent := tier.Resolve(tier.Pro)
//	if ent.SchedulingAllowed {
//	    // ...
//	}
//
// The package has no dependencies and performs no I/O.
package tier
