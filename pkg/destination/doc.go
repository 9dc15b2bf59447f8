// Package destination manages linked publishing destinations and enforces
// the per-tier destination limit.
//
// The enforcer's victim selection is deterministic: platform IDs are
// sorted lexicographically and everything beyond the limit is revoked, so
// repeated enforcement after crashes or redelivered events converges on
// the same surviving set. Eviction order is a compatibility choice, not a
// product decision; a most-recently-linked-first policy may be preferable
// but needs product sign-off before changing.
package destination
