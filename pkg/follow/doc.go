// Package follow implements the follow relationship feature: cached follow
// status per viewer/target pair, follower counts with clamped deltas, and the
// optimistic follow/unfollow toggle.
//
// Status values move only through explicit actions and server
// reconciliation; the cache never infers a transition on its own. A follow
// that turns out mutual settles from "following" to "friends" when the
// backend reports the reverse edge.
//
// Counts are adjusted by ±1 deltas from optimistic toggles and from realtime
// feed events, clamped at zero, and refreshed authoritatively on demand.
package follow
