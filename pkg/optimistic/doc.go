// Package optimistic provides the mutation protocol behind instant-feeling
// toggles: apply a tentative state change locally, issue the remote write,
// and reconcile or roll back when it settles.
//
// Every toggle feature (follow, RSVP, notification setting) instantiates the
// same [Coordinator.Run] protocol with its own [Mutation] callbacks:
//
//  1. Capture the previous state.
//  2. Compute the next state from the user's intent.
//  3. Apply next locally (view state and cache write-through) before any
//     network traffic.
//  4. Commit the remote mutation.
//  5. On success, apply the settled value the backend resolved to (for
//     example "following" settling to "friends" when the relation turns out
//     mutual).
//  6. On failure, roll back to the previous state and surface the error.
//     No retry is performed; the user must re-trigger the action.
//
// A coordinator holds a busy flag: triggering Run while a prior invocation is
// still in flight is a no-op signalled by [ErrInFlight].
package optimistic
