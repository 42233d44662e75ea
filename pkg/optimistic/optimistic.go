package optimistic

import (
	"context"
	"errors"
	"sync/atomic"
)

// Sentinel errors for mutation runs.
var (
	// ErrInFlight is returned when a mutation is triggered while a prior
	// one on the same coordinator has not settled. The trigger is a no-op.
	ErrInFlight = errors.New("optimistic: mutation already in flight")

	// ErrCommitFailed wraps the remote error after a rollback.
	ErrCommitFailed = errors.New("optimistic: remote commit failed")
)

// Mutation describes one optimistic state change of type S.
type Mutation[S any] struct {
	// Current returns the present local state, captured before anything
	// is touched. It becomes the rollback snapshot.
	Current func() S

	// Next computes the tentative state from the user's intent.
	Next func(prev S) S

	// Apply makes a state visible locally: in-memory view state first,
	// then the cache write-through. It must not block on the network.
	Apply func(s S)

	// Commit performs the remote mutation and returns the settled state,
	// which may differ from next when the backend knows better.
	Commit func(ctx context.Context, next S) (S, error)

	// Rollback restores the previous state after a failed commit.
	// If nil, Apply(prev) is used.
	Rollback func(prev S)
}

// Coordinator serializes optimistic mutations of one toggle. The busy flag
// gives a total order of attempts: at most one commit is in flight, and any
// trigger arriving meanwhile is dropped.
type Coordinator[S any] struct {
	busy atomic.Bool
}

// NewCoordinator creates a coordinator for one toggle instance.
func NewCoordinator[S any]() *Coordinator[S] {
	return &Coordinator[S]{}
}

// Busy reports whether a mutation is currently in flight.
func (c *Coordinator[S]) Busy() bool {
	return c.busy.Load()
}

// Run executes the optimistic protocol and returns the settled state.
//
// On commit failure the previous state is restored and the error is returned
// wrapped in ErrCommitFailed; the caller surfaces it to the user layer.
func (c *Coordinator[S]) Run(ctx context.Context, m Mutation[S]) (S, error) {
	var zero S

	if !c.busy.CompareAndSwap(false, true) {
		return zero, ErrInFlight
	}
	defer c.busy.Store(false)

	prev := m.Current()
	next := m.Next(prev)

	// Local state changes before any network call.
	m.Apply(next)

	settled, err := m.Commit(ctx, next)
	if err != nil {
		if m.Rollback != nil {
			m.Rollback(prev)
		} else {
			m.Apply(prev)
		}
		return zero, errors.Join(ErrCommitFailed, err)
	}

	// Reconcile with the authoritative value.
	m.Apply(settled)

	return settled, nil
}
