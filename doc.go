// Package gatherly is the client data kit of the Gatherly backend: typed
// access to profiles, follows, RSVPs and notification settings over a
// PostgREST-style data service, fronted by persistent per-feature caches
// with stale-while-revalidate reads and optimistic mutations.
//
// The facade wires a remote client, slot storage and an optional realtime
// feed into the feature services and tracks the viewer session:
//
//	rc := remote.NewREST("https://api.gatherly.app", remote.WithAPIKey(key))
//	client := gatherly.New(rc,
//	    gatherly.WithLogger(log),
//	    gatherly.WithSession(sess),
//	)
//
//	status, _ := client.FollowStatus(ctx, "u2", func(s follow.Status) {
//	    render(s)
//	})
//
// Reads never fail on cache trouble; they degrade to misses and refetch.
// Mutations apply locally first and roll back when the remote rejects them.
package gatherly
