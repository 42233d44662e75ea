// Package remote is the typed client for the hosted data service the
// application reads and writes through (relational tables behind a
// PostgREST-style HTTP surface).
//
// The service itself is an external collaborator: this package only shapes
// requests and classifies responses. Operations cover the CRUD surface the
// features need: select (one or many, with equality filters, ordering and
// limits), insert, update, upsert and delete against named relations.
//
// A missing row is distinguishable from other failures via [ErrNotFound],
// which the profile and notification features use to trigger their one-shot
// fallback-create paths:
//
//	var p Profile
//	err := client.SelectOne(ctx, remote.Query{
//	    Relation: "profiles",
//	    Filters:  []remote.Filter{remote.Eq("id", userID)},
//	}, &p)
//	if errors.Is(err, remote.ErrNotFound) {
//	    // create a placeholder row
//	}
//
// No retries and no timeouts beyond the caller's context: failed mutations
// surface to the optimistic coordinator, which rolls back and reports.
package remote
