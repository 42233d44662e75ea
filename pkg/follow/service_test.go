package follow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/benaiah8/gatherly/pkg/follow"
	"github.com/benaiah8/gatherly/pkg/kv"
	"github.com/benaiah8/gatherly/pkg/localcache"
	"github.com/benaiah8/gatherly/pkg/optimistic"
	"github.com/benaiah8/gatherly/pkg/realtime"
	"github.com/benaiah8/gatherly/pkg/remote"
	"github.com/benaiah8/gatherly/pkg/session"
)

// fakeRemote is a scriptable remote.Client recording mutations.
type fakeRemote struct {
	mu sync.Mutex

	selectOne func(q remote.Query, dest any) error
	selectFn  func(q remote.Query, dest any) error
	insertFn  func(relation string, row any) error
	deleteFn  func(relation string, filters []remote.Filter) error

	inserts int
	deletes int
}

func (f *fakeRemote) Select(_ context.Context, q remote.Query, dest any) error {
	if f.selectFn != nil {
		return f.selectFn(q, dest)
	}
	return nil
}

func (f *fakeRemote) SelectOne(_ context.Context, q remote.Query, dest any) error {
	if f.selectOne != nil {
		return f.selectOne(q, dest)
	}
	return remote.ErrNotFound
}

func (f *fakeRemote) Insert(_ context.Context, relation string, row any, _ any) error {
	f.mu.Lock()
	f.inserts++
	f.mu.Unlock()
	if f.insertFn != nil {
		return f.insertFn(relation, row)
	}
	return nil
}

func (f *fakeRemote) Update(context.Context, string, any, ...remote.Filter) error {
	return nil
}

func (f *fakeRemote) Upsert(context.Context, string, any) error {
	return nil
}

func (f *fakeRemote) Delete(_ context.Context, relation string, filters ...remote.Filter) error {
	f.mu.Lock()
	f.deletes++
	f.mu.Unlock()
	if f.deleteFn != nil {
		return f.deleteFn(relation, filters)
	}
	return nil
}

func (f *fakeRemote) insertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inserts
}

// filterValue extracts the value of a named equality filter.
func filterValue(q remote.Query, column string) string {
	for _, f := range q.Filters {
		if f.Column == column {
			s, _ := f.Value.(string)
			return s
		}
	}
	return ""
}

func viewerSession() *session.Session {
	return session.New("v1", "token", time.Now().Add(time.Hour))
}

func seedCounts(t *testing.T, storage kv.Storage, userID string, c follow.Counts) {
	t.Helper()
	store := localcache.New[localcache.ID, follow.Counts](storage, follow.CountsSlot)
	store.Set(context.Background(), localcache.ID(userID), c)
}

func TestService_Toggle(t *testing.T) {
	t.Parallel()

	t.Run("optimistic follow with mutual reconciliation", func(t *testing.T) {
		t.Parallel()

		storage := kv.NewMemory()
		client := &fakeRemote{}

		// The backend reports both edges after the insert: the relation
		// is mutual, so "following" settles to "friends".
		client.selectOne = func(q remote.Query, dest any) error {
			*dest.(*follow.Row) = follow.Row{
				FollowerID: filterValue(q, "follower_id"),
				FolloweeID: filterValue(q, "followee_id"),
			}
			return nil
		}

		var applied []follow.Status
		svc := follow.NewService(client, storage,
			follow.WithStatusListener(func(_, _ string, s follow.Status) {
				applied = append(applied, s)
			}))

		ctx := context.Background()

		_, ok := svc.CachedStatus(ctx, "v1", "t1")
		require.False(t, ok, "cache starts empty")

		settled, err := svc.Toggle(ctx, viewerSession(), "t1")
		require.NoError(t, err)
		require.Equal(t, follow.StatusFriends, settled)

		// Tentative "following" was applied before the commit settled.
		require.Equal(t, []follow.Status{follow.StatusFollowing, follow.StatusFriends}, applied)

		cached, ok := svc.CachedStatus(ctx, "v1", "t1")
		require.True(t, ok)
		require.Equal(t, follow.StatusFriends, cached)
		require.Equal(t, 1, client.insertCount())
	})

	t.Run("commit failure rolls back status and counts", func(t *testing.T) {
		t.Parallel()

		storage := kv.NewMemory()
		client := &fakeRemote{
			insertFn: func(string, any) error { return remote.ErrRequestFailed },
		}

		seedCounts(t, storage, "v1", follow.Counts{Following: 3, Followers: 1})
		seedCounts(t, storage, "t1", follow.Counts{Following: 0, Followers: 7})

		svc := follow.NewService(client, storage)
		ctx := context.Background()

		_, err := svc.Toggle(ctx, viewerSession(), "t1")
		require.ErrorIs(t, err, optimistic.ErrCommitFailed)

		cached, ok := svc.CachedStatus(ctx, "v1", "t1")
		require.True(t, ok, "rollback writes the previous value through")
		require.Equal(t, follow.StatusNone, cached)

		viewer, _ := svc.CachedCounts(ctx, "v1")
		require.Equal(t, 3, viewer.Following)
		target, _ := svc.CachedCounts(ctx, "t1")
		require.Equal(t, 7, target.Followers)
	})

	t.Run("reconciliation read failure keeps the committed follow", func(t *testing.T) {
		t.Parallel()

		storage := kv.NewMemory()
		client := &fakeRemote{
			selectOne: func(remote.Query, any) error { return remote.ErrRequestFailed },
		}

		svc := follow.NewService(client, storage)
		ctx := context.Background()

		settled, err := svc.Toggle(ctx, viewerSession(), "t1")
		require.NoError(t, err, "the edge was committed, only the refinement read failed")
		require.Equal(t, follow.StatusFollowing, settled)
		require.Equal(t, 1, client.insertCount())

		cached, ok := svc.CachedStatus(ctx, "v1", "t1")
		require.True(t, ok)
		require.Equal(t, follow.StatusFollowing, cached)
	})

	t.Run("unfollow deletes the edge and decrements counts", func(t *testing.T) {
		t.Parallel()

		storage := kv.NewMemory()
		client := &fakeRemote{}

		statuses := localcache.New[localcache.Pair, follow.Status](storage, follow.StatusSlot)
		statuses.Set(context.Background(), localcache.NewPair("v1", "t1"), follow.StatusFollowing)
		seedCounts(t, storage, "v1", follow.Counts{Following: 5})
		seedCounts(t, storage, "t1", follow.Counts{Followers: 5})

		svc := follow.NewService(client, storage)
		ctx := context.Background()

		settled, err := svc.Toggle(ctx, viewerSession(), "t1")
		require.NoError(t, err)
		require.Equal(t, follow.StatusNone, settled)
		require.Equal(t, 1, client.deletes)

		viewer, _ := svc.CachedCounts(ctx, "v1")
		require.Equal(t, 4, viewer.Following)
		target, _ := svc.CachedCounts(ctx, "t1")
		require.Equal(t, 4, target.Followers)
	})

	t.Run("unauthenticated viewer is rejected before any write", func(t *testing.T) {
		t.Parallel()

		storage := kv.NewMemory()
		client := &fakeRemote{}
		svc := follow.NewService(client, storage)
		ctx := context.Background()

		_, err := svc.Toggle(ctx, session.Anonymous(), "t1")
		require.ErrorIs(t, err, session.ErrUnauthenticated)

		_, ok := svc.CachedStatus(ctx, "", "t1")
		require.False(t, ok)
		require.Zero(t, client.insertCount())
	})

	t.Run("following yourself is rejected", func(t *testing.T) {
		t.Parallel()

		svc := follow.NewService(&fakeRemote{}, kv.NewMemory())

		_, err := svc.Toggle(context.Background(), viewerSession(), "v1")
		require.ErrorIs(t, err, follow.ErrSelfFollow)
	})

	t.Run("double trigger issues exactly one remote mutation", func(t *testing.T) {
		t.Parallel()

		storage := kv.NewMemory()
		inCommit := make(chan struct{})
		release := make(chan struct{})

		client := &fakeRemote{
			insertFn: func(string, any) error {
				close(inCommit)
				<-release
				return nil
			},
		}
		// Settle as plain "following": forward edge only.
		client.selectOne = func(q remote.Query, dest any) error {
			if filterValue(q, "follower_id") == "v1" {
				*dest.(*follow.Row) = follow.Row{FollowerID: "v1", FolloweeID: "t1"}
				return nil
			}
			return remote.ErrNotFound
		}

		svc := follow.NewService(client, storage)
		ctx := context.Background()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Toggle(ctx, viewerSession(), "t1")
			require.NoError(t, err)
		}()

		<-inCommit
		_, err := svc.Toggle(ctx, viewerSession(), "t1")
		require.ErrorIs(t, err, optimistic.ErrInFlight)

		close(release)
		wg.Wait()

		require.Equal(t, 1, client.insertCount())
	})
}

func TestService_Counts(t *testing.T) {
	t.Parallel()

	t.Run("refreshes totals from edge listings", func(t *testing.T) {
		t.Parallel()

		client := &fakeRemote{
			selectFn: func(q remote.Query, dest any) error {
				rows := dest.(*[]follow.Row)
				if filterValue(q, "follower_id") == "u1" {
					*rows = make([]follow.Row, 2)
				} else {
					*rows = make([]follow.Row, 3)
				}
				return nil
			},
		}

		svc := follow.NewService(client, kv.NewMemory())

		fresh := make(chan follow.Counts, 1)
		_, ok := svc.Counts(context.Background(), "u1", func(c follow.Counts) { fresh <- c })
		require.False(t, ok, "nothing cached yet")

		select {
		case c := <-fresh:
			require.Equal(t, follow.Counts{Following: 2, Followers: 3}, c)
		case <-time.After(time.Second):
			t.Fatal("refresh did not deliver")
		}
	})

	t.Run("clamped at zero", func(t *testing.T) {
		t.Parallel()

		c := follow.Counts{}
		c = c.AddFollowers(-1).AddFollowers(-1)
		require.Zero(t, c.Followers)

		c = follow.Counts{Following: 1}
		c = c.AddFollowing(-1).AddFollowing(-1)
		require.Zero(t, c.Following)
	})
}

func TestService_ApplyEvent(t *testing.T) {
	t.Parallel()

	t.Run("adjusts cached counters from feed events", func(t *testing.T) {
		t.Parallel()

		storage := kv.NewMemory()
		seedCounts(t, storage, "u1", follow.Counts{Following: 1, Followers: 4})

		svc := follow.NewService(&fakeRemote{}, storage)
		ctx := context.Background()

		svc.ApplyEvent(ctx, realtime.Event{
			Relation: follow.Relation,
			Action:   realtime.ActionInsert,
			Record:   map[string]any{"follower_id": "someone", "followee_id": "u1"},
		})

		c, ok := svc.CachedCounts(ctx, "u1")
		require.True(t, ok)
		require.Equal(t, 5, c.Followers)
	})

	t.Run("repeated deletes never go negative", func(t *testing.T) {
		t.Parallel()

		storage := kv.NewMemory()
		seedCounts(t, storage, "u1", follow.Counts{})

		svc := follow.NewService(&fakeRemote{}, storage)
		ctx := context.Background()

		ev := realtime.Event{
			Relation: follow.Relation,
			Action:   realtime.ActionDelete,
			Record:   map[string]any{"follower_id": "someone", "followee_id": "u1"},
		}
		svc.ApplyEvent(ctx, ev)
		svc.ApplyEvent(ctx, ev)

		c, _ := svc.CachedCounts(ctx, "u1")
		require.Zero(t, c.Followers)
	})

	t.Run("uncached identities are ignored", func(t *testing.T) {
		t.Parallel()

		storage := kv.NewMemory()
		svc := follow.NewService(&fakeRemote{}, storage)
		ctx := context.Background()

		svc.ApplyEvent(ctx, realtime.Event{
			Relation: follow.Relation,
			Action:   realtime.ActionInsert,
			Record:   map[string]any{"follower_id": "a", "followee_id": "b"},
		})

		_, ok := svc.CachedCounts(ctx, "b")
		require.False(t, ok, "events must not fabricate absolute totals")
	})
}

func TestService_BindFeed(t *testing.T) {
	t.Parallel()

	storage := kv.NewMemory()
	seedCounts(t, storage, "u1", follow.Counts{Followers: 1})

	svc := follow.NewService(&fakeRemote{}, storage)
	hub := realtime.NewHub()
	cancel := svc.BindFeed(hub)

	hub.Publish(realtime.Event{
		Relation: follow.Relation,
		Action:   realtime.ActionInsert,
		Record:   map[string]any{"follower_id": "x", "followee_id": "u1"},
	})

	c, _ := svc.CachedCounts(context.Background(), "u1")
	require.Equal(t, 2, c.Followers)

	cancel()
	hub.Publish(realtime.Event{
		Relation: follow.Relation,
		Action:   realtime.ActionDelete,
		Record:   map[string]any{"follower_id": "x", "followee_id": "u1"},
	})

	c, _ = svc.CachedCounts(context.Background(), "u1")
	require.Equal(t, 2, c.Followers, "cancelled subscription receives nothing")
}

func TestService_Block(t *testing.T) {
	t.Parallel()

	storage := kv.NewMemory()
	client := &fakeRemote{}

	statuses := localcache.New[localcache.Pair, follow.Status](storage, follow.StatusSlot)
	ctx := context.Background()
	statuses.Set(ctx, localcache.NewPair("v1", "t1"), follow.StatusFriends)
	statuses.Set(ctx, localcache.NewPair("v1", "t2"), follow.StatusFollowing)

	svc := follow.NewService(client, storage)

	require.NoError(t, svc.Block(ctx, viewerSession(), "t1"))
	require.Equal(t, 2, client.deletes, "both directions severed")

	_, ok := svc.CachedStatus(ctx, "v1", "t1")
	require.False(t, ok)

	st, ok := svc.CachedStatus(ctx, "v1", "t2")
	require.True(t, ok, "unrelated relationship survives")
	require.Equal(t, follow.StatusFollowing, st)
}
