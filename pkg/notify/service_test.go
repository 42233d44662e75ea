package notify_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/benaiah8/gatherly/pkg/kv"
	"github.com/benaiah8/gatherly/pkg/notify"
	"github.com/benaiah8/gatherly/pkg/optimistic"
	"github.com/benaiah8/gatherly/pkg/remote"
	"github.com/benaiah8/gatherly/pkg/session"
)

type fakeRemote struct {
	mu sync.Mutex

	selectOne func(q remote.Query, dest any) error
	updateErr error
	insertErr error

	updates int
	inserts int
}

func (f *fakeRemote) Select(context.Context, remote.Query, any) error {
	return nil
}

func (f *fakeRemote) SelectOne(_ context.Context, q remote.Query, dest any) error {
	if f.selectOne != nil {
		return f.selectOne(q, dest)
	}
	return remote.ErrNotFound
}

func (f *fakeRemote) Insert(context.Context, string, any, any) error {
	f.mu.Lock()
	f.inserts++
	f.mu.Unlock()
	return f.insertErr
}

func (f *fakeRemote) Update(context.Context, string, any, ...remote.Filter) error {
	f.mu.Lock()
	f.updates++
	f.mu.Unlock()
	return f.updateErr
}

func (f *fakeRemote) Upsert(context.Context, string, any) error {
	return nil
}

func (f *fakeRemote) Delete(context.Context, string, ...remote.Filter) error {
	return nil
}

func viewerSession() *session.Session {
	return session.New("u1", "token", time.Now().Add(time.Hour))
}

func TestService_Toggle(t *testing.T) {
	t.Parallel()

	t.Run("flips the setting and updates the remote row", func(t *testing.T) {
		t.Parallel()

		client := &fakeRemote{}
		svc := notify.NewService(client, kv.NewMemory())
		ctx := context.Background()

		got, err := svc.Toggle(ctx, viewerSession(), "u2")
		require.NoError(t, err)
		require.True(t, got.Enabled)
		require.Equal(t, 1, client.updates)
		require.Zero(t, client.inserts)

		cached, ok := svc.Cached(ctx, "u1", "u2")
		require.True(t, ok)
		require.True(t, cached.Enabled)

		got, err = svc.Toggle(ctx, viewerSession(), "u2")
		require.NoError(t, err)
		require.False(t, got.Enabled)
	})

	t.Run("missing row falls back to create", func(t *testing.T) {
		t.Parallel()

		client := &fakeRemote{updateErr: remote.ErrNotFound}
		svc := notify.NewService(client, kv.NewMemory())

		got, err := svc.Toggle(context.Background(), viewerSession(), "u2")
		require.NoError(t, err)
		require.True(t, got.Enabled)
		require.Equal(t, 1, client.inserts)
	})

	t.Run("remote failure reverts the cache", func(t *testing.T) {
		t.Parallel()

		client := &fakeRemote{updateErr: remote.ErrRequestFailed}
		svc := notify.NewService(client, kv.NewMemory())
		ctx := context.Background()

		_, err := svc.Toggle(ctx, viewerSession(), "u2")
		require.ErrorIs(t, err, optimistic.ErrCommitFailed)

		cached, ok := svc.Cached(ctx, "u1", "u2")
		require.True(t, ok)
		require.False(t, cached.Enabled)
	})

	t.Run("create fallback failure reverts too", func(t *testing.T) {
		t.Parallel()

		client := &fakeRemote{updateErr: remote.ErrNotFound, insertErr: remote.ErrRequestFailed}
		svc := notify.NewService(client, kv.NewMemory())
		ctx := context.Background()

		_, err := svc.Toggle(ctx, viewerSession(), "u2")
		require.ErrorIs(t, err, optimistic.ErrCommitFailed)

		cached, ok := svc.Cached(ctx, "u1", "u2")
		require.True(t, ok)
		require.False(t, cached.Enabled)
	})

	t.Run("targeting yourself is rejected before any write", func(t *testing.T) {
		t.Parallel()

		client := &fakeRemote{}
		svc := notify.NewService(client, kv.NewMemory())
		ctx := context.Background()

		_, err := svc.Toggle(ctx, viewerSession(), "u1")
		require.ErrorIs(t, err, notify.ErrSelfTarget)
		require.Zero(t, client.updates)
		require.Zero(t, client.inserts)

		_, ok := svc.Cached(ctx, "u1", "u1")
		require.False(t, ok)
	})

	t.Run("rejects anonymous viewers", func(t *testing.T) {
		t.Parallel()

		client := &fakeRemote{}
		svc := notify.NewService(client, kv.NewMemory())

		_, err := svc.Toggle(context.Background(), session.Anonymous(), "u2")
		require.ErrorIs(t, err, session.ErrUnauthenticated)
		require.Zero(t, client.updates)
	})
}

func TestService_Setting(t *testing.T) {
	t.Parallel()

	t.Run("anonymous viewers see notifications off", func(t *testing.T) {
		t.Parallel()

		client := &fakeRemote{}
		svc := notify.NewService(client, kv.NewMemory())

		got, ok := svc.Setting(context.Background(), session.Anonymous(), "u2", nil)
		require.True(t, ok)
		require.False(t, got.Enabled)
	})

	t.Run("delivers the remote setting and caches it", func(t *testing.T) {
		t.Parallel()

		client := &fakeRemote{
			selectOne: func(_ remote.Query, dest any) error {
				*dest.(*notify.Row) = notify.Row{UserID: "u1", TargetID: "u2", Enabled: true}
				return nil
			},
		}
		svc := notify.NewService(client, kv.NewMemory())
		ctx := context.Background()

		fresh := make(chan notify.Settings, 1)
		_, ok := svc.Setting(ctx, viewerSession(), "u2", func(s notify.Settings) { fresh <- s })
		require.False(t, ok, "nothing cached yet")

		select {
		case got := <-fresh:
			require.True(t, got.Enabled)
		case <-time.After(time.Second):
			t.Fatal("refresh did not deliver")
		}

		cached, ok := svc.Cached(ctx, "u1", "u2")
		require.True(t, ok)
		require.True(t, cached.Enabled)
	})

	t.Run("no remote row means off", func(t *testing.T) {
		t.Parallel()

		client := &fakeRemote{}
		svc := notify.NewService(client, kv.NewMemory())

		fresh := make(chan notify.Settings, 1)
		svc.Setting(context.Background(), viewerSession(), "u2", func(s notify.Settings) { fresh <- s })

		select {
		case got := <-fresh:
			require.False(t, got.Enabled)
		case <-time.After(time.Second):
			t.Fatal("refresh did not deliver")
		}
	})
}

func TestService_Invalidate(t *testing.T) {
	t.Parallel()

	client := &fakeRemote{}
	svc := notify.NewService(client, kv.NewMemory())
	ctx := context.Background()

	_, err := svc.Toggle(ctx, viewerSession(), "u2")
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, viewerSession(), "u3")
	require.NoError(t, err)

	svc.Invalidate(ctx, "u2")

	_, ok := svc.Cached(ctx, "u1", "u2")
	require.False(t, ok)
	cached, ok := svc.Cached(ctx, "u1", "u3")
	require.True(t, ok)
	require.True(t, cached.Enabled)
}
