package localcache_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benaiah8/gatherly/pkg/localcache"
)

func TestPair_References(t *testing.T) {
	t.Parallel()

	pair := localcache.NewPair("viewer-1", "target-1")

	require.True(t, pair.References("viewer-1"))
	require.True(t, pair.References("target-1"))
	require.False(t, pair.References("someone-else"))
	require.False(t, pair.References(""))
}

func TestPair_FlightKey(t *testing.T) {
	t.Parallel()

	// Flight keys must stay injective for identifiers containing "-",
	// which UUID-style ids do.
	a := localcache.NewPair("a", "b-c").FlightKey()
	b := localcache.NewPair("a-b", "c").FlightKey()
	require.NotEqual(t, a, b)
}

func TestID_References(t *testing.T) {
	t.Parallel()

	id := localcache.ID("post-1")

	require.True(t, id.References("post-1"))
	require.False(t, id.References("post-2"))
}
