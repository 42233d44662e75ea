package localcache

// Key addresses a cache entry within a slot. Implementations are plain
// comparable values; References drives identity-based invalidation.
type Key interface {
	comparable

	// References reports whether the key involves the given identity
	// on any side of the relation it scopes.
	References(id string) bool

	// FlightKey returns a stable string used to deduplicate concurrent
	// background refreshes of the same entry.
	FlightKey() string
}

// Pair scopes an entry to a relationship between a viewer and a target.
// It replaces delimiter-joined composite strings, so identifiers may
// themselves contain any character.
type Pair struct {
	Viewer string `json:"viewer"`
	Target string `json:"target"`
}

// NewPair builds a relationship key.
func NewPair(viewer, target string) Pair {
	return Pair{Viewer: viewer, Target: target}
}

// References reports whether id is either side of the relationship.
func (p Pair) References(id string) bool {
	return p.Viewer == id || p.Target == id
}

// FlightKey returns a refresh-deduplication key. The NUL separator cannot
// occur in identifiers delivered by the backend.
func (p Pair) FlightKey() string {
	return p.Viewer + "\x00" + p.Target
}

// ID scopes an entry to a single entity.
type ID string

// References reports whether id is the keyed entity.
func (i ID) References(id string) bool {
	return string(i) == id
}

// FlightKey returns a refresh-deduplication key.
func (i ID) FlightKey() string {
	return string(i)
}
