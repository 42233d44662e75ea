package follow

// Counts holds a user's follow totals. Values never go below zero: deltas
// from optimistic actions and realtime events are clamped, not trusted.
type Counts struct {
	Following int `json:"following"`
	Followers int `json:"followers"`
}

// AddFollowing returns a copy with the following total adjusted and clamped.
func (c Counts) AddFollowing(delta int) Counts {
	c.Following = max(c.Following+delta, 0)
	return c
}

// AddFollowers returns a copy with the followers total adjusted and clamped.
func (c Counts) AddFollowers(delta int) Counts {
	c.Followers = max(c.Followers+delta, 0)
	return c
}
