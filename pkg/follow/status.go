package follow

// Status is the follow relationship between a viewer and a target.
type Status string

const (
	// StatusNone means no relationship exists.
	StatusNone Status = "none"
	// StatusPending means a follow request awaits the target's approval.
	StatusPending Status = "pending"
	// StatusFollowing means the viewer follows the target.
	StatusFollowing Status = "following"
	// StatusFriends means the follow is mutual.
	StatusFriends Status = "friends"
)

// Active reports whether the viewer currently counts as a follower.
func (s Status) Active() bool {
	return s == StatusFollowing || s == StatusFriends
}
