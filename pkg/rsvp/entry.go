package rsvp

import "time"

// EntryTTL is how long a cached attendee list stays servable.
const EntryTTL = 10 * time.Minute

// Responses a viewer can give.
const (
	ResponseGoing    = "going"
	ResponseNotGoing = "not_going"
)

// User is one attendee of a post.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Response  string `json:"response"`
}

// Entry is the cached attendance state of one post.
type Entry struct {
	Users []User `json:"users"`
	// CurrentUserResponse is the viewer's own response, empty when the
	// viewer has not responded.
	CurrentUserResponse string `json:"current_user_rsvp"`
}

// withUser returns a copy of the entry with the viewer's row replaced (or
// removed when response is empty) and the viewer response updated.
func (e Entry) withUser(userID, response string) Entry {
	users := make([]User, 0, len(e.Users)+1)
	var existing *User
	for _, u := range e.Users {
		if u.ID == userID {
			u := u
			existing = &u
			continue
		}
		users = append(users, u)
	}

	if response != "" {
		updated := User{ID: userID, Response: response}
		if existing != nil {
			updated.Name = existing.Name
			updated.AvatarURL = existing.AvatarURL
		}
		users = append(users, updated)
	}

	return Entry{Users: users, CurrentUserResponse: response}
}
