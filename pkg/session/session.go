package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is the viewer identity consumed by the data kit. It is the output
// of the authentication flow, which is not implemented here.
type Session struct {
	CreatedAt time.Time
	ExpiresAt time.Time // zero = no expiry known

	ID          string // local session handle
	UserID      string // empty = anonymous viewer
	AccessToken string // bearer token for the remote data service
}

// New creates a session for a signed-in viewer.
func New(userID, accessToken string, expiresAt time.Time) *Session {
	return &Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		AccessToken: accessToken,
		CreatedAt:   time.Now(),
		ExpiresAt:   expiresAt,
	}
}

// Anonymous creates a session with no viewer attached. Passive reads work;
// mutations are rejected with ErrUnauthenticated.
func Anonymous() *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}
}

// IsAuthenticated reports whether the session has a live signed-in viewer.
func (s *Session) IsAuthenticated() bool {
	if s == nil || s.UserID == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || time.Now().Before(s.ExpiresAt)
}

// RequireUser returns the viewer id, or ErrUnauthenticated/ErrExpired when
// there is none. Mutation paths call this before touching any state.
func (s *Session) RequireUser() (string, error) {
	if s == nil || s.UserID == "" {
		return "", ErrUnauthenticated
	}
	if !s.ExpiresAt.IsZero() && !time.Now().Before(s.ExpiresAt) {
		return "", ErrExpired
	}
	return s.UserID, nil
}
