// Package auth issues and resolves user sessions. A Session is an explicit
// value handed to whatever needs the signed-in user.
package auth

import (
	"time"

	"github.com/google/uuid"

	"fxdesk/internal/domain"
)

// Session is an authenticated user and the token that proves it
type Session struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	TokenID   string       `json:"-"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// UserID returns the session's user id. A nil session has no user.
func (s *Session) UserID() (uuid.UUID, bool) {
	if s == nil || s.User == nil || s.User.ID == uuid.Nil {
		return uuid.Nil, false
	}
	return s.User.ID, true
}

// Expired reports whether the session token has expired
func (s *Session) Expired(now time.Time) bool {
	return s == nil || now.After(s.ExpiresAt)
}
