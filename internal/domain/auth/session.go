package auth

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrTokenRequired  = errors.New("auth: token is required")
	ErrUserRequired   = errors.New("auth: user is required")
	ErrSessionMissing = errors.New("auth: session required")
	ErrSessionExpired = errors.New("auth: session expired")
)

type Token string

const RoleAdmin = "admin"

// Session is the signed-in customer or staff member. It is handed to every operation
// explicitly rather than read from shared state.
type Session struct {
	Token     Token
	UserID    string
	Email     string
	Roles     []string
	ExpiresAt time.Time
}

type CreateSessionParams struct {
	Token     Token
	UserID    string
	Email     string
	Roles     []string
	ExpiresAt time.Time
}

func NewSession(params CreateSessionParams) (Session, error) {
	token := strings.TrimSpace(string(params.Token))
	if token == "" {
		return Session{}, ErrTokenRequired
	}
	if strings.TrimSpace(params.UserID) == "" {
		return Session{}, ErrUserRequired
	}
	return Session{
		Token:     Token(token),
		UserID:    strings.TrimSpace(params.UserID),
		Email:     strings.TrimSpace(params.Email),
		Roles:     append([]string(nil), params.Roles...),
		ExpiresAt: params.ExpiresAt.UTC(),
	}, nil
}

func (s Session) Expired(at time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	if at.IsZero() {
		at = time.Now()
	}
	return !s.ExpiresAt.After(at.UTC())
}

func (s Session) HasRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return false
	}
	for _, r := range s.Roles {
		if strings.ToLower(r) == role {
			return true
		}
	}
	return false
}

// Check fails when the session is absent or expired.
func (s Session) Check(now time.Time) error {
	if s.UserID == "" || s.Token == "" {
		return ErrSessionMissing
	}
	if s.Expired(now) {
		return ErrSessionExpired
	}
	return nil
}
