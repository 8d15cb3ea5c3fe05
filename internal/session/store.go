// Package session implements the client-side session store: the single place
// the dashboard reads and writes the bearer token and user profile of the
// authenticated actor. Everything else (permission engine, route guard,
// gateway) goes through this store rather than touching persistence directly.
package session

import (
	"encoding/json"
	"log/slog"

	"github.com/calleval/calleval/internal/shared"
)

// Storage keys inside the browser session record. KeyLegacyAuth is a boolean
// flag kept for backward compatibility; it is written and cleared alongside
// the token but never read as the source of truth.
const (
	KeyToken      = "auth_token"
	KeyLegacyAuth = "auth"
	KeyUser       = "user"
	KeyTheme      = "theme"
)

// User is the profile snapshot returned by the upstream API at login.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Record is the client-side view of an authenticated actor. Token and User
// are always populated together; a Record never exists half-formed.
type Record struct {
	Token string
	User  User
}

// Store reads and writes session records. It has no network access and no
// side effects beyond the browser session it is handed.
type Store struct {
	logger *slog.Logger
}

// NewStore constructs a Store.
func NewStore(logger *slog.Logger) *Store {
	return &Store{logger: logger}
}

// Read returns the current record, or nil when the browser session holds no
// token, no user, or a user payload that fails to parse. A malformed profile
// is logged and swallowed: it means "no session", never an error.
func (s *Store) Read(sess *shared.Session) *Record {
	if sess == nil {
		return nil
	}
	token := sess.Get(KeyToken)
	raw := sess.Get(KeyUser)
	if token == "" || raw == "" {
		return nil
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		if s.logger != nil {
			s.logger.Warn("malformed user profile in session", slog.Any("error", err))
		}
		return nil
	}
	return &Record{Token: token, User: user}
}

// Token returns the raw bearer token without requiring a parseable profile.
// The route guard uses it to distinguish "not logged in" from "logged in but
// profile unusable".
func (s *Store) Token(sess *shared.Session) string {
	if sess == nil {
		return ""
	}
	return sess.Get(KeyToken)
}

// Write persists token, legacy auth flag, and user profile. All three land in
// the same serialized session record, so callers never observe one without
// the others.
func (s *Store) Write(sess *shared.Session, token string, user User) error {
	if sess == nil {
		return nil
	}
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	sess.Set(KeyToken, token)
	sess.Set(KeyLegacyAuth, "true")
	sess.Set(KeyUser, string(data))
	return nil
}

// Clear removes token, user, and the legacy auth flag. The theme mirror is
// kept for pre-auth rendering. Clearing an already-empty session is a no-op.
func (s *Store) Clear(sess *shared.Session) {
	if sess == nil {
		return
	}
	sess.Delete(KeyToken)
	sess.Delete(KeyLegacyAuth)
	sess.Delete(KeyUser)
}

// Theme returns the stored theme mirror, empty when unset.
func (s *Store) Theme(sess *shared.Session) string {
	if sess == nil {
		return ""
	}
	return sess.Get(KeyTheme)
}

// SetTheme updates the theme mirror.
func (s *Store) SetTheme(sess *shared.Session, theme string) {
	if sess == nil {
		return
	}
	sess.Set(KeyTheme, theme)
}
