package shared

import "errors"

var (
	// ErrInvalidCredentials indicates the upstream API rejected a login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionExpired indicates the upstream API answered 401 and the
	// session has been cleared; the triggering response must not be read.
	ErrSessionExpired = errors.New("session expired")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
