package gateway

import (
	"errors"
	"net/http"

	"github.com/calleval/calleval/internal/platform/httpx"
	"github.com/calleval/calleval/internal/shared"
)

// RespondCallError maps a failed gateway call onto an HTTP response for JSON
// endpoints. A cleared session answers 401 so the page script can send the
// browser to login; anything else is an upstream transport failure.
func RespondCallError(w http.ResponseWriter, err error) {
	if errors.Is(err, shared.ErrSessionExpired) {
		httpx.Problem(w, http.StatusUnauthorized, "Session Expired", "sign in again")
		return
	}
	httpx.Problem(w, http.StatusBadGateway, "Upstream Error", "")
}

// RedirectOnExpiry sends the browser to the login page when err is the
// session-expiry sentinel. Returns true when it handled the error.
func RedirectOnExpiry(w http.ResponseWriter, r *http.Request, err error) bool {
	if errors.Is(err, shared.ErrSessionExpired) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return true
	}
	return false
}
