// Package guard decides whether a protected view may render for the current
// session. The decision is re-evaluated from storage on every request; a
// session invalidated elsewhere is honored on the next guarded navigation.
package guard

import (
	"log/slog"
	"net/http"

	"github.com/calleval/calleval/internal/rbac"
	"github.com/calleval/calleval/internal/session"
	"github.com/calleval/calleval/internal/shared"
)

// Decision is the outcome of a guard check.
type Decision int

const (
	// Unauthenticated means no token is present; redirect to login.
	Unauthenticated Decision = iota
	// Forbidden means a token exists but the role check failed; redirect to
	// the unauthorized page.
	Forbidden
	// Authorized means the requested view may render.
	Authorized
)

// Check applies the guard transition rule. A token with an unparseable or
// missing profile (rec == nil) passes the authentication step but fails any
// role restriction.
func Check(token string, rec *session.Record, allowed []rbac.Role) Decision {
	if token == "" {
		return Unauthenticated
	}
	if len(allowed) > 0 && !rbac.HasAnyRole(rec, allowed...) {
		return Forbidden
	}
	return Authorized
}

// Guard wires the decision into chi middleware.
type Guard struct {
	Store      *session.Store
	Logger     *slog.Logger
	LoginPath  string
	DeniedPath string
}

// New constructs a Guard with the default redirect targets.
func New(store *session.Store, logger *slog.Logger) Guard {
	return Guard{
		Store:      store,
		Logger:     logger,
		LoginPath:  "/login",
		DeniedPath: "/unauthorized",
	}
}

// RequireAuth admits any session with a token, regardless of role.
func (g Guard) RequireAuth() func(http.Handler) http.Handler {
	return g.middleware(nil)
}

// RequireRoles admits only sessions whose role is in the allow list.
func (g Guard) RequireRoles(roles ...rbac.Role) func(http.Handler) http.Handler {
	return g.middleware(roles)
}

func (g Guard) middleware(allowed []rbac.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			token := g.Store.Token(sess)
			rec := g.Store.Read(sess)

			switch Check(token, rec, allowed) {
			case Authorized:
				next.ServeHTTP(w, r)
			case Forbidden:
				if g.Logger != nil {
					g.Logger.Info("access denied", slog.String("path", r.URL.Path))
				}
				http.Redirect(w, r, g.DeniedPath, http.StatusSeeOther)
			default:
				http.Redirect(w, r, g.LoginPath, http.StatusSeeOther)
			}
		})
	}
}
