package view

import (
	"context"
	"net/http"

	"github.com/calleval/calleval/internal/nav"
	"github.com/calleval/calleval/internal/session"
	"github.com/calleval/calleval/internal/shared"
)

// CSRFTokenSource issues per-session CSRF tokens.
type CSRFTokenSource interface {
	EnsureToken(ctx context.Context, sess *shared.Session) (string, error)
}

// NewPageData assembles the common fields every authenticated page shares:
// nav filtered for the session's role, the user block, theme, flash, CSRF.
func NewPageData(r *http.Request, store *session.Store, csrf CSRFTokenSource, title string, data any) TemplateData {
	sess := shared.SessionFromContext(r.Context())
	rec := store.Read(sess)

	var token string
	if csrf != nil {
		token, _ = csrf.EnsureToken(r.Context(), sess)
	}
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	var user *session.User
	if rec != nil {
		user = &rec.User
	}
	return TemplateData{
		Title:       title,
		CSRFToken:   token,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Theme:       store.Theme(sess),
		Nav:         nav.Visible(rec),
		User:        user,
		Data:        data,
	}
}
