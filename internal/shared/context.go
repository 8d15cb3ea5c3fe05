package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession attaches the browser session loaded by the session
// middleware; everything downstream (CSRF check, route guard, handlers)
// reads the same *Session instance from here.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext returns the browser session for the request, or nil when
// the request never passed through the session middleware.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}
