package guard_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calleval/calleval/internal/guard"
	"github.com/calleval/calleval/internal/rbac"
	"github.com/calleval/calleval/internal/session"
	"github.com/calleval/calleval/internal/shared"
	_ "github.com/calleval/calleval/testing"
)

func record(role string) *session.Record {
	return &session.Record{Token: "tok", User: session.User{ID: "9", Role: role}}
}

func TestCheck(t *testing.T) {
	adminOnly := []rbac.Role{rbac.RoleAdmin}

	assert.Equal(t, guard.Unauthenticated, guard.Check("", nil, nil))
	assert.Equal(t, guard.Unauthenticated, guard.Check("", record("Admin"), adminOnly))

	assert.Equal(t, guard.Authorized, guard.Check("tok", record("Agent"), nil), "no role restriction admits any token")
	assert.Equal(t, guard.Authorized, guard.Check("tok", nil, nil), "unparseable profile still passes the auth step")

	assert.Equal(t, guard.Authorized, guard.Check("tok", record("Admin"), adminOnly))
	assert.Equal(t, guard.Forbidden, guard.Check("tok", record("Agent"), adminOnly))
	assert.Equal(t, guard.Forbidden, guard.Check("tok", nil, adminOnly), "token with no profile fails any role check")
}

func newGuardedRequest(t *testing.T) (*shared.Session, *http.Request) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	manager := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)

	req := httptest.NewRequest(http.MethodGet, "/settings", nil)
	sess, err := manager.Load(context.Background(), req)
	require.NoError(t, err)
	return sess, req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func serve(g guard.Guard, mw func(http.Handler) http.Handler, req *http.Request) *httptest.ResponseRecorder {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	res := httptest.NewRecorder()
	mw(next).ServeHTTP(res, req)
	return res
}

func TestRequireAuthRedirectsAnonymous(t *testing.T) {
	store := session.NewStore(nil)
	g := guard.New(store, nil)

	_, req := newGuardedRequest(t)
	res := serve(g, g.RequireAuth(), req)

	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/login", res.Header().Get("Location"))
}

func TestRequireAuthAdmitsToken(t *testing.T) {
	store := session.NewStore(nil)
	g := guard.New(store, nil)

	sess, req := newGuardedRequest(t)
	require.NoError(t, store.Write(sess, "tok", session.User{ID: "9", Role: "Agent"}))

	res := serve(g, g.RequireAuth(), req)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestRequireRolesDeniesWrongRole(t *testing.T) {
	store := session.NewStore(nil)
	g := guard.New(store, nil)

	sess, req := newGuardedRequest(t)
	require.NoError(t, store.Write(sess, "tok", session.User{ID: "9", Role: "Agent"}))

	res := serve(g, g.RequireRoles(rbac.RoleAdmin), req)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/unauthorized", res.Header().Get("Location"))
}

func TestRequireRolesAdmitsAllowedRole(t *testing.T) {
	store := session.NewStore(nil)
	g := guard.New(store, nil)

	sess, req := newGuardedRequest(t)
	require.NoError(t, store.Write(sess, "tok", session.User{ID: "1", Role: "Manager"}))

	res := serve(g, g.RequireRoles(rbac.RoleAdmin, rbac.RoleManager), req)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestRequireRolesTokenWithBrokenProfile(t *testing.T) {
	store := session.NewStore(nil)
	g := guard.New(store, nil)

	sess, req := newGuardedRequest(t)
	sess.Set(session.KeyToken, "tok")
	sess.Set(session.KeyUser, "{broken")

	// Authenticated but roleless: denied, not bounced to login.
	res := serve(g, g.RequireRoles(rbac.RoleAdmin), req)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/unauthorized", res.Header().Get("Location"))
}
