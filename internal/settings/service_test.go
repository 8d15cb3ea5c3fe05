package settings_test

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

	"github.com/calleval/calleval/internal/gateway"
	"github.com/calleval/calleval/internal/session"
	"github.com/calleval/calleval/internal/settings"
	"github.com/calleval/calleval/internal/shared"
	_ "github.com/calleval/calleval/testing"
)

func newServiceCtx(t *testing.T, upstream *httptest.Server) (*settings.Service, *session.Store, context.Context, *shared.Session) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	manager := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := manager.Load(context.Background(), req)
	require.NoError(t, err)

	store := session.NewStore(nil)
	require.NoError(t, store.Write(sess, "tok", session.User{ID: "2", Role: "Admin"}))

	gw := gateway.New(upstream.URL, time.Second, store, nil)
	svc := settings.NewService(gw, store, nil)
	return svc, store, shared.ContextWithSession(context.Background(), sess), sess
}

func settingsUpstream(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSyncMirrorsTheme(t *testing.T) {
	svc, store, ctx, sess := newServiceCtx(t, settingsUpstream(t, `{"theme":"dark","language":"es"}`, http.StatusOK))

	st, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dark", st.Theme)
	assert.Equal(t, "es", st.Language)
	assert.Equal(t, "dark", store.Theme(sess))
}

func TestSyncClampsUnknownTheme(t *testing.T) {
	svc, store, ctx, sess := newServiceCtx(t, settingsUpstream(t, `{"theme":"solarized","language":"en"}`, http.StatusOK))

	st, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.ThemeLight, st.Theme)
	assert.Equal(t, settings.ThemeLight, store.Theme(sess))
}

func TestSyncFailureFallsBackToStoredTheme(t *testing.T) {
	svc, store, ctx, sess := newServiceCtx(t, settingsUpstream(t, `oops`, http.StatusInternalServerError))
	store.SetTheme(sess, "dark")

	st, err := svc.Sync(ctx)
	require.Error(t, err)
	assert.Equal(t, "dark", st.Theme, "stored theme keeps the page rendering")
}

func TestSyncFailureWithoutStoredThemeDefaultsLight(t *testing.T) {
	svc, _, ctx, _ := newServiceCtx(t, settingsUpstream(t, ``, http.StatusBadGateway))

	st, err := svc.Sync(ctx)
	require.Error(t, err)
	assert.Equal(t, settings.ThemeLight, st.Theme)
}

func TestUpdatePushesAndMirrors(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	svc, store, ctx, sess := newServiceCtx(t, srv)

	st, err := svc.Update(ctx, settings.Settings{Theme: "dark", Language: "fil"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "dark", st.Theme)
	assert.Equal(t, "fil", st.Language)
	assert.Equal(t, "dark", store.Theme(sess))
}

func TestUpdateUpstreamFailure(t *testing.T) {
	svc, store, ctx, sess := newServiceCtx(t, settingsUpstream(t, ``, http.StatusUnprocessableEntity))
	store.SetTheme(sess, "light")

	_, err := svc.Update(ctx, settings.Settings{Theme: "dark"})
	require.Error(t, err)
	assert.Equal(t, "light", store.Theme(sess), "failed update must not flip the mirror")
}

func TestCanonicalLanguage(t *testing.T) {
	assert.Equal(t, "en", settings.CanonicalLanguage(""))
	assert.Equal(t, "en", settings.CanonicalLanguage("en-US"))
	assert.Equal(t, "es", settings.CanonicalLanguage("es-MX"))
	assert.Equal(t, "fil", settings.CanonicalLanguage("fil"))
	assert.Equal(t, "en", settings.CanonicalLanguage("not a tag"))
	assert.Equal(t, "en", settings.CanonicalLanguage("de"), "unsupported languages fall back to English")
}

func TestLanguagesOrder(t *testing.T) {
	assert.Equal(t, []string{"en", "es", "fr", "fil"}, settings.Languages())
}
