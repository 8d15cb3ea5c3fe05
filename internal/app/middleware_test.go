package app_test

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/calleval/calleval/internal/app"
	"github.com/calleval/calleval/internal/shared"
)

type middlewareFixture struct {
	router  http.Handler
	cookie  *http.Cookie
	token   string
	sawBody *int64
}

// newMiddlewareFixture builds the full middleware chain around a POST
// /api/upload handler that counts how many body bytes reach it, and seeds a
// browser session with an issued CSRF token.
func newMiddlewareFixture(t *testing.T) *middlewareFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessionManager := shared.NewSessionManager(client, "calleval_session", "session-secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrf-secret")

	seedReq := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sessionManager.Load(seedReq.Context(), seedReq)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	token, err := csrfManager.EnsureToken(seedReq.Context(), sess)
	if err != nil {
		t.Fatalf("ensure token: %v", err)
	}
	seedRec := httptest.NewRecorder()
	if err := sessionManager.Commit(seedReq.Context(), seedRec, seedReq, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}
	cookies := seedRec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie after commit")
	}

	var sawBody int64
	router := chi.NewRouter()
	for _, mw := range app.MiddlewareStack(app.MiddlewareConfig{
		Logger:         logger,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
	}) {
		router.Use(mw)
	}
	router.Post("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		n, err := io.Copy(io.Discard, r.Body)
		if err != nil {
			t.Fatalf("read forwarded body: %v", err)
		}
		sawBody = n
		w.WriteHeader(http.StatusOK)
	})
	router.Post("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return &middlewareFixture{
		router:  router,
		cookie:  cookies[0],
		token:   token,
		sawBody: &sawBody,
	}
}

func multipartBody(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "call.wav")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte("a"), 4096)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestCSRFMiddlewareKeepsMultipartBodyIntact(t *testing.T) {
	fx := newMiddlewareFixture(t)

	body, contentType := multipartBody(t)
	sent := int64(body.Len())

	req := httptest.NewRequest(http.MethodPost, "/api/upload?csrf_token="+url.QueryEscape(fx.token), body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(fx.cookie)

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if *fx.sawBody != sent {
		t.Fatalf("handler saw %d of %d body bytes", *fx.sawBody, sent)
	}
}

func TestCSRFMiddlewareRejectsMultipartWithoutQueryToken(t *testing.T) {
	fx := newMiddlewareFixture(t)

	// Token only inside the multipart body: it must not be read from there.
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField(shared.CSRFFormField, fx.token); err != nil {
		t.Fatalf("write token field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.AddCookie(fx.cookie)

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if *fx.sawBody != 0 {
		t.Fatalf("handler ran despite missing token")
	}
}

func TestCSRFMiddlewareAcceptsFormFieldToken(t *testing.T) {
	fx := newMiddlewareFixture(t)

	form := url.Values{shared.CSRFFormField: {fx.token}, "theme": {"dark"}}
	req := httptest.NewRequest(http.MethodPost, "/api/settings", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(fx.cookie)

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
