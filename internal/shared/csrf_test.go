package shared_test

import (
	"context"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/calleval/calleval/internal/shared"
)

func TestRequestTokenPrefersHeader(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/calls", strings.NewReader("csrf_token=from-form"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(shared.CSRFHeader, "from-header")

	if got := shared.RequestToken(req); got != "from-header" {
		t.Fatalf("expected header token, got %q", got)
	}
}

func TestRequestTokenFallsBackToFormField(t *testing.T) {
	form := url.Values{shared.CSRFFormField: {"from-form"}}
	req := httptest.NewRequest("POST", "/api/calls", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if got := shared.RequestToken(req); got != "from-form" {
		t.Fatalf("expected form token, got %q", got)
	}
}

func TestRequestTokenMultipartReadsQueryNotBody(t *testing.T) {
	body := strings.NewReader("--xyz\r\nContent-Disposition: form-data; name=\"file\"\r\n\r\npayload\r\n--xyz--\r\n")
	req := httptest.NewRequest("POST", "/api/upload?csrf_token=from-query", body)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")

	if got := shared.RequestToken(req); got != "from-query" {
		t.Fatalf("expected query token, got %q", got)
	}
	// The body must remain untouched for the upstream forward.
	buf := make([]byte, 2)
	if n, _ := req.Body.Read(buf); n != 2 || string(buf) != "--" {
		t.Fatalf("body was consumed while extracting the token")
	}
}

func TestEnsureAndVerifyToken(t *testing.T) {
	manager := shared.NewCSRFManager("secret")
	sess := &shared.Session{ID: "sess-1"}

	token, err := manager.EnsureToken(context.Background(), sess)
	if err != nil {
		t.Fatalf("ensure token: %v", err)
	}
	if token == "" {
		t.Fatal("expected a non-empty token")
	}

	again, err := manager.EnsureToken(context.Background(), sess)
	if err != nil {
		t.Fatalf("ensure token twice: %v", err)
	}
	if again != token {
		t.Fatalf("token changed between calls: %q vs %q", token, again)
	}

	if err := manager.VerifyToken(context.Background(), sess, token); err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if err := manager.VerifyToken(context.Background(), sess, "forged"); err != shared.ErrCSRFTokenMismatch {
		t.Fatalf("expected mismatch error, got %v", err)
	}
	if err := manager.VerifyToken(context.Background(), sess, ""); err != shared.ErrCSRFTokenMissing {
		t.Fatalf("expected missing error, got %v", err)
	}
}
