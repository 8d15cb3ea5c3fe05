// Package gateway wraps every outbound call to the upstream CallEval API.
// It attaches the bearer token from the current session, manages content
// headers, and enforces the single global failure rule: a 401 response clears
// the session and surfaces shared.ErrSessionExpired so callers never read a
// stale body.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/calleval/calleval/internal/session"
	"github.com/calleval/calleval/internal/shared"
)

const contentTypeJSON = "application/json"

// Client is the authenticated request gateway. Safe for concurrent use; one
// attempt per call, no retries.
type Client struct {
	baseURL string
	httpc   *http.Client
	store   *session.Store
	logger  *slog.Logger
}

// New constructs a Client for the given API base URL.
func New(baseURL string, timeout time.Duration, store *session.Store, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		store:   store,
		logger:  logger,
	}
}

// Get issues an authenticated GET.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, "")
}

// Delete issues an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil, "")
}

// PostJSON issues an authenticated POST with a JSON body.
func (c *Client) PostJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(body), contentTypeJSON)
}

// PutJSON issues an authenticated PUT with a JSON body.
func (c *Client) PutJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPut, path, bytes.NewReader(body), contentTypeJSON)
}

// Upload issues an authenticated POST with a pre-encoded body, typically
// multipart. The caller's content type is forwarded untouched so the
// multipart boundary set by the transport is never overridden.
func (c *Client) Upload(ctx context.Context, path, contentType string, body io.Reader) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, path, body, contentType)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	} else if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	// The token is attached when present and omitted otherwise; the server is
	// the authority on whether the endpoint requires auth.
	sess := shared.SessionFromContext(ctx)
	if token := c.store.Token(sess); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		c.store.Clear(sess)
		if c.logger != nil {
			c.logger.Info("upstream rejected token, session cleared",
				slog.String("method", method), slog.String("path", path))
		}
		return nil, shared.ErrSessionExpired
	}

	// Every other status is the caller's to interpret.
	return resp, nil
}
