package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/calleval/calleval/internal/gateway"
	"github.com/calleval/calleval/internal/session"
	"github.com/calleval/calleval/internal/shared"
)

// Service drives the login and logout flows against the upstream API.
type Service struct {
	gateway *gateway.Client
	store   *session.Store
	logger  *slog.Logger
}

// NewService constructs a Service.
func NewService(gw *gateway.Client, store *session.Store, logger *slog.Logger) *Service {
	return &Service{gateway: gw, store: store, logger: logger}
}

// Login exchanges credentials for a bearer token and writes the session.
// Credential verification is entirely upstream; any non-2xx reply maps to
// ErrInvalidCredentials without distinguishing why.
func (s *Service) Login(ctx context.Context, username, password string) (session.User, error) {
	resp, err := s.gateway.PostJSON(ctx, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		// The gateway folds every upstream 401 into ErrSessionExpired. During
		// login there is no session to expire; a 401 here means the
		// credentials were wrong.
		if errors.Is(err, shared.ErrSessionExpired) {
			return session.User{}, shared.ErrInvalidCredentials
		}
		return session.User{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var body apiError
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if s.logger != nil {
			s.logger.Info("login rejected",
				slog.Int("status", resp.StatusCode), slog.String("detail", body.Detail))
		}
		return session.User{}, shared.ErrInvalidCredentials
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return session.User{}, err
	}
	if token.AccessToken == "" {
		return session.User{}, shared.ErrInvalidCredentials
	}

	sess := shared.SessionFromContext(ctx)
	if err := s.store.Write(sess, token.AccessToken, token.User); err != nil {
		return session.User{}, err
	}
	return token.User, nil
}

// Logout clears the session. Safe to call for anonymous sessions.
func (s *Service) Logout(ctx context.Context) {
	s.store.Clear(shared.SessionFromContext(ctx))
}
