package auth

import "github.com/calleval/calleval/internal/session"

// tokenResponse is the upstream login reply.
type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        session.User `json:"user"`
}

// apiError is the upstream failure body.
type apiError struct {
	Detail string `json:"detail"`
}
