// Package settings syncs theme and language preferences with the upstream
// API and exposes the admin settings surface (user access control and audit
// logs are proxied, never stored locally).
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"github.com/calleval/calleval/internal/gateway"
	"github.com/calleval/calleval/internal/session"
	"github.com/calleval/calleval/internal/shared"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Settings mirrors the upstream /api/settings document.
type Settings struct {
	Theme    string `json:"theme" validate:"omitempty,oneof=light dark"`
	Language string `json:"language"`
}

// supported is the fixed client-side language list.
var supported = []language.Tag{
	language.English,
	language.Spanish,
	language.French,
	language.Filipino,
}

var matcher = language.NewMatcher(supported)

// Languages returns the selectable language codes in display order.
func Languages() []string {
	out := make([]string, len(supported))
	for i, tag := range supported {
		out[i] = tag.String()
	}
	return out
}

// Service fetches and updates settings through the gateway.
type Service struct {
	gateway *gateway.Client
	store   *session.Store
	logger  *slog.Logger
	group   singleflight.Group
}

// NewService constructs a Service.
func NewService(gw *gateway.Client, store *session.Store, logger *slog.Logger) *Service {
	return &Service{gateway: gw, store: store, logger: logger}
}

// Sync fetches the account settings and mirrors the theme into the session
// for pre-auth rendering. Concurrent syncs for the same browser session share
// one upstream call. On failure the stored theme (or light) is returned with
// the error so callers can keep rendering.
func (s *Service) Sync(ctx context.Context) (Settings, error) {
	sess := shared.SessionFromContext(ctx)
	key := "anonymous"
	if sess != nil {
		key = sess.ID
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		resp, err := s.gateway.Get(ctx, "/api/settings")
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("settings: upstream status %d", resp.StatusCode)
		}
		var st Settings
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			return nil, err
		}
		return normalize(st), nil
	})
	if err != nil {
		fallback := s.store.Theme(sess)
		if fallback == "" {
			fallback = ThemeLight
		}
		return Settings{Theme: fallback}, err
	}

	st := v.(Settings)
	s.store.SetTheme(sess, st.Theme)
	return st, nil
}

// Update pushes new settings upstream and mirrors the theme locally.
func (s *Service) Update(ctx context.Context, st Settings) (Settings, error) {
	st = normalize(st)
	resp, err := s.gateway.PutJSON(ctx, "/api/settings", st)
	if err != nil {
		return Settings{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Settings{}, fmt.Errorf("settings: upstream status %d", resp.StatusCode)
	}

	s.store.SetTheme(shared.SessionFromContext(ctx), st.Theme)
	if s.logger != nil {
		s.logger.Info("settings updated", slog.String("theme", st.Theme), slog.String("language", st.Language))
	}
	return st, nil
}

// normalize clamps the theme to the known pair and canonicalizes the language
// against the supported list.
func normalize(st Settings) Settings {
	if st.Theme != ThemeDark {
		st.Theme = ThemeLight
	}
	st.Language = CanonicalLanguage(st.Language)
	return st
}

// CanonicalLanguage maps free-text input onto the supported list, defaulting
// to English.
func CanonicalLanguage(raw string) string {
	if raw == "" {
		return language.English.String()
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return language.English.String()
	}
	_, index, _ := matcher.Match(tag)
	return supported[index].String()
}
