package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/calleval/calleval/internal/agents"
	"github.com/calleval/calleval/internal/auth"
	"github.com/calleval/calleval/internal/calls"
	"github.com/calleval/calleval/internal/dashboard"
	"github.com/calleval/calleval/internal/guard"
	"github.com/calleval/calleval/internal/observability"
	"github.com/calleval/calleval/internal/rbac"
	"github.com/calleval/calleval/internal/reports"
	"github.com/calleval/calleval/internal/settings"
	"github.com/calleval/calleval/internal/shared"
	"github.com/calleval/calleval/internal/upload"
	"github.com/calleval/calleval/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics
	Guard          guard.Guard

	AuthHandler      *auth.Handler
	DashboardHandler *dashboard.Handler
	CallsHandler     *calls.Handler
	UploadHandler    *upload.Handler
	AgentsHandler    *agents.Handler
	ReportsHandler   *reports.Handler
	SettingsHandler  *settings.Handler
}

// NewRouter constructs the chi.Router with CallEval defaults. Route access
// mirrors the permission table: any authenticated session reaches the
// dashboard and call evaluations, Admin and Manager reach upload, agent and
// reports, and settings is Admin only.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	params.AuthHandler.MountRoutes(r)
	r.Get("/unauthorized", params.DashboardHandler.Unauthorized)

	r.Group(func(r chi.Router) {
		r.Use(params.Guard.RequireAuth())

		params.DashboardHandler.MountPage(r)
		params.CallsHandler.MountPage(r)

		params.DashboardHandler.MountAPI(r)
		params.CallsHandler.MountAPI(r)
		params.UploadHandler.MountAPI(r)
		params.AgentsHandler.MountAPI(r)
		params.ReportsHandler.MountAPI(r)
		params.SettingsHandler.MountAPI(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(params.Guard.RequireRoles(rbac.RoleAdmin, rbac.RoleManager))

		params.UploadHandler.MountPage(r)
		params.AgentsHandler.MountPage(r)
		params.ReportsHandler.MountPage(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(params.Guard.RequireRoles(rbac.RoleAdmin))

		params.SettingsHandler.MountPage(r)
	})

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers so
// browsers keep assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
