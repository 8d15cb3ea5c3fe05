// Package dashboard renders the landing view and the access-denied page.
package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/calleval/calleval/internal/gateway"
	"github.com/calleval/calleval/internal/platform/httpx"
	"github.com/calleval/calleval/internal/session"
	"github.com/calleval/calleval/internal/shared"
	"github.com/calleval/calleval/internal/view"
)

// Handler serves the dashboard page and its summary proxy.
type Handler struct {
	logger      *slog.Logger
	gateway     *gateway.Client
	store       *session.Store
	templates   *view.Engine
	csrfManager *shared.CSRFManager
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, gw *gateway.Client, store *session.Store, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, gateway: gw, store: store, templates: templates, csrfManager: csrf}
}

// MountPage registers the dashboard page (behind RequireAuth).
func (h *Handler) MountPage(r chi.Router) {
	r.Get("/", h.showDashboard)
}

// MountAPI registers the dashboard JSON proxies.
func (h *Handler) MountAPI(r chi.Router) {
	r.Get("/api/dashboard/summary", h.apiSummary)
}

// Unauthorized renders the access-denied page. Reached by redirect from the
// route guard; deliberately a visible explanation, not a silent bounce to
// the dashboard.
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	data := view.NewPageData(r, h.store, h.csrfManager, "Access Denied", nil)
	w.WriteHeader(http.StatusForbidden)
	if err := h.templates.Render(w, "pages/unauthorized.html", data); err != nil {
		h.logger.Error("render unauthorized", slog.Any("error", err))
	}
}

func (h *Handler) showDashboard(w http.ResponseWriter, r *http.Request) {
	data := view.NewPageData(r, h.store, h.csrfManager, "Dashboard", nil)
	if err := h.templates.Render(w, "pages/dashboard.html", data); err != nil {
		h.logger.Error("render dashboard", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) apiSummary(w http.ResponseWriter, r *http.Request) {
	resp, err := h.gateway.Get(r.Context(), "/api/agents/stats/summary")
	if err != nil {
		gateway.RespondCallError(w, err)
		return
	}
	httpx.Relay(w, resp)
}
