// Package reports serves the reporting view and the export passthrough.
package reports

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/calleval/calleval/internal/gateway"
	"github.com/calleval/calleval/internal/platform/httpx"
	"github.com/calleval/calleval/internal/rbac"
	"github.com/calleval/calleval/internal/session"
	"github.com/calleval/calleval/internal/shared"
	"github.com/calleval/calleval/internal/view"
)

// Handler serves the reports page and export proxy.
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

// MountPage registers the reports page (behind the Admin/Manager guard).
func (h *Handler) MountPage(r chi.Router) {
	r.Get("/reports", h.showReports)
}

// MountAPI registers the JSON proxies.
func (h *Handler) MountAPI(r chi.Router) {
	r.Get("/api/reports", h.apiReports)
	r.Get("/api/reports/export", h.apiExport)
}

func (h *Handler) showReports(w http.ResponseWriter, r *http.Request) {
	data := view.NewPageData(r, h.store, h.csrfManager, "Reports", nil)
	if err := h.templates.Render(w, "pages/reports.html", data); err != nil {
		h.logger.Error("render reports", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) apiReports(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, rbac.PermExportReports, "/api/reports", r.URL.RawQuery)
}

// apiExport relays the CSV export; Content-Disposition passes through so the
// browser download keeps the upstream filename.
func (h *Handler) apiExport(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, rbac.PermExportReports, "/api/reports/export", r.URL.RawQuery)
}

func (h *Handler) proxy(w http.ResponseWriter, r *http.Request, perm rbac.Permission, path, query string) {
	rec := h.store.Read(shared.SessionFromContext(r.Context()))
	if !rbac.HasPermission(rec, perm) {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	if query != "" {
		path += "?" + query
	}
	resp, err := h.gateway.Get(r.Context(), path)
	if err != nil {
		gateway.RespondCallError(w, err)
		return
	}
	httpx.Relay(w, resp)
}
