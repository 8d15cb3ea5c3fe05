// Package upload forwards call recordings to the upstream API. The multipart
// body streams through untouched so the boundary the browser chose survives,
// and the request context carries the browser's cancellation straight to the
// upstream transport.
package upload

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

// Handler serves the upload page and the multipart passthrough.
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

// MountPage registers the upload page (behind the Admin/Manager guard).
func (h *Handler) MountPage(r chi.Router) {
	r.Get("/upload", h.showUpload)
}

// MountAPI registers the upload passthrough.
func (h *Handler) MountAPI(r chi.Router) {
	r.Post("/api/upload", h.apiUpload)
}

func (h *Handler) showUpload(w http.ResponseWriter, r *http.Request) {
	data := view.NewPageData(r, h.store, h.csrfManager, "Upload", nil)
	if err := h.templates.Render(w, "pages/upload.html", data); err != nil {
		h.logger.Error("render upload", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) apiUpload(w http.ResponseWriter, r *http.Request) {
	rec := h.store.Read(shared.SessionFromContext(r.Context()))
	if !rbac.HasPermission(rec, rbac.PermUploadCalls) {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}

	resp, err := h.gateway.Upload(r.Context(), "/api/upload", r.Header.Get("Content-Type"), r.Body)
	if err != nil {
		if r.Context().Err() != nil {
			// The user cancelled; nothing useful to answer.
			return
		}
		gateway.RespondCallError(w, err)
		return
	}
	httpx.Relay(w, resp)
}
