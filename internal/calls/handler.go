// Package calls serves the call evaluation table and its upstream proxies.
// Listing honors the ownership rule: a session without view_all_calls only
// ever sees calls scoped to its own agent id.
package calls

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

// Handler serves call evaluation views and proxies.
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

// MountPage registers the page route (behind RequireAuth).
func (h *Handler) MountPage(r chi.Router) {
	r.Get("/call_evaluations", h.showCalls)
}

// MountAPI registers the JSON proxies.
func (h *Handler) MountAPI(r chi.Router) {
	r.Get("/api/calls", h.apiListCalls)
	r.Get("/api/calls/{id}", h.apiGetCall)
	r.Delete("/api/calls/{id}", h.apiDeleteCall)
}

func (h *Handler) showCalls(w http.ResponseWriter, r *http.Request) {
	rec := h.store.Read(shared.SessionFromContext(r.Context()))
	canDelete := rbac.HasPermission(rec, rbac.PermDeleteCalls)
	data := view.NewPageData(r, h.store, h.csrfManager, "Call Evaluations", canDelete)
	if err := h.templates.Render(w, "pages/call_evaluations.html", data); err != nil {
		h.logger.Error("render call evaluations", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) apiListCalls(w http.ResponseWriter, r *http.Request) {
	rec := h.store.Read(shared.SessionFromContext(r.Context()))

	path := "/api/calls"
	if query := r.URL.Query().Encode(); query != "" {
		path += "?" + query
	}

	switch {
	case rbac.HasPermission(rec, rbac.PermViewAllCalls):
		// Full listing, caller's filters pass through.
	case rbac.HasPermission(rec, rbac.PermViewOwnCalls):
		// Agents are pinned to their own calls regardless of requested filters.
		path = "/api/calls?agent_id=" + rec.User.ID
	default:
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}

	resp, err := h.gateway.Get(r.Context(), path)
	if err != nil {
		gateway.RespondCallError(w, err)
		return
	}
	httpx.Relay(w, resp)
}

func (h *Handler) apiGetCall(w http.ResponseWriter, r *http.Request) {
	rec := h.store.Read(shared.SessionFromContext(r.Context()))
	if !rbac.HasPermission(rec, rbac.PermViewAllCalls) && !rbac.HasPermission(rec, rbac.PermViewOwnCalls) {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	resp, err := h.gateway.Get(r.Context(), "/api/calls/"+chi.URLParam(r, "id"))
	if err != nil {
		gateway.RespondCallError(w, err)
		return
	}
	httpx.Relay(w, resp)
}

func (h *Handler) apiDeleteCall(w http.ResponseWriter, r *http.Request) {
	rec := h.store.Read(shared.SessionFromContext(r.Context()))

	// Deletion is role gated with the ownership escape hatch: an agent may
	// remove a call they own, identified by the owner_id hint the table
	// sends; the upstream API re-checks ownership authoritatively.
	ownerID := r.URL.Query().Get("owner_id")
	if !rbac.HasPermission(rec, rbac.PermDeleteCalls) && !rbac.OwnsResource(rec, ownerID) {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}

	resp, err := h.gateway.Delete(r.Context(), "/api/calls/"+chi.URLParam(r, "id"))
	if err != nil {
		gateway.RespondCallError(w, err)
		return
	}
	httpx.Relay(w, resp)
}
