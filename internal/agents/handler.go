// Package agents serves the agent directory and its upstream proxies.
package agents

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

// Handler serves the agent directory views and proxies.
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

// MountPage registers the agent page (behind the Admin/Manager guard).
func (h *Handler) MountPage(r chi.Router) {
	r.Get("/agent", h.showAgents)
}

// MountAPI registers the JSON proxies.
func (h *Handler) MountAPI(r chi.Router) {
	r.Get("/api/agents", h.apiListAgents)
	r.Get("/api/agents/stats/summary", h.apiAgentStats)
	r.Get("/api/agents/{id}/calls", h.apiAgentCalls)
	r.Post("/api/agents", h.apiCreateAgent)
}

func (h *Handler) showAgents(w http.ResponseWriter, r *http.Request) {
	data := view.NewPageData(r, h.store, h.csrfManager, "Agent", nil)
	if err := h.templates.Render(w, "pages/agent.html", data); err != nil {
		h.logger.Error("render agent directory", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) apiListAgents(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, rbac.PermViewAllAgents, func() (*http.Response, error) {
		return h.gateway.Get(r.Context(), "/api/agents")
	})
}

func (h *Handler) apiAgentStats(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, rbac.PermViewAllAgents, func() (*http.Response, error) {
		return h.gateway.Get(r.Context(), "/api/agents/stats/summary")
	})
}

func (h *Handler) apiAgentCalls(w http.ResponseWriter, r *http.Request) {
	// An agent may fetch their own call history even without the directory
	// permission; ownership is checked against the path id.
	rec := h.store.Read(shared.SessionFromContext(r.Context()))
	id := chi.URLParam(r, "id")
	if !rbac.HasPermission(rec, rbac.PermViewAllAgents) && !rbac.OwnsResource(rec, id) {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	resp, err := h.gateway.Get(r.Context(), "/api/agents/"+id+"/calls")
	if err != nil {
		gateway.RespondCallError(w, err)
		return
	}
	httpx.Relay(w, resp)
}

func (h *Handler) apiCreateAgent(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, rbac.PermManageAgents, func() (*http.Response, error) {
		var payload map[string]any
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			return nil, err
		}
		return h.gateway.PostJSON(r.Context(), "/api/agents", payload)
	})
}

func (h *Handler) proxy(w http.ResponseWriter, r *http.Request, perm rbac.Permission, call func() (*http.Response, error)) {
	rec := h.store.Read(shared.SessionFromContext(r.Context()))
	if !rbac.HasPermission(rec, perm) {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	resp, err := call()
	if err != nil {
		gateway.RespondCallError(w, err)
		return
	}
	httpx.Relay(w, resp)
}
