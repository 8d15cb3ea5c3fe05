package settings

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

// Handler serves the settings page and the admin-only proxy endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	gateway     *gateway.Client
	store       *session.Store
	templates   *view.Engine
	csrfManager *shared.CSRFManager
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, gw *gateway.Client, store *session.Store, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		gateway:     gw,
		store:       store,
		templates:   templates,
		csrfManager: csrf,
	}
}

// MountPage registers the settings page routes (already behind the Admin
// route guard).
func (h *Handler) MountPage(r chi.Router) {
	r.Get("/settings", h.showSettings)
	r.Post("/settings", h.handleUpdate)
}

// MountAPI registers the JSON endpoints. Permission checks are explicit here:
// these are fetch targets, so denial is a problem response, not a redirect.
func (h *Handler) MountAPI(r chi.Router) {
	r.Get("/api/settings", h.apiGetSettings)
	r.Put("/api/settings", h.apiPutSettings)
	r.Get("/api/users", h.apiListUsers)
	r.Put("/api/users/{id}", h.apiUpdateUser)
	r.Delete("/api/users/{id}", h.apiDeleteUser)
	r.Get("/api/audit-logs", h.apiAuditLogs)
}

type settingsPageData struct {
	Theme     string
	Language  string
	Languages []string
}

func (h *Handler) showSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Sync(r.Context())
	if err != nil {
		if gateway.RedirectOnExpiry(w, r, err) {
			return
		}
		h.logger.Warn("settings sync", slog.Any("error", err))
	}

	h.renderSettings(w, r, st)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	rec := h.store.Read(sess)
	if !rbac.HasPermission(rec, rbac.PermManageSettings) {
		http.Redirect(w, r, "/unauthorized", http.StatusSeeOther)
		return
	}

	st, err := h.service.Update(r.Context(), Settings{
		Theme:    r.PostFormValue("theme"),
		Language: r.PostFormValue("language"),
	})
	if err != nil {
		if gateway.RedirectOnExpiry(w, r, err) {
			return
		}
		h.logger.Error("settings update", slog.Any("error", err))
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Settings could not be saved"})
		}
		h.renderSettings(w, r, st)
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Settings saved"})
	}
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

func (h *Handler) renderSettings(w http.ResponseWriter, r *http.Request, st Settings) {
	data := view.NewPageData(r, h.store, h.csrfManager, "Settings", settingsPageData{
		Theme:     st.Theme,
		Language:  st.Language,
		Languages: Languages(),
	})
	if err := h.templates.Render(w, "pages/settings.html", data); err != nil {
		h.logger.Error("render settings", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) apiGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Sync(r.Context())
	if err != nil {
		gateway.RespondCallError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

func (h *Handler) apiPutSettings(w http.ResponseWriter, r *http.Request) {
	rec := h.store.Read(shared.SessionFromContext(r.Context()))
	if !rbac.HasPermission(rec, rbac.PermManageSettings) {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	var st Settings
	if err := httpx.DecodeJSON(r, &st); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	updated, err := h.service.Update(r.Context(), st)
	if err != nil {
		gateway.RespondCallError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) apiListUsers(w http.ResponseWriter, r *http.Request) {
	h.proxyAdmin(w, r, rbac.PermViewUsers, func() (*http.Response, error) {
		return h.gateway.Get(r.Context(), "/api/auth/users")
	})
}

func (h *Handler) apiUpdateUser(w http.ResponseWriter, r *http.Request) {
	h.proxyAdmin(w, r, rbac.PermManageUsers, func() (*http.Response, error) {
		var payload map[string]any
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			return nil, err
		}
		return h.gateway.PutJSON(r.Context(), "/api/auth/users/"+chi.URLParam(r, "id"), payload)
	})
}

func (h *Handler) apiDeleteUser(w http.ResponseWriter, r *http.Request) {
	h.proxyAdmin(w, r, rbac.PermManageUsers, func() (*http.Response, error) {
		return h.gateway.Delete(r.Context(), "/api/auth/users/"+chi.URLParam(r, "id"))
	})
}

func (h *Handler) apiAuditLogs(w http.ResponseWriter, r *http.Request) {
	h.proxyAdmin(w, r, rbac.PermViewAuditLogs, func() (*http.Response, error) {
		return h.gateway.Get(r.Context(), "/api/audit-logs")
	})
}

func (h *Handler) proxyAdmin(w http.ResponseWriter, r *http.Request, perm rbac.Permission, call func() (*http.Response, error)) {
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
