package handlers

import (
	"net/http"

	"github.com/forsetihq/flowd/internal/config"
	"github.com/forsetihq/flowd/internal/http/middleware"
	"github.com/forsetihq/flowd/internal/http/response"
	"github.com/forsetihq/flowd/internal/service"
)

// PagesHandler implements the navigation skeleton. The UI itself is served
// elsewhere; these routes only decide where a browser belongs given its
// session state and answer 204 when it is already in the right place.
type PagesHandler struct {
	cfg       *config.Config
	bootstrap *service.BootstrapService
	auth      *service.AuthService
}

func NewPagesHandler(cfg *config.Config, bootstrap *service.BootstrapService, auth *service.AuthService) *PagesHandler {
	return &PagesHandler{cfg: cfg, bootstrap: bootstrap, auth: auth}
}

func (h *PagesHandler) Login(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.SessionFromContext(r.Context()); sess != nil {
		if sess.NeedsUpdate {
			http.Redirect(w, r, "/account", http.StatusFound)
			return
		}
		http.Redirect(w, r, "/app", http.StatusFound)
		return
	}
	count, err := h.bootstrap.AccountCount(r.Context())
	if err != nil {
		response.InternalError(w, r, err)
		return
	}
	if count == 0 && !h.cfg.DemoMode {
		http.Redirect(w, r, "/setup", http.StatusFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PagesHandler) Setup(w http.ResponseWriter, r *http.Request) {
	count, err := h.bootstrap.AccountCount(r.Context())
	if err != nil {
		response.InternalError(w, r, err)
		return
	}
	if h.cfg.DemoMode || count > 0 {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PagesHandler) App(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	if sess.NeedsUpdate {
		http.Redirect(w, r, "/account", http.StatusFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PagesHandler) Account(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionFromContext(r.Context()) == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PagesHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.SessionFromContext(r.Context()); sess != nil {
		if err := h.auth.Logout(r.Context(), sess.ID); err != nil {
			response.InternalError(w, r, err)
			return
		}
	}
	clearCookie(w, middleware.SessionCookie)
	http.Redirect(w, r, "/login", http.StatusFound)
}
