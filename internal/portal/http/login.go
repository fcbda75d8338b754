package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/portalfiscal/internal/portal/session"
	"github.com/aussiebroadwan/portalfiscal/internal/portal/view"
	"github.com/aussiebroadwan/portalfiscal/pkg/fiscalsdk"
	"github.com/aussiebroadwan/portalfiscal/pkg/httpx"
	"github.com/aussiebroadwan/portalfiscal/pkg/slogx"
)

const (
	msgBadCredentials  = "Las credenciales son incorrectas."
	msgMissingFields   = "Ingresa tu usuario y contraseña."
	msgLoginSaveFailed = "No se pudo iniciar la sesión. Intenta de nuevo."
)

// LoginHandler exchanges credentials for a bearer token and starts a fresh
// session.
type LoginHandler struct {
	Sessions     *session.Service
	API          *fiscalsdk.SDKClient
	Views        *view.Renderer
	CookieSecure bool
}

func (h *LoginHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	httpx.NoCache(w)
	render(w, r, h.Views, http.StatusOK, view.PageLogin, view.LoginPage{})
}

func (h *LoginHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	httpx.NoCache(w)

	if err := r.ParseForm(); err != nil {
		h.fail(w, r, "", msgMissingFields)
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if strings.TrimSpace(username) == "" || password == "" {
		h.fail(w, r, username, msgMissingFields)
		return
	}

	token, err := h.API.Login(ctx, username, password)
	if err != nil {
		var apiErr *fiscalsdk.APIError
		if errors.As(err, &apiErr) {
			log.Info("login rejected", "status", apiErr.StatusCode)
			h.fail(w, r, username, msgBadCredentials)
			return
		}
		log.Warn("login request failed", "error", err)
		h.fail(w, r, username, err.Error())
		return
	}

	// A new login never reuses the previous session id.
	if old, err := r.Cookie(session.CookieName); err == nil {
		if err := h.Sessions.Destroy(ctx, old.Value); err != nil {
			log.Warn("failed to drop previous session", "error", err)
		}
	}

	raw, sess, err := h.Sessions.Begin(ctx)
	if err == nil {
		err = h.Sessions.SetToken(ctx, sess, token)
	}
	if err != nil {
		log.Error("failed to start session", "error", err)
		h.fail(w, r, username, msgLoginSaveFailed)
		return
	}

	setSessionCookie(w, raw, h.CookieSecure)
	log.Info("admin logged in", "session", sess.Ref)
	httpx.SeeOther(w, r, "/admin")
}

func (h *LoginHandler) fail(w http.ResponseWriter, r *http.Request, username, msg string) {
	render(w, r, h.Views, http.StatusOK, view.PageLogin, view.LoginPage{
		Username: username,
		Error:    msg,
	})
}

// LogoutHandler drops the session and returns to the login screen. GET is
// the target of the session-expired redirect; POST is the logout button.
type LogoutHandler struct {
	Sessions     *session.Service
	CookieSecure bool
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(session.CookieName); err == nil {
		if err := h.Sessions.Destroy(r.Context(), c.Value); err != nil {
			slogx.FromContext(r.Context()).Error("failed to destroy session", "error", err)
		}
	}
	clearSessionCookie(w, h.CookieSecure)
	httpx.NoCache(w)
	httpx.SeeOther(w, r, "/login")
}
