package http

import (
	"net/http"

	"github.com/aussiebroadwan/portalfiscal/internal/portal/session"
	"github.com/aussiebroadwan/portalfiscal/internal/portal/view"
	"github.com/aussiebroadwan/portalfiscal/pkg/slogx"
)

// render writes a page. Rendering is buffered, so on failure nothing has
// been sent yet and a bare 500 can still go out.
func render(w http.ResponseWriter, r *http.Request, views *view.Renderer, status int, page string, data any) {
	if err := views.Render(w, status, page, data); err != nil {
		slogx.FromContext(r.Context()).Error("failed to render page", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func renderMessage(w http.ResponseWriter, r *http.Request, views *view.Renderer, status int, msg view.MessagePage) {
	render(w, r, views, status, view.PageMessage, msg)
}

// setSessionCookie issues a browser-session cookie; idle expiry is enforced
// server side.
func setSessionCookie(w http.ResponseWriter, value string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
