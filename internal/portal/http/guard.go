package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/portalfiscal/internal/portal/domain"
	"github.com/aussiebroadwan/portalfiscal/internal/portal/session"
	"github.com/aussiebroadwan/portalfiscal/pkg/httpx"
	"github.com/aussiebroadwan/portalfiscal/pkg/jwtx"
	"github.com/aussiebroadwan/portalfiscal/pkg/slogx"
)

type ctxKey int

const (
	sessionKey ctxKey = iota
	tokenKey
)

func withSession(ctx context.Context, sess *domain.Session, token string) context.Context {
	ctx = context.WithValue(ctx, sessionKey, sess)
	return context.WithValue(ctx, tokenKey, token)
}

// SessionFromContext returns the session attached by RequireSession.
func SessionFromContext(ctx context.Context) *domain.Session {
	sess, _ := ctx.Value(sessionKey).(*domain.Session)
	return sess
}

// TokenFromContext returns the bearer token attached by RequireSession.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// RequireSession sends visitors without a logged-in session to /login.
// It only gates the screens; the API decides what the token may do.
func RequireSession(sessions *session.Service, checkExpiry bool, now func() time.Time) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			cookie, err := r.Cookie(session.CookieName)
			if err != nil {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			sess, err := sessions.Load(ctx, cookie.Value)
			if err != nil {
				if !errors.Is(err, session.ErrNotFound) {
					log.Error("failed to load session", "error", err)
				}
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			token, err := sessions.Token(sess)
			if err != nil {
				if !errors.Is(err, session.ErrNoToken) {
					log.Warn("unreadable session token", "session", sess.Ref, "error", err)
				}
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			if checkExpiry && jwtx.Expired(token, now()) {
				log.Info("bearer token expired", "session", sess.Ref)
				if err := sessions.Clear(ctx, sess); err != nil {
					log.Error("failed to clear expired session", "error", err)
				}
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			if err := sessions.Touch(ctx, sess); err != nil {
				log.Warn("failed to touch session", "session", sess.Ref, "error", err)
			}

			ctx = slogx.With(ctx, "session", sess.Ref)
			if claims, ok := jwtx.Peek(token); ok && claims.Principal() != "" {
				ctx = slogx.With(ctx, "user", claims.Principal())
			}
			next.ServeHTTP(w, r.WithContext(withSession(ctx, sess, token)))
		})
	}
}

// RequireCSRF rejects form posts whose csrf field does not match the
// session. It must run after RequireSession.
func RequireCSRF(sessions *session.Service) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromContext(r.Context())
			if err := r.ParseForm(); err != nil || !sessions.ValidCSRF(sess, r.PostForm.Get("csrf")) {
				slogx.FromContext(r.Context()).Warn("csrf token mismatch", "path", r.URL.Path)
				httpx.WriteText(w, http.StatusForbidden, "Solicitud no válida. Recarga la página e intenta de nuevo.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
