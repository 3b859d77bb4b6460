// Package middleware provides HTTP middleware for the gateway API.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/marmos91/ipagw/internal/logger"
	"github.com/marmos91/ipagw/pkg/session"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionGetter looks up a live session by token.
type SessionGetter interface {
	Get(ctx context.Context, token string) (*session.Session, error)
}

// SessionCookie describes the cookie carrying the session token.
type SessionCookie struct {
	Name   string
	Secure bool
}

// Token returns the session token sent with r, or "".
func (c SessionCookie) Token(r *http.Request) string {
	cookie, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Set writes the session cookie. It lives exactly as long as the session.
func (c SessionCookie) Set(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear tells the client to drop the session cookie.
func (c SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireSession rejects requests without a live session with 401 and
// stores the session in the request context otherwise.
func RequireSession(store SessionGetter, cookie SessionCookie) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cookie.Token(r)
			if token == "" {
				writeUnauthorized(w, "Not authenticated")
				return
			}

			sess, err := store.Get(r.Context(), token)
			if err != nil {
				if errors.Is(err, session.ErrExpired) {
					cookie.Clear(w)
					writeUnauthorized(w, "Session expired, please log in again")
					return
				}
				writeUnauthorized(w, "Not authenticated")
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			if lc := logger.FromContext(ctx); lc != nil {
				ctx = logger.WithContext(ctx, lc.WithOperator(sess.Identity))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the session stored by RequireSession, or nil.
func SessionFromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionContextKey).(*session.Session)
	return sess
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// writeUnauthorized writes the same problem+json body the handlers use.
func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "about:blank",
		"title":  "Unauthorized",
		"status": http.StatusUnauthorized,
		"detail": detail,
	})
}
