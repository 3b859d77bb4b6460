package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/marmos91/ipagw/internal/gateway/api/middleware"
	"github.com/marmos91/ipagw/internal/logger"
	"github.com/marmos91/ipagw/pkg/directory"
	"github.com/marmos91/ipagw/pkg/session"
)

// Authenticator opens a directory connection for an operator.
type Authenticator interface {
	Open(ctx context.Context, username, password string) (directory.Directory, error)
}

// SessionStore is the part of the session store the auth endpoints need.
type SessionStore interface {
	Create(identity string, conn directory.Directory) (*session.Session, error)
	Destroy(ctx context.Context, token string) error
	TTL() time.Duration
}

// AuthHandler handles login and logout.
type AuthHandler struct {
	auth   Authenticator
	store  SessionStore
	cookie middleware.SessionCookie
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth Authenticator, store SessionStore, cookie middleware.SessionCookie) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		store:  store,
		cookie: cookie,
	}
}

// LoginResponse is the response body for POST /login.
type LoginResponse struct {
	Status string `json:"status"`
	User   string `json:"user"`
}

// Login handles POST /login.
// Authenticates against the directory with the form credentials and sets
// the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequest(w, "Invalid form body")
		return
	}

	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		BadRequest(w, "Username and password are required")
		return
	}

	conn, err := h.auth.Open(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, directory.ErrAuthFailed) {
			Unauthorized(w, "Invalid username or password")
			return
		}
		writeError(w, r, "Authentication failed", err)
		return
	}

	sess, err := h.store.Create(username, conn)
	if err != nil {
		_ = conn.Close(context.WithoutCancel(r.Context()))
		InternalServerError(w, "Failed to create session")
		return
	}

	h.cookie.Set(w, sess.Token, h.store.TTL())
	logger.InfoCtx(r.Context(), "Operator logged in", logger.KeyOperator, username)
	WriteJSONOK(w, LoginResponse{Status: "ok", User: username})
}

// Logout handles POST /logout.
// Ends the session if there is one and clears the cookie. Always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := h.cookie.Token(r); token != "" {
		if err := h.store.Destroy(r.Context(), token); err != nil {
			logger.WarnCtx(r.Context(), "Directory logout failed", logger.Err(err))
		}
	}

	h.cookie.Clear(w)
	WriteJSONOK(w, map[string]string{"status": "logged out"})
}
