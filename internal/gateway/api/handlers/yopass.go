package handlers

import (
	"context"
	"net/http"
)

// LinkPublisher turns a secret into a one-time link.
type LinkPublisher interface {
	Publish(ctx context.Context, plaintext string) (string, error)
}

// SecretLinkHandler exposes the publisher directly.
type SecretLinkHandler struct {
	publisher LinkPublisher
}

// NewSecretLinkHandler creates a new SecretLinkHandler.
func NewSecretLinkHandler(p LinkPublisher) *SecretLinkHandler {
	return &SecretLinkHandler{publisher: p}
}

// Echo handles POST /api/v1/yopass/echo.
// Publishes the form field "data" and answers with the bare link.
func (h *SecretLinkHandler) Echo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequest(w, "Invalid form body")
		return
	}
	data := r.PostForm.Get("data")
	if data == "" {
		BadRequest(w, "Field 'data' is required")
		return
	}

	link, err := h.publisher.Publish(r.Context(), data)
	if err != nil {
		writeError(w, r, "Failed to generate secret link", err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(link))
}
