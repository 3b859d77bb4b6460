package handlers

import (
	"net/http"
	"strings"
)

// ToolChecker reports whether an external tool can be run.
type ToolChecker interface {
	Available() error
}

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Can logins and credential links work?
type HealthHandler struct {
	directoryHost string
	secretLink    ToolChecker
}

// NewHealthHandler creates a new health handler. directoryHost is the
// configured FreeIPA host and may be empty.
func NewHealthHandler(directoryHost string, secretLink ToolChecker) *HealthHandler {
	return &HealthHandler{directoryHost: directoryHost, secretLink: secretLink}
}

// Liveness handles GET /health - simple liveness probe.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, healthyResponse(map[string]string{
		"service": "ipagw",
	}))
}

// Readiness handles GET /health/ready - readiness probe.
//
// Returns 503 Service Unavailable when no directory host is configured or
// the secret link tool cannot be found.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSpace(h.directoryHost) == "" {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("directory host not configured"))
		return
	}
	if h.secretLink == nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("secret link publisher not configured"))
		return
	}
	if err := h.secretLink.Available(); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse(err.Error()))
		return
	}

	WriteJSONOK(w, healthyResponse(map[string]string{
		"directory_host": h.directoryHost,
		"secret_link":    "available",
	}))
}
