package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLiveness(t *testing.T) {
	h := NewHealthHandler("", nil)

	rr := httptest.NewRecorder()
	h.Liveness(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decode[Response](t, rr)
	assert.Equal(t, "healthy", resp.Status)
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name   string
		host   string
		tool   ToolChecker
		status int
		errMsg string
	}{
		{"ready", "ipa.example.com", &fakePublisher{}, http.StatusOK, ""},
		{"no host", "", &fakePublisher{}, http.StatusServiceUnavailable, "directory host not configured"},
		{"no publisher", "ipa.example.com", nil, http.StatusServiceUnavailable, "secret link publisher not configured"},
		{"tool missing", "ipa.example.com", &fakePublisher{available: errors.New("yopass not found in PATH")}, http.StatusServiceUnavailable, "yopass not found in PATH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.host, tt.tool)

			rr := httptest.NewRecorder()
			h.Readiness(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.status, rr.Code)
			resp := decode[Response](t, rr)
			assert.Equal(t, tt.errMsg, resp.Error)
		})
	}
}
