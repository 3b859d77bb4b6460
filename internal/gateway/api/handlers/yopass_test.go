package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ipagw/pkg/secretlink"
)

func echoRequest(data string) call {
	return call{
		method:      http.MethodPost,
		target:      "/api/v1/yopass/echo",
		body:        strings.NewReader(url.Values{"data": {data}}.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}
}

func TestSecretLinkEcho(t *testing.T) {
	f := newFixture(t)
	h := NewSecretLinkHandler(f.pub)

	rr := f.serve(t, h.Echo, echoRequest("top secret"))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "https://yopass.example.com/#/s/1", rr.Body.String())
	assert.Equal(t, []string{"top secret"}, f.pub.payloads)
}

func TestSecretLinkEcho_MissingData(t *testing.T) {
	f := newFixture(t)

	rr := f.serve(t, NewSecretLinkHandler(f.pub).Echo, echoRequest(""))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSecretLinkEcho_Failures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"tool missing", secretlink.ErrLinkUnavailable, http.StatusServiceUnavailable},
		{"tool failed", &secretlink.GenerationError{ExitCode: 1, Stderr: "boom"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.pub.err = tt.err

			rr := f.serve(t, NewSecretLinkHandler(f.pub).Echo, echoRequest("x"))

			assert.Equal(t, tt.status, rr.Code)
		})
	}
}
