package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/ipagw/internal/gateway/api/middleware"
	"github.com/marmos91/ipagw/internal/logger"
	"github.com/marmos91/ipagw/pkg/directory"
	"github.com/marmos91/ipagw/pkg/provisioning"
	"github.com/marmos91/ipagw/pkg/secretlink"
	"github.com/marmos91/ipagw/pkg/session"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeJSONBody decodes a JSON request body into the provided pointer.
// Returns true if successful, false if decoding fails (error response is written automatically).
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// validateBody runs struct validation and writes a 422 listing every
// failing field.
func validateBody(w http.ResponseWriter, v any) bool {
	err := validate.Struct(v)
	if err == nil {
		return true
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		BadRequest(w, err.Error())
		return false
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s: failed '%s' validation", fe.Field(), fe.Tag()))
	}
	UnprocessableEntity(w, strings.Join(problems, "; "))
	return false
}

// sessionDirectory returns the directory connection of the calling
// session. RequireSession guarantees one is present on protected routes.
func sessionDirectory(w http.ResponseWriter, r *http.Request) (directory.Directory, bool) {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		Unauthorized(w, "Not authenticated")
		return nil, false
	}
	return sess.Conn, true
}

// writeError maps a domain error to its HTTP status. summary prefixes the
// detail of server-side failures.
func writeError(w http.ResponseWriter, r *http.Request, summary string, err error) {
	var rollback *provisioning.RollbackError
	switch {
	case errors.As(err, &rollback):
		// A rolled-back create is a server error whatever the delete returned.
		logger.ErrorCtx(r.Context(), summary, logger.Err(err))
		InternalServerError(w, fmt.Sprintf("%s: %v", summary, err))
	case errors.Is(err, session.ErrUnauthenticated),
		errors.Is(err, session.ErrExpired),
		errors.Is(err, directory.ErrAuthFailed),
		errors.Is(err, directory.ErrClosed):
		Unauthorized(w, err.Error())
	case errors.Is(err, provisioning.ErrInvalidAccount):
		UnprocessableEntity(w, err.Error())
	case errors.Is(err, provisioning.ErrPreflightFailed),
		errors.Is(err, secretlink.ErrLinkUnavailable),
		errors.Is(err, secretlink.ErrNotConfigured):
		ServiceUnavailable(w, err.Error())
	default:
		logger.ErrorCtx(r.Context(), summary, logger.Err(err))
		InternalServerError(w, fmt.Sprintf("%s: %v", summary, err))
	}
}
