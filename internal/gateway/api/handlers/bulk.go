package handlers

import (
	"net/http"

	"github.com/marmos91/ipagw/pkg/provisioning"
)

// Bulk returns the handler for POST /api/v1/users/bulk-*. The body is a
// JSON array of usernames or email addresses. Item failures are part of
// the 200 response.
func (h *UserHandler) Bulk(action provisioning.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dir, ok := sessionDirectory(w, r)
		if !ok {
			return
		}

		var identifiers []string
		if !decodeJSONBody(w, r, &identifiers) {
			return
		}

		res, err := h.engine.Apply(r.Context(), dir, action, identifiers)
		if err != nil {
			writeError(w, r, "Bulk operation failed", err)
			return
		}
		WriteJSONOK(w, res)
	}
}
