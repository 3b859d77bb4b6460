package handlers

import (
	"encoding/csv"
	"net/http"
	"strings"

	"github.com/marmos91/ipagw/internal/logger"
	"github.com/marmos91/ipagw/pkg/directory"
)

// ReportHandler handles directory-wide reports.
type ReportHandler struct{}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler() *ReportHandler {
	return &ReportHandler{}
}

// UsersGroups handles GET /api/v1/report/full-usersgroups-info.
// Streams username, primary email and group list (";" separated) as CSV.
func (h *ReportHandler) UsersGroups(w http.ResponseWriter, r *http.Request) {
	dir, ok := sessionDirectory(w, r)
	if !ok {
		return
	}

	users, err := dir.FindUsers(r.Context(), directory.UserQuery{}, true)
	if err != nil {
		writeError(w, r, "Failed to list users", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=users_groups_report.csv")
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"username", "email", "groups"})
	for _, u := range users {
		_ = cw.Write([]string{u.UID, u.PrimaryMail(), strings.Join(u.Groups, ";")})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		logger.WarnCtx(r.Context(), "Report write failed", logger.Err(err))
	}
}

// FullInfo handles GET /api/v1/report/full-info.
func (h *ReportHandler) FullInfo(w http.ResponseWriter, r *http.Request) {
	dir, ok := sessionDirectory(w, r)
	if !ok {
		return
	}

	users, err := dir.FindUsers(r.Context(), directory.UserQuery{}, true)
	if err != nil {
		writeError(w, r, "Failed to list users", err)
		return
	}
	if users == nil {
		users = []directory.User{}
	}
	WriteJSONOK(w, users)
}
