package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ipagw/pkg/directory"
)

func TestUsersGroupsReport(t *testing.T) {
	f := newFixture(t)
	f.dir.SeedUser(directory.User{UID: "alice", Mail: []string{"alice@example.com", "a@example.com"}, Groups: []string{"staff", "ops"}})
	f.dir.SeedUser(directory.User{UID: "bob"})

	rr := f.serve(t, NewReportHandler().UsersGroups, call{
		method: http.MethodGet, target: "/api/v1/report/full-usersgroups-info",
	})

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=users_groups_report.csv", rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "username,email,groups\nalice,alice@example.com,staff;ops\nbob,,\n", rr.Body.String())
}

func TestFullInfoReport(t *testing.T) {
	f := newFixture(t)

	rr := f.serve(t, NewReportHandler().FullInfo, call{
		method: http.MethodGet, target: "/api/v1/report/full-info",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())

	f.dir.SeedUser(directory.User{UID: "alice", Title: "Engineer"})
	rr = f.serve(t, NewReportHandler().FullInfo, call{
		method: http.MethodGet, target: "/api/v1/report/full-info",
	})
	users := decode[[]directory.User](t, rr)
	require.Len(t, users, 1)
	assert.Equal(t, "Engineer", users[0].Title)
}

func TestReport_DirectoryFailure(t *testing.T) {
	f := newFixture(t)
	f.dir.FailOn("user_find", "", &directory.RemoteError{Code: 4301, Name: "ACIError", Message: "insufficient access"})

	rr := f.serve(t, NewReportHandler().UsersGroups, call{
		method: http.MethodGet, target: "/api/v1/report/full-usersgroups-info",
	})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, decode[Problem](t, rr).Detail, "insufficient access")
}
