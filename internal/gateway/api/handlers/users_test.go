package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ipagw/pkg/directory"
	"github.com/marmos91/ipagw/pkg/provisioning"
)

func TestGetUser(t *testing.T) {
	f := newFixture(t)
	f.dir.SeedUser(directory.User{UID: "alice", Mail: []string{"alice@example.com"}, Groups: []string{"staff"}})

	rr := f.serve(t, f.users.Get, call{
		method: http.MethodGet, target: "/api/v1/users/alice",
		params: map[string]string{"username": "alice"},
	})

	require.Equal(t, http.StatusOK, rr.Code)
	user := decode[directory.User](t, rr)
	assert.Equal(t, "alice", user.UID)
	assert.Equal(t, []string{"staff"}, user.Groups)
}

func TestGetUser_NotFound(t *testing.T) {
	f := newFixture(t)

	rr := f.serve(t, f.users.Get, call{
		method: http.MethodGet, target: "/api/v1/users/ghost",
		params: map[string]string{"username": "ghost"},
	})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	problem := decode[Problem](t, rr)
	assert.Contains(t, problem.Detail, "ghost: user not found")
}

func TestGetUser_Unauthenticated(t *testing.T) {
	f := newFixture(t)

	rr := f.serve(t, f.users.Get, call{
		method: http.MethodGet, target: "/api/v1/users/alice",
		params: map[string]string{"username": "alice"}, anonymous: true,
	})

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetUser_ClosedConnection(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.dir.Close(t.Context()))

	rr := f.serve(t, f.users.Get, call{
		method: http.MethodGet, target: "/api/v1/users/alice",
		params: map[string]string{"username": "alice"},
	})

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSearchByEmail(t *testing.T) {
	f := newFixture(t)
	f.dir.SeedUser(directory.User{UID: "alice", Mail: []string{"alice@example.com"}})

	rr := f.serve(t, f.users.SearchByEmail, call{
		method: http.MethodGet, target: "/api/v1/users/search-by-email/Alice@Example.com",
		params: map[string]string{"email": "Alice@Example.com"},
	})

	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[map[string]any](t, rr)
	assert.Equal(t, "Alice@Example.com", body["email"])
	assert.Equal(t, []any{"alice"}, body["lowercase"])
	assert.Equal(t, map[string]any{"error": "Alice: user not found"}, body["by_username"])
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	f.dir.SeedGroup("g1")

	rr := f.serve(t, f.users.Create, call{
		method: http.MethodPost, target: "/api/v1/creat-users",
		body: jsonBody(t, map[string]any{
			"first_name": "Ivan",
			"last_name":  "Ivanov",
			"email":      "ivan@example.com",
			"groups":     []string{"g1", "g2"},
		}),
	})

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decode[map[string]any](t, rr)
	assert.Equal(t, "ivan.ivanov", body["username"])
	assert.Equal(t, "Ivan Ivanov", body["full_name"])
	assert.Equal(t, "https://yopass.example.com/#/s/1", body["secret_link"])
	assert.Equal(t, "User ivan.ivanov created", body["message"])

	groups := body["groups"].(map[string]any)
	assert.Equal(t, []any{"g1"}, groups["added"])
	failed := groups["failed"].([]any)
	require.Len(t, failed, 1)
	assert.Equal(t, "g2", failed[0].(map[string]any)["group"])
}

func TestCreateUser_Rollback(t *testing.T) {
	f := newFixture(t)

	rr := f.serve(t, f.users.Create, call{
		method: http.MethodPost, target: "/api/v1/creat-users",
		body: jsonBody(t, map[string]any{
			"first_name": "Ivan",
			"last_name":  "Ivanov",
			"email":      "ivan@example.com",
			"groups":     []string{"g1"},
		}),
	})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, decode[Problem](t, rr).Detail, "the user was removed")
	_, ok := f.dir.User("ivan.ivanov")
	assert.False(t, ok)
}

func TestCreateUser_RollbackDeleteOnClosedConnection(t *testing.T) {
	f := newFixture(t)
	f.dir.FailOn("user_del", "", directory.ErrClosed)

	rr := f.serve(t, f.users.Create, call{
		method: http.MethodPost, target: "/api/v1/creat-users",
		body: jsonBody(t, map[string]any{
			"first_name": "Ivan",
			"last_name":  "Ivanov",
			"email":      "ivan@example.com",
			"groups":     []string{"g1"},
		}),
	})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, decode[Problem](t, rr).Detail, "removing it failed")
	_, ok := f.dir.User("ivan.ivanov")
	assert.True(t, ok)
}

func TestCreateUser_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed", `{"first_name":`, http.StatusBadRequest},
		{"missing last name", `{"first_name":"Ivan","email":"ivan@example.com"}`, http.StatusUnprocessableEntity},
		{"bad email", `{"first_name":"Ivan","last_name":"Ivanov","email":"ivan@"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			rr := f.serve(t, f.users.Create, call{
				method: http.MethodPost, target: "/api/v1/creat-users",
				body: strings.NewReader(tt.body),
			})

			assert.Equal(t, tt.status, rr.Code)
			assert.Zero(t, f.dir.Mutations())
		})
	}
}

func TestCreateUserForm(t *testing.T) {
	f := newFixture(t)
	f.dir.SeedGroup("devs", "ops")

	form := url.Values{
		"first_name": {"Anna"},
		"last_name":  {"Smith"},
		"email":      {"anna@example.com"},
		"title":      {"  "},
		"groups":     {"devs, ops,"},
	}
	rr := f.serve(t, f.users.CreateForm, call{
		method: http.MethodPost, target: "/api/v1/users/create-form",
		body: strings.NewReader(form.Encode()), contentType: "application/x-www-form-urlencoded",
	})

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, []string{"anna.smith"}, f.dir.Members("devs"))
	assert.Equal(t, []string{"anna.smith"}, f.dir.Members("ops"))

	u, ok := f.dir.User("anna.smith")
	require.True(t, ok)
	assert.Empty(t, u.Title)
}

func TestUserMutations(t *testing.T) {
	tests := []struct {
		name    string
		handler func(*UserHandler) http.HandlerFunc
		status  string
		method  string
	}{
		{"delete", func(h *UserHandler) http.HandlerFunc { return h.Delete }, "deleted", "user_del"},
		{"disable", func(h *UserHandler) http.HandlerFunc { return h.Disable }, "disabled", "user_disable"},
		{"enable", func(h *UserHandler) http.HandlerFunc { return h.Enable }, "enabled", "user_enable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.dir.SeedUser(directory.User{UID: "alice"})

			rr := f.serve(t, tt.handler(f.users), call{
				method: http.MethodPost, target: "/api/v1/users/alice/" + tt.name,
				params: map[string]string{"username": "alice"},
			})

			require.Equal(t, http.StatusOK, rr.Code)
			resp := decode[UserActionResponse](t, rr)
			assert.Equal(t, "alice", resp.Username)
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, []string{"alice"}, f.dir.CallsTo(tt.method))
		})
	}
}

func TestDeleteUser_DirectoryError(t *testing.T) {
	f := newFixture(t)
	f.dir.SeedUser(directory.User{UID: "alice"})
	f.dir.FailOn("user_del", "alice", errors.New("insufficient access"))

	rr := f.serve(t, f.users.Delete, call{
		method: http.MethodPost, target: "/api/v1/users/alice/delete",
		params: map[string]string{"username": "alice"},
	})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, decode[Problem](t, rr).Detail, "insufficient access")
}

func TestDeleteUser_ClientGone(t *testing.T) {
	f := newFixture(t)
	f.dir.SeedUser(directory.User{UID: "alice"})
	f.sess.Conn = strictDirectory{f.dir}

	rr := f.serve(t, f.users.Delete, call{
		method: http.MethodPost, target: "/api/v1/users/alice/delete",
		params: map[string]string{"username": "alice"},
		gone:   true,
	})

	assert.Equal(t, http.StatusOK, rr.Code)
	_, ok := f.dir.User("alice")
	assert.False(t, ok)
}

func TestBulkDelete_ClientGone(t *testing.T) {
	f := newFixture(t)
	f.dir.SeedUser(directory.User{UID: "alice", Mail: []string{"alice@x.com"}})
	f.dir.SeedUser(directory.User{UID: "bob"})
	f.sess.Conn = strictDirectory{f.dir}

	rr := f.serve(t, f.users.Bulk(provisioning.ActionDelete), call{
		method: http.MethodPost, target: "/api/v1/users/bulk-delete",
		body:   jsonBody(t, []string{"alice@x.com", "bob"}),
		gone:   true,
	})

	require.Equal(t, http.StatusOK, rr.Code)
	res := decode[provisioning.BulkResult](t, rr)
	assert.Len(t, res.Success, 2)
	assert.Empty(t, res.Failed)
	assert.Equal(t, []string{"alice", "bob"}, f.dir.CallsTo("user_del"))
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	f.dir.SeedUser(directory.User{UID: "alice"})

	rr := f.serve(t, f.users.ResetPassword, call{
		method: http.MethodPost, target: "/api/v1/users/alice/reset-password",
		params: map[string]string{"username": "alice"},
	})

	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[map[string]any](t, rr)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "Pw-0001", body["password"])
	assert.Equal(t, "https://yopass.example.com/#/s/1", body["secret_link"])
	assert.Equal(t, "Password of alice reset", body["message"])
	assert.Equal(t, []string{"alice\nPw-0001"}, f.pub.payloads)
}

func TestBulk(t *testing.T) {
	f := newFixture(t)
	f.dir.SeedUser(directory.User{UID: "a", Mail: []string{"a@x.com"}})
	f.dir.SeedUser(directory.User{UID: "b", Mail: []string{"b@x.com"}})

	rr := f.serve(t, f.users.Bulk(provisioning.ActionDisable), call{
		method: http.MethodPost, target: "/api/v1/users/bulk-disable",
		body: jsonBody(t, []string{"a", "bad@x.com", "b@x.com"}),
	})

	require.Equal(t, http.StatusOK, rr.Code)
	res := decode[provisioning.BulkResult](t, rr)
	require.Len(t, res.Success, 2)
	assert.Equal(t, "b", res.Success[1].Username)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, provisioning.KindNotFound, res.Failed[0].Kind)
}

func TestBulk_MalformedBody(t *testing.T) {
	f := newFixture(t)

	rr := f.serve(t, f.users.Bulk(provisioning.ActionDelete), call{
		method: http.MethodPost, target: "/api/v1/users/bulk-delete",
		body: strings.NewReader(`{"users": ["a"]}`),
	})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Zero(t, f.dir.Mutations())
}
