package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/ipagw/internal/logger"
	"github.com/marmos91/ipagw/pkg/directory"
	"github.com/marmos91/ipagw/pkg/provisioning"
	"github.com/marmos91/ipagw/pkg/sheet"
)

// UserHandler handles user endpoints, single and bulk.
type UserHandler struct {
	engine        *provisioning.Engine
	maxUploadSize int64
}

// NewUserHandler creates a new UserHandler. maxUploadSize caps workbook
// uploads in bytes.
func NewUserHandler(engine *provisioning.Engine, maxUploadSize int64) *UserHandler {
	return &UserHandler{engine: engine, maxUploadSize: maxUploadSize}
}

// CreateUserRequest is the request body for POST /api/v1/creat-users.
type CreateUserRequest struct {
	FirstName string   `json:"first_name" validate:"required"`
	LastName  string   `json:"last_name" validate:"required"`
	Email     string   `json:"email" validate:"required,email"`
	Title     *string  `json:"title,omitempty"`
	Phone     *string  `json:"phone,omitempty"`
	Groups    []string `json:"groups,omitempty" validate:"omitempty,dive,required"`
}

func (req CreateUserRequest) account() provisioning.NewAccount {
	return provisioning.NewAccount{
		GivenName: strings.TrimSpace(req.FirstName),
		Surname:   strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		Title:     req.Title,
		Phone:     req.Phone,
		Groups:    req.Groups,
	}
}

// CreateUserResponse is the response body of both create endpoints.
type CreateUserResponse struct {
	*provisioning.CreatedAccount
	Message string `json:"message"`
}

// UserActionResponse is the response body of single-user mutations.
type UserActionResponse struct {
	Username string `json:"username"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

// PasswordResetResponse is the response body of a single password reset.
type PasswordResetResponse struct {
	*provisioning.PasswordReset
	Message string `json:"message"`
}

// Get handles GET /api/v1/users/{username}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	dir, ok := sessionDirectory(w, r)
	if !ok {
		return
	}

	username := chi.URLParam(r, "username")
	user, err := dir.ShowUser(r.Context(), username, true)
	if err != nil {
		writeError(w, r, "Failed to get user", err)
		return
	}
	WriteJSONOK(w, user)
}

// SearchByEmail handles GET /api/v1/users/search-by-email/{email}.
// It shows what each lookup strategy finds, for troubleshooting.
func (h *UserHandler) SearchByEmail(w http.ResponseWriter, r *http.Request) {
	dir, ok := sessionDirectory(w, r)
	if !ok {
		return
	}

	email := chi.URLParam(r, "email")
	ctx := r.Context()
	localPart, _, _ := strings.Cut(email, "@")

	WriteJSONOK(w, map[string]any{
		"email":       email,
		"exact_match": findByMail(ctx, dir, email),
		"lowercase":   findByMail(ctx, dir, strings.ToLower(email)),
		"by_username": showUsername(ctx, dir, localPart),
	})
}

func findByMail(ctx context.Context, dir directory.Directory, mail string) any {
	users, err := dir.FindUsers(ctx, directory.UserQuery{Mail: mail}, false)
	if err != nil {
		return map[string]string{"error": err.Error()}
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.UID)
	}
	return names
}

func showUsername(ctx context.Context, dir directory.Directory, uid string) any {
	u, err := dir.ShowUser(ctx, uid, false)
	if err != nil {
		return map[string]string{"error": err.Error()}
	}
	return []string{u.UID}
}

// Create handles POST /api/v1/creat-users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if !validateBody(w, req) {
		return
	}
	h.create(w, r, req.account())
}

// CreateForm handles POST /api/v1/users/create-form. Groups arrive as a
// comma separated list.
func (h *UserHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequest(w, "Invalid form body")
		return
	}

	req := CreateUserRequest{
		FirstName: r.PostForm.Get("first_name"),
		LastName:  r.PostForm.Get("last_name"),
		Email:     r.PostForm.Get("email"),
		Title:     formOptional(r, "title"),
		Phone:     formOptional(r, "phone"),
		Groups:    sheet.ParseGroups(r.PostForm.Get("groups")),
	}
	if !validateBody(w, req) {
		return
	}
	h.create(w, r, req.account())
}

func formOptional(r *http.Request, key string) *string {
	v := strings.TrimSpace(r.PostForm.Get(key))
	if v == "" {
		return nil
	}
	return &v
}

func (h *UserHandler) create(w http.ResponseWriter, r *http.Request, acct provisioning.NewAccount) {
	dir, ok := sessionDirectory(w, r)
	if !ok {
		return
	}

	created, err := h.engine.CreateUser(r.Context(), dir, acct)
	if err != nil {
		writeError(w, r, "Failed to create user", err)
		return
	}

	WriteJSONOK(w, CreateUserResponse{
		CreatedAccount: created,
		Message:        fmt.Sprintf("User %s created", created.Username),
	})
}

// Delete handles POST /api/v1/users/{username}/delete.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "deleted", func(ctx context.Context, dir directory.Directory, uid string) error {
		return dir.DeleteUser(ctx, uid)
	})
}

// Disable handles POST /api/v1/users/{username}/disable.
func (h *UserHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "disabled", func(ctx context.Context, dir directory.Directory, uid string) error {
		return dir.DisableUser(ctx, uid)
	})
}

// Enable handles POST /api/v1/users/{username}/enable.
func (h *UserHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "enabled", func(ctx context.Context, dir directory.Directory, uid string) error {
		return dir.EnableUser(ctx, uid)
	})
}

func (h *UserHandler) mutate(w http.ResponseWriter, r *http.Request, status string, apply func(context.Context, directory.Directory, string) error) {
	dir, ok := sessionDirectory(w, r)
	if !ok {
		return
	}

	username := chi.URLParam(r, "username")
	if err := apply(context.WithoutCancel(r.Context()), dir, username); err != nil {
		writeError(w, r, fmt.Sprintf("Failed to mark user %s %s", username, status), err)
		return
	}

	logger.InfoCtx(r.Context(), "User "+status, logger.Username(username))
	WriteJSONOK(w, UserActionResponse{
		Username: username,
		Status:   status,
		Message:  fmt.Sprintf("User %s %s", username, status),
	})
}

// ResetPassword handles POST /api/v1/users/{username}/reset-password.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	dir, ok := sessionDirectory(w, r)
	if !ok {
		return
	}

	username := chi.URLParam(r, "username")
	reset, err := h.engine.ResetPassword(r.Context(), dir, username)
	if err != nil {
		writeError(w, r, "Failed to reset password", err)
		return
	}

	WriteJSONOK(w, PasswordResetResponse{
		PasswordReset: reset,
		Message:       fmt.Sprintf("Password of %s reset", username),
	})
}
