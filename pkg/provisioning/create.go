package provisioning

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marmos91/ipagw/internal/logger"
	"github.com/marmos91/ipagw/internal/telemetry"
	"github.com/marmos91/ipagw/internal/translit"
	"github.com/marmos91/ipagw/pkg/directory"
)

// ErrInvalidAccount is returned when a NewAccount lacks a required field.
var ErrInvalidAccount = errors.New("invalid account")

// NewAccount is a single user to create with optional group memberships.
type NewAccount struct {
	GivenName string
	Surname   string
	Email     string
	Title     *string
	Phone     *string
	Groups    []string
}

// CreatedAccount is the outcome of CreateUser.
type CreatedAccount struct {
	Username   string        `json:"username"`
	Password   string        `json:"password"`
	Email      string        `json:"email"`
	FullName   string        `json:"full_name"`
	SecretLink string        `json:"secret_link,omitempty"`
	LinkError  string        `json:"link_error,omitempty"`
	Groups     *GroupOutcome `json:"groups,omitempty"`
}

// RollbackError reports a user that was deleted again because none of the
// requested groups accepted it. DeleteErr is set when the delete failed
// too, in which case the user still exists.
type RollbackError struct {
	Username  string
	Failed    []GroupFailure
	DeleteErr error
}

func (e *RollbackError) Error() string {
	groups := (&GroupOutcome{Failed: e.Failed}).failures()
	if e.DeleteErr != nil {
		return fmt.Sprintf("user %s was created but no group could be assigned (%s); removing it failed: %v",
			e.Username, groups, e.DeleteErr)
	}
	return fmt.Sprintf("user %s was created but no group could be assigned (%s); the user was removed",
		e.Username, groups)
}

func (e *RollbackError) Unwrap() error {
	return e.DeleteErr
}

func (a NewAccount) validate() error {
	var missing []string
	if strings.TrimSpace(a.GivenName) == "" {
		missing = append(missing, "first name")
	}
	if strings.TrimSpace(a.Surname) == "" {
		missing = append(missing, "last name")
	}
	if strings.TrimSpace(a.Email) == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidAccount, strings.Join(missing, ", "))
	}
	if !ValidEmail(a.Email) {
		return fmt.Errorf("%w: invalid email %s", ErrInvalidAccount, a.Email)
	}
	return nil
}

// CreateUser creates one user and adds it to the requested groups. When
// groups were requested and none of them accepted the user, the user is
// deleted and a *RollbackError is returned. Otherwise a secret link for
// the generated password is published.
func (e *Engine) CreateUser(ctx context.Context, dir directory.Directory, acct NewAccount) (*CreatedAccount, error) {
	if err := acct.validate(); err != nil {
		return nil, err
	}

	acct.GivenName = strings.TrimSpace(acct.GivenName)
	acct.Surname = strings.TrimSpace(acct.Surname)
	username := translit.UsernameFromParts(acct.GivenName, acct.Surname)
	fullName := acct.GivenName + " " + acct.Surname

	ctx, span := telemetry.StartBulkSpan(context.WithoutCancel(ctx), OpCreate, telemetry.Username(username))
	defer span.End()
	e.recordRun(OpCreate)

	u, err := dir.AddUser(ctx, username, directory.NewUser{
		GivenName:  acct.GivenName,
		Surname:    acct.Surname,
		CommonName: fullName,
		Mail:       acct.Email,
		Title:      acct.Title,
		Phone:      acct.Phone,
	})
	if err != nil {
		e.recordItem(OpCreate, string(KindDirectory))
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to create user %s: %w", username, err)
	}

	out := &CreatedAccount{
		Username: username,
		Password: u.RandomPassword,
		Email:    acct.Email,
		FullName: fullName,
	}

	if len(acct.Groups) > 0 {
		out.Groups = addGroups(ctx, dir, username, acct.Groups)
		if len(out.Groups.Added) == 0 {
			rb := &RollbackError{Username: username, Failed: out.Groups.Failed}
			if err := dir.DeleteUser(ctx, username); err != nil {
				rb.DeleteErr = err
			}
			e.recordItem(OpCreate, "rolled_back")
			telemetry.RecordError(ctx, rb)
			logger.WarnCtx(ctx, "User creation rolled back", logger.Username(username), logger.Err(rb))
			return nil, rb
		}
	}

	out.SecretLink, out.LinkError = e.publishCredentials(ctx, username, out.Password)
	e.recordItem(OpCreate, "success")
	logger.InfoCtx(ctx, "User created", logger.Username(username))
	return out, nil
}
