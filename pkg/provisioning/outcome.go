package provisioning

import (
	"errors"
	"strings"

	"github.com/marmos91/ipagw/pkg/directory"
)

// Action is a bulk mutation applied to every resolved identifier.
type Action string

const (
	ActionDelete        Action = "delete"
	ActionEnable        Action = "enable"
	ActionDisable       Action = "disable"
	ActionResetPassword Action = "reset_password"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionDelete, ActionEnable, ActionDisable, ActionResetPassword:
		return true
	}
	return false
}

// FailureKind tags why a bulk item failed.
type FailureKind string

const (
	// KindNotFound means the identifier or user does not exist.
	KindNotFound FailureKind = "not_found"
	// KindDirectory is any other directory or transport failure.
	KindDirectory FailureKind = "directory"
)

// ItemSuccess is the outcome of a bulk item that was applied.
type ItemSuccess struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Password   string `json:"password,omitempty"`
	SecretLink string `json:"secret_link,omitempty"`
	LinkError  string `json:"link_error,omitempty"`
}

// ItemFailure is the outcome of a bulk item that was not applied.
type ItemFailure struct {
	Identifier string      `json:"identifier"`
	Username   string      `json:"username,omitempty"`
	Kind       FailureKind `json:"kind"`
	Error      string      `json:"error"`
}

// BulkResult holds every item outcome of one bulk call, each list in input
// order.
type BulkResult struct {
	Success []ItemSuccess `json:"success"`
	Failed  []ItemFailure `json:"failed"`
}

func newBulkResult() *BulkResult {
	return &BulkResult{Success: []ItemSuccess{}, Failed: []ItemFailure{}}
}

func classify(err error) FailureKind {
	if errors.Is(err, ErrIdentifierNotFound) || directory.IsNotFound(err) {
		return KindNotFound
	}
	return KindDirectory
}

// GroupFailure is a group the user could not be added to.
type GroupFailure struct {
	Group string `json:"group"`
	Error string `json:"error"`
}

// GroupOutcome is the per-group result of membership assignment.
type GroupOutcome struct {
	Added  []string       `json:"added"`
	Failed []GroupFailure `json:"failed"`
}

// failures summarises the rejected groups on one line.
func (g *GroupOutcome) failures() string {
	parts := make([]string, 0, len(g.Failed))
	for _, f := range g.Failed {
		parts = append(parts, f.Group+": "+f.Error)
	}
	return strings.Join(parts, "; ")
}
