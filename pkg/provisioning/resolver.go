package provisioning

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marmos91/ipagw/pkg/directory"
)

// ErrIdentifierNotFound is returned when an email matches no user.
var ErrIdentifierNotFound = errors.New("user not found")

// UserFinder is the directory capability Resolve needs.
type UserFinder interface {
	FindUsers(ctx context.Context, q directory.UserQuery, all bool) ([]directory.User, error)
}

// Resolve turns a username or email into a username. An identifier
// without "@" is returned unchanged and not checked. An email is looked up
// lower-cased and resolves to the first match.
func Resolve(ctx context.Context, f UserFinder, identifier string) (string, error) {
	if !strings.Contains(identifier, "@") {
		return identifier, nil
	}

	users, err := f.FindUsers(ctx, directory.UserQuery{Mail: strings.ToLower(identifier)}, false)
	if err != nil {
		return "", fmt.Errorf("failed to look up %s: %w", identifier, err)
	}
	for _, u := range users {
		if u.UID != "" {
			return u.UID, nil
		}
	}
	return "", fmt.Errorf("%w: no user with email %q", ErrIdentifierNotFound, identifier)
}
