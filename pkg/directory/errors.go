package directory

import (
	"errors"
	"fmt"
)

// FreeIPA error codes the gateway reacts to.
const (
	CodeNotFound       = 4001
	CodeDuplicateEntry = 4002
)

var (
	// ErrAuthFailed is returned when the directory rejects the credentials
	// or cannot be reached to check them.
	ErrAuthFailed = errors.New("directory authentication failed")

	// ErrNotFound matches remote errors that report a missing entry.
	ErrNotFound = errors.New("directory entry not found")

	// ErrClosed is returned by every call on a connection after Close.
	ErrClosed = errors.New("directory connection closed")

	// ErrNoHost is returned when no directory host is configured.
	ErrNoHost = errors.New("directory host is not configured")
)

// RemoteError is an error reported by the FreeIPA JSON-RPC endpoint.
type RemoteError struct {
	Code    int    `json:"code"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (%d)", e.Name, e.Code)
	}
	return e.Message
}

// Is lets errors.Is(err, ErrNotFound) match FreeIPA's NotFound code.
func (e *RemoteError) Is(target error) bool {
	return target == ErrNotFound && e.Code == CodeNotFound
}

// MemberError reports a membership the directory refused to add. FreeIPA
// signals these in the call result rather than as an RPC error.
type MemberError struct {
	Group  string
	Member string
	Reason string
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("cannot add %s to group %s: %s", e.Member, e.Group, e.Reason)
}

// HTTPError is returned when the directory answers with a non-JSON failure.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("directory returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("directory returned HTTP %d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err means the requested entry does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
