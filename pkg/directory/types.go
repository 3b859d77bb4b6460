package directory

import (
	"context"
	"time"
)

// Directory is the set of FreeIPA operations the gateway performs on behalf
// of an authenticated operator. *Client implements it.
type Directory interface {
	ShowUser(ctx context.Context, uid string, all bool) (*User, error)
	FindUsers(ctx context.Context, q UserQuery, all bool) ([]User, error)
	AddUser(ctx context.Context, uid string, u NewUser) (*User, error)
	DeleteUser(ctx context.Context, uid string) error
	EnableUser(ctx context.Context, uid string) error
	DisableUser(ctx context.Context, uid string) error
	ModifyUser(ctx context.Context, uid string, ch UserChanges) (*User, error)
	ResetPassword(ctx context.Context, uid string) (*User, error)
	AddGroupMember(ctx context.Context, group, uid string) error
	ShowGroup(ctx context.Context, name string) (*Group, error)
	ProbeGroup(ctx context.Context, name string) GroupProbe
	Close(ctx context.Context) error
}

// User is a FreeIPA user entry.
type User struct {
	UID                string     `json:"uid"`
	GivenName          string     `json:"givenname,omitempty"`
	Surname            string     `json:"sn,omitempty"`
	CommonName         string     `json:"cn,omitempty"`
	DisplayName        string     `json:"displayname,omitempty"`
	Mail               []string   `json:"mail,omitempty"`
	Title              string     `json:"title,omitempty"`
	Phone              []string   `json:"telephonenumber,omitempty"`
	Groups             []string   `json:"memberof_group,omitempty"`
	PasswordExpiration *time.Time `json:"krbpasswordexpiration,omitempty"`
	Disabled           bool       `json:"nsaccountlock"`
	UIDNumber          string     `json:"uidnumber,omitempty"`
	GIDNumber          string     `json:"gidnumber,omitempty"`
	HomeDirectory      string     `json:"homedirectory,omitempty"`
	LoginShell         string     `json:"loginshell,omitempty"`
	Principal          []string   `json:"krbprincipalname,omitempty"`

	// RandomPassword is only set by calls that requested a generated
	// password. It is never serialized.
	RandomPassword string `json:"-"`
}

// PrimaryMail returns the first email address, or "".
func (u *User) PrimaryMail() string {
	if len(u.Mail) == 0 {
		return ""
	}
	return u.Mail[0]
}

// Group is a FreeIPA group entry.
type Group struct {
	Name        string   `json:"cn"`
	Description string   `json:"description,omitempty"`
	GIDNumber   string   `json:"gidnumber,omitempty"`
	Members     []string `json:"member_user,omitempty"`
}

// UserQuery narrows user_find. Empty fields are not sent.
type UserQuery struct {
	Mail string
	UID  string
}

// NewUser holds the attributes of a user_add call. A random password is
// always requested.
type NewUser struct {
	GivenName  string
	Surname    string
	CommonName string
	Mail       string
	Title      *string
	Phone      *string
}

// UserChanges holds the attributes of a user_mod call. Nil fields are left
// untouched.
type UserChanges struct {
	RandomPassword bool
	Mail           *string
	Title          *string
	Phone          *string
}

func (c UserChanges) empty() bool {
	return !c.RandomPassword && c.Mail == nil && c.Title == nil && c.Phone == nil
}

// GroupStatus is the outcome of a group existence probe.
type GroupStatus int

const (
	GroupExists GroupStatus = iota
	GroupAbsent
	GroupProbeFailed
)

func (s GroupStatus) String() string {
	switch s {
	case GroupExists:
		return "exists"
	case GroupAbsent:
		return "absent"
	case GroupProbeFailed:
		return "probe_failed"
	default:
		return "unknown"
	}
}

// GroupProbe is the tri-state result of ProbeGroup. Err is set only for
// GroupProbeFailed.
type GroupProbe struct {
	Status GroupStatus
	Err    error
}

// ProbeResult classifies the error of a group_show call.
func ProbeResult(err error) GroupProbe {
	switch {
	case err == nil:
		return GroupProbe{Status: GroupExists}
	case IsNotFound(err):
		return GroupProbe{Status: GroupAbsent}
	default:
		return GroupProbe{Status: GroupProbeFailed, Err: err}
	}
}
