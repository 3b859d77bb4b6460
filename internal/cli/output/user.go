package output

import (
	"strings"
	"time"

	"github.com/marmos91/ipagw/pkg/directory"
)

// UserPairs lists the printable attributes of a directory account, in the
// order an operator reads them. Empty attributes are skipped.
func UserPairs(u *directory.User) [][2]string {
	pairs := [][2]string{{"Username", u.UID}}
	add := func(key, value string) {
		if value != "" {
			pairs = append(pairs, [2]string{key, value})
		}
	}

	add("Full name", u.CommonName)
	add("Given name", u.GivenName)
	add("Surname", u.Surname)
	add("Email", strings.Join(u.Mail, ", "))
	add("Title", u.Title)
	add("Phone", strings.Join(u.Phone, ", "))
	add("Groups", strings.Join(u.Groups, ", "))
	if u.PasswordExpiration != nil {
		add("Password expires", u.PasswordExpiration.UTC().Format(time.RFC3339))
	}
	status := "enabled"
	if u.Disabled {
		status = "disabled"
	}
	add("Status", status)
	return pairs
}
