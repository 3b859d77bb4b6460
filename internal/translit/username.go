package translit

import (
	"fmt"
	"strings"
)

// Name is a full name split into its parts together with the account name
// derived from it.
type Name struct {
	Surname   string // first word of the full name, as written
	GivenName string // second word of the full name, as written
	Username  string // given.surname, transliterated and lower-cased
}

// GenerateUsername splits "Surname Given [Patronymic...]" on whitespace and
// derives the username "given.surname". Words after the second are ignored.
func GenerateUsername(fullName string) (Name, error) {
	parts := strings.Fields(fullName)
	if len(parts) < 2 {
		return Name{}, fmt.Errorf("%w: %q", ErrMalformedName, fullName)
	}
	return Name{
		Surname:   parts[0],
		GivenName: parts[1],
		Username:  UsernameFromParts(parts[1], parts[0]),
	}, nil
}

// UsernameFromParts composes "given.surname" from already separated parts.
func UsernameFromParts(given, surname string) string {
	return strings.ToLower(Transliterate(given)) + "." + strings.ToLower(Transliterate(surname))
}
