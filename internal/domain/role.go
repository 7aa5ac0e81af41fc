// Package domain holds the library records exchanged with the library service.
package domain

import (
	"strings"

	"github.com/libraryhub/libraryhub-web/internal/errors"
)

// Role is the account role reported by the library service at login.
type Role string

// Known roles.
const (
	RoleNone      Role = ""
	RoleStudent   Role = "STUDENT"
	RoleLibrarian Role = "LIBRARIAN"
)

// ParseRole normalizes a role string from the service or a form.
// Matching is case-insensitive ("Librarian" is LIBRARIAN); anything else is
// rejected so role checks never compare raw strings.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleLibrarian:
		return RoleLibrarian, nil
	default:
		return RoleNone, errors.Validationf("unknown role %q", s)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleLibrarian
}

// IsLibrarian reports whether r is LIBRARIAN.
func (r Role) IsLibrarian() bool { return r == RoleLibrarian }

// IsStudent reports whether r is STUDENT.
func (r Role) IsStudent() bool { return r == RoleStudent }

func (r Role) String() string { return string(r) }
