package identity

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Error is an identity failure carrying a stable machine-readable Code and a
// human-readable Description. Two Errors match under errors.Is when their
// codes are equal, so the package-level values below work as sentinels.
type Error struct {
	Code        string
	Description string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrInvalidRoleName                 = &Error{Code: "InvalidRoleName", Description: "Role name is invalid."}
	ErrDuplicateRoleName               = &Error{Code: "DuplicateRoleName", Description: "Role name is already taken."}
	ErrRoleNotFound                    = &Error{Code: "RoleNotFound", Description: "Role does not exist."}
	ErrInvalidUserName                 = &Error{Code: "InvalidUserName", Description: "Username is invalid."}
	ErrDuplicateUserName               = &Error{Code: "DuplicateUserName", Description: "Username is already taken."}
	ErrInvalidEmail                    = &Error{Code: "InvalidEmail", Description: "Email is invalid."}
	ErrDuplicateEmail                  = &Error{Code: "DuplicateEmail", Description: "Email is already taken."}
	ErrUserAlreadyInRole               = &Error{Code: "UserAlreadyInRole", Description: "User already in role."}
	ErrPasswordTooShort                = &Error{Code: "PasswordTooShort", Description: "Password is too short."}
	ErrPasswordRequiresNonAlphanumeric = &Error{Code: "PasswordRequiresNonAlphanumeric", Description: "Passwords must have at least one non alphanumeric character."}
	ErrPasswordRequiresDigit           = &Error{Code: "PasswordRequiresDigit", Description: "Passwords must have at least one digit ('0'-'9')."}
	ErrPasswordRequiresLower           = &Error{Code: "PasswordRequiresLower", Description: "Passwords must have at least one lowercase ('a'-'z')."}
	ErrPasswordRequiresUpper           = &Error{Code: "PasswordRequiresUpper", Description: "Passwords must have at least one uppercase ('A'-'Z')."}
	ErrPasswordRequiresUniqueChars     = &Error{Code: "PasswordRequiresUniqueChars", Description: "Passwords must use more different characters."}
)

func describe(base *Error, format string, args ...any) *Error {
	return &Error{Code: base.Code, Description: fmt.Sprintf(format, args...)}
}

// Codes lists the identity error codes contained in err, which may be a
// single *Error, a wrapped one or a combination built with multierr.
func Codes(err error) []string {
	var codes []string
	for _, e := range multierr.Errors(err) {
		var ie *Error
		if errors.As(e, &ie) {
			codes = append(codes, ie.Code)
		}
	}
	return codes
}
