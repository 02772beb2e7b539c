package identity

import (
	"strings"
	"unicode"

	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/models"
	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
)

// ValidatePassword checks password against the policy and reports every
// violation at once.
func ValidatePassword(opts PasswordOptions, password string) error {
	var err error

	if len(password) < opts.RequiredLength {
		err = multierr.Append(err, describe(ErrPasswordTooShort,
			"Passwords must be at least %d characters.", opts.RequiredLength))
	}

	var hasDigit, hasLower, hasUpper, hasOther bool
	unique := make(map[rune]struct{})
	for _, c := range password {
		switch {
		case c >= '0' && c <= '9':
			hasDigit = true
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		}
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			hasOther = true
		}
		unique[c] = struct{}{}
	}

	if opts.RequireNonAlphanumeric && !hasOther {
		err = multierr.Append(err, ErrPasswordRequiresNonAlphanumeric)
	}
	if opts.RequireDigit && !hasDigit {
		err = multierr.Append(err, ErrPasswordRequiresDigit)
	}
	if opts.RequireLowercase && !hasLower {
		err = multierr.Append(err, ErrPasswordRequiresLower)
	}
	if opts.RequireUppercase && !hasUpper {
		err = multierr.Append(err, ErrPasswordRequiresUpper)
	}
	if opts.RequiredUniqueChars >= 1 && len(unique) < opts.RequiredUniqueChars {
		err = multierr.Append(err, describe(ErrPasswordRequiresUniqueChars,
			"Passwords must use at least %d different characters.", opts.RequiredUniqueChars))
	}

	return err
}

// userValidator checks the shape of a user record. Uniqueness is checked
// against the store by the Manager.
type userValidator struct {
	opts     UserOptions
	validate *validator.Validate
}

func newUserValidator(opts UserOptions) *userValidator {
	return &userValidator{opts: opts, validate: validator.New()}
}

func (v *userValidator) Validate(user *models.User) error {
	var err error

	switch {
	case strings.TrimSpace(user.UserName) == "":
		err = multierr.Append(err, describe(ErrInvalidUserName, "Username '%s' is invalid, can only contain letters or digits.", user.UserName))
	case v.opts.AllowedUserNameCharacters != "" && strings.IndexFunc(user.UserName, func(r rune) bool {
		return !strings.ContainsRune(v.opts.AllowedUserNameCharacters, r)
	}) >= 0:
		err = multierr.Append(err, describe(ErrInvalidUserName, "Username '%s' is invalid, can only contain letters or digits.", user.UserName))
	}

	if v.opts.RequireUniqueEmail || user.Email != "" {
		if verr := v.validate.Var(user.Email, "required,email"); verr != nil {
			err = multierr.Append(err, describe(ErrInvalidEmail, "Email '%s' is invalid.", user.Email))
		}
	}

	return err
}
