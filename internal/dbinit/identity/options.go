package identity

import "golang.org/x/crypto/bcrypt"

// PasswordOptions is the password policy applied on user creation.
type PasswordOptions struct {
	RequiredLength         int
	RequiredUniqueChars    int
	RequireNonAlphanumeric bool
	RequireLowercase       bool
	RequireUppercase       bool
	RequireDigit           bool
}

// UserOptions constrains user names and e-mail addresses.
type UserOptions struct {
	AllowedUserNameCharacters string
	RequireUniqueEmail        bool
}

type Options struct {
	Password PasswordOptions
	User     UserOptions
	// HashCost is the bcrypt cost used for new password hashes.
	HashCost int
}

// DefaultOptions returns the policy the identity API runs with. Lower-case
// letters are not required: several fixture passwords are upper-case only.
func DefaultOptions() Options {
	return Options{
		Password: PasswordOptions{
			RequiredLength:         6,
			RequiredUniqueChars:    1,
			RequireNonAlphanumeric: true,
			RequireLowercase:       false,
			RequireUppercase:       true,
			RequireDigit:           true,
		},
		User: UserOptions{
			AllowedUserNameCharacters: "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-._@+",
			RequireUniqueEmail:        true,
		},
		HashCost: bcrypt.DefaultCost,
	}
}
