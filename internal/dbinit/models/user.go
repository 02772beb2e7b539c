package models

// User is an identity account as stored in the users table.
//
// Normalized* fields hold the invariant upper-case forms used for lookups.
// Domain is a free-form tenant tag; nil means none.
type User struct {
	ID                   string
	UserName             string
	NormalizedUserName   string
	Email                string
	NormalizedEmail      string
	EmailConfirmed       bool
	PasswordHash         string
	SecurityStamp        string
	ConcurrencyStamp     string
	PhoneNumber          *string
	PhoneNumberConfirmed bool
	TwoFactorEnabled     bool
	LockoutEnabled       bool
	AccessFailedCount    int
	Domain               *string
}

// DomainOrEmpty returns the domain tag or "" when unset.
func (u *User) DomainOrEmpty() string {
	if u.Domain == nil {
		return ""
	}
	return *u.Domain
}
