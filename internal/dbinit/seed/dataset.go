package seed

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// DefaultDomain tags seeded users that do not name a domain.
const DefaultDomain = "development"

// UserSeed describes one account to seed.
type UserSeed struct {
	Email    string   `yaml:"email"`
	UserName string   `yaml:"user_name"`
	Password string   `yaml:"password"`
	Roles    []string `yaml:"roles"`
	Domain   string   `yaml:"domain"`
}

// Dataset is the reference data written in development: roles first, then
// users with their role memberships.
type Dataset struct {
	Roles []string   `yaml:"roles"`
	Users []UserSeed `yaml:"users"`
}

// DefaultDataset returns the built-in development roles and accounts.
func DefaultDataset() Dataset {
	return Dataset{
		Roles: []string{
			"Administrator",
			"ProductManager",
			"Developer",
			"Viewer",
			"QualityAssurance",
		},
		Users: []UserSeed{
			{Email: "admin@my-company.dev", Password: "Admin123!", Roles: []string{"Administrator"}},
			{Email: "pm@my-company.dev", Password: "PM123!", Roles: []string{"ProductManager"}},
			{Email: "dev@my-company.dev", Password: "Dev123!", Roles: []string{"Developer"}},
			{Email: "qa@my-company.dev", Password: "QA123!", Roles: []string{"QualityAssurance"}},
			{Email: "viewer@my-company.dev", Password: "View123!", Roles: []string{"Viewer"}},
		},
	}.withDefaults()
}

// LoadFile reads a YAML dataset from path.
//
//	roles: [Administrator, Viewer]
//	users:
//	  - email: admin@example.dev
//	    password: Admin123!
//	    roles: [Administrator]
func LoadFile(path string) (Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("read seed file: %w", err)
	}

	var d Dataset
	if err := yaml.Unmarshal(b, &d); err != nil {
		return Dataset{}, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	d = d.withDefaults()
	if err := d.Validate(); err != nil {
		return Dataset{}, fmt.Errorf("seed file %s: %w", path, err)
	}

	return d, nil
}

// withDefaults fills user names from e-mails and empty domains with
// DefaultDomain.
func (d Dataset) withDefaults() Dataset {
	users := make([]UserSeed, len(d.Users))
	for i, u := range d.Users {
		if u.UserName == "" {
			u.UserName = u.Email
		}
		if u.Domain == "" {
			u.Domain = DefaultDomain
		}
		users[i] = u
	}
	d.Users = users
	return d
}

// Validate checks that every user has credentials and only references roles
// declared in the dataset.
func (d Dataset) Validate() error {
	declared := make(map[string]struct{}, len(d.Roles))
	var err error

	for _, r := range d.Roles {
		if strings.TrimSpace(r) == "" {
			err = multierr.Append(err, errors.New("empty role name"))
			continue
		}
		declared[strings.ToUpper(r)] = struct{}{}
	}

	for i, u := range d.Users {
		if u.Email == "" {
			err = multierr.Append(err, fmt.Errorf("user #%d: email is required", i+1))
		}
		if u.Password == "" {
			err = multierr.Append(err, fmt.Errorf("user %q: password is required", u.Email))
		}
		for _, r := range u.Roles {
			if _, ok := declared[strings.ToUpper(r)]; !ok {
				err = multierr.Append(err, fmt.Errorf("user %q: unknown role %q", u.Email, r))
			}
		}
	}

	return err
}
