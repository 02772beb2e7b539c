// Package identity manages roles and user accounts the way the identity API
// expects to find them: normalized names, stamped records, bcrypt password
// hashes and validated user names, e-mails and passwords.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/fullstack-starter/internal/common"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/models"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/repositories/repomanager"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbx"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/crypto/bcrypt"
)

// Manager provides role and user operations on top of the repositories.
// Multi-step writes run in a single transaction.
type Manager struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	opts        Options
	users       *userValidator
}

func NewManager(db *sql.DB, rm repomanager.RepositoryManager, opts Options) *Manager {
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	return &Manager{
		db:          db,
		repomanager: rm,
		opts:        opts,
		users:       newUserValidator(opts.User),
	}
}

// RoleExists reports whether a role with the given name (compared in
// normalized form) exists.
func (m *Manager) RoleExists(ctx context.Context, name string) (bool, error) {
	_, err := m.repomanager.Roles(m.db).GetByNormalizedName(ctx, Normalize(name))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateRole creates a role named name.
func (m *Manager) CreateRole(ctx context.Context, name string) (*models.Role, error) {
	if strings.TrimSpace(name) == "" {
		return nil, describe(ErrInvalidRoleName, "Role name '%s' is invalid.", name)
	}

	role := &models.Role{
		ID:               uuid.NewString(),
		Name:             name,
		NormalizedName:   Normalize(name),
		ConcurrencyStamp: uuid.NewString(),
	}

	err := dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := m.repomanager.Roles(tx)

		_, err := repo.GetByNormalizedName(ctx, role.NormalizedName)
		switch {
		case err == nil:
			return describe(ErrDuplicateRoleName, "Role name '%s' is already taken.", name)
		case !errors.Is(err, common.ErrorNotFound):
			return err
		}

		if err := repo.Create(ctx, role); err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return describe(ErrDuplicateRoleName, "Role name '%s' is already taken.", name)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return role, nil
}

// FindByEmail returns the user with the given e-mail or common.ErrorNotFound.
func (m *Manager) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.repomanager.Users(m.db).GetByNormalizedEmail(ctx, Normalize(email))
}

// CreateUser validates user and password, hashes the password and stores the
// user. All validation failures are returned together. On success user is
// updated with its generated ID, normalized fields and stamps.
func (m *Manager) CreateUser(ctx context.Context, user *models.User, password string) error {
	if err := multierr.Combine(
		m.users.Validate(user),
		ValidatePassword(m.opts.Password, password),
	); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.opts.HashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.NormalizedUserName = Normalize(user.UserName)
	user.NormalizedEmail = Normalize(user.Email)
	user.PasswordHash = string(hash)
	user.SecurityStamp = uuid.NewString()
	user.ConcurrencyStamp = uuid.NewString()

	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := m.repomanager.Users(tx)

		if err := m.checkUnique(ctx, repo.GetByNormalizedUserName, user.NormalizedUserName,
			describe(ErrDuplicateUserName, "Username '%s' is already taken.", user.UserName)); err != nil {
			return err
		}

		if m.opts.User.RequireUniqueEmail {
			if err := m.checkUnique(ctx, repo.GetByNormalizedEmail, user.NormalizedEmail,
				describe(ErrDuplicateEmail, "Email '%s' is already taken.", user.Email)); err != nil {
				return err
			}
		}

		if err := repo.Create(ctx, user); err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return describe(ErrDuplicateUserName, "Username '%s' is already taken.", user.UserName)
			}
			return err
		}
		return nil
	})
}

func (m *Manager) checkUnique(ctx context.Context, lookup func(context.Context, string) (*models.User, error), key string, dup error) error {
	_, err := lookup(ctx, key)
	switch {
	case err == nil:
		return dup
	case errors.Is(err, common.ErrorNotFound):
		return nil
	default:
		return err
	}
}

// AddToRole adds user to the role named roleName.
func (m *Manager) AddToRole(ctx context.Context, user *models.User, roleName string) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		role, err := m.repomanager.Roles(tx).GetByNormalizedName(ctx, Normalize(roleName))
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return describe(ErrRoleNotFound, "Role %s does not exist.", roleName)
			}
			return err
		}

		repo := m.repomanager.UserRoles(tx)

		in, err := repo.Exists(ctx, user.ID, role.ID)
		if err != nil {
			return err
		}
		if in {
			return describe(ErrUserAlreadyInRole, "User already in role '%s'.", roleName)
		}

		if err := repo.Add(ctx, user.ID, role.ID); err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return describe(ErrUserAlreadyInRole, "User already in role '%s'.", roleName)
			}
			return err
		}
		return nil
	})
}

// RolesOf returns the names of the roles user belongs to.
func (m *Manager) RolesOf(ctx context.Context, user *models.User) ([]string, error) {
	return m.repomanager.UserRoles(m.db).RoleNames(ctx, user.ID)
}

// CheckPassword reports whether password matches the user's stored hash.
func (m *Manager) CheckPassword(user *models.User, password string) bool {
	if user.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// Authenticate verifies credentials and returns the user with its role
// names. Unknown e-mails and wrong passwords both yield
// common.ErrorUnauthorized.
func (m *Manager) Authenticate(ctx context.Context, email, password string) (*models.User, []string, error) {
	user, err := m.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, err
	}

	if !m.CheckPassword(user, password) {
		return nil, nil, common.ErrorUnauthorized
	}

	roles, err := m.RolesOf(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	return user, roles, nil
}
