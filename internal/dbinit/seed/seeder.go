// Package seed writes development reference data: a fixed set of roles and
// accounts, each created only when absent. Outside the development
// environment the seeder does nothing.
package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/fullstack-starter/internal/common"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/identity"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/models"
	"github.com/dmitrijs2005/fullstack-starter/internal/logging"
	"github.com/dmitrijs2005/fullstack-starter/internal/retryx"
)

// EnvDevelopment is the only environment that receives seed data.
const EnvDevelopment = "development"

// Store is the identity surface the seeder writes through.
type Store interface {
	RoleExists(ctx context.Context, name string) (bool, error)
	CreateRole(ctx context.Context, name string) (*models.Role, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User, password string) error
	AddToRole(ctx context.Context, user *models.User, role string) error
}

// VerifyFunc checks that a freshly seeded account can sign in.
type VerifyFunc func(ctx context.Context, email, password string) error

// Report summarises one seeding run.
type Report struct {
	Skipped bool

	RolesCreated  int
	RolesExisting int
	RolesFailed   int

	UsersCreated  int
	UsersExisting int
	UsersFailed   int

	MembershipsAdded  int
	MembershipsFailed int
}

type Seeder struct {
	store       Store
	dataset     Dataset
	environment string
	policy      retryx.Policy
	logger      logging.Logger
	verify      VerifyFunc
}

// Option customises a Seeder.
type Option func(*Seeder)

// WithVerify checks every newly created account with fn. Failures are
// logged as warnings.
func WithVerify(fn VerifyFunc) Option {
	return func(s *Seeder) { s.verify = fn }
}

func NewSeeder(store Store, dataset Dataset, environment string, policy retryx.Policy, logger logging.Logger, opts ...Option) *Seeder {
	s := &Seeder{
		store:       store,
		dataset:     dataset,
		environment: environment,
		policy:      policy,
		logger:      logger.With("component", "seeder"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Enabled reports whether the configured environment receives seed data.
func (s *Seeder) Enabled() bool {
	return strings.EqualFold(strings.TrimSpace(s.environment), EnvDevelopment)
}

// Seed creates the missing roles, then the missing users with their roles.
//
// Every lookup and write goes through the retry policy. A create or role
// assignment that still fails is logged and skipped; the remaining items
// are still processed. Lookup failures that survive the retry policy
// and cancellation stop the run and are returned.
func (s *Seeder) Seed(ctx context.Context) (*Report, error) {
	report := &Report{}

	if !s.Enabled() {
		s.logger.Info(ctx, "seeding skipped", "environment", s.environment)
		report.Skipped = true
		return report, nil
	}

	s.logger.Info(ctx, "seeding reference data",
		"roles", len(s.dataset.Roles), "users", len(s.dataset.Users))

	if err := s.seedRoles(ctx, report); err != nil {
		s.logger.Error(ctx, "seeding roles failed", "error", err)
		return report, err
	}

	if err := s.seedUsers(ctx, report); err != nil {
		s.logger.Error(ctx, "seeding users failed", "error", err)
		return report, err
	}

	s.logger.Info(ctx, "seeding finished",
		"roles_created", report.RolesCreated,
		"roles_existing", report.RolesExisting,
		"roles_failed", report.RolesFailed,
		"users_created", report.UsersCreated,
		"users_existing", report.UsersExisting,
		"users_failed", report.UsersFailed,
		"memberships_added", report.MembershipsAdded,
		"memberships_failed", report.MembershipsFailed,
	)

	return report, nil
}

func (s *Seeder) seedRoles(ctx context.Context, report *Report) error {
	for _, name := range s.dataset.Roles {
		if err := ctx.Err(); err != nil {
			return err
		}

		exists, err := retryx.DoValue(ctx, s.policy, func(ctx context.Context) (bool, error) {
			return s.store.RoleExists(ctx, name)
		})
		if err != nil {
			return err
		}

		if exists {
			s.logger.Debug(ctx, "role exists", "role", name)
			report.RolesExisting++
			continue
		}

		if _, err := s.createRole(ctx, name); err != nil {
			if isCanceled(err) {
				return err
			}
			s.logger.Warn(ctx, "role not created", "role", name, "error", err)
			report.RolesFailed++
			continue
		}

		s.logger.Info(ctx, "role created", "role", name)
		report.RolesCreated++
	}

	return nil
}

func (s *Seeder) seedUsers(ctx context.Context, report *Report) error {
	for _, seed := range s.dataset.Users {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := retryx.DoValue(ctx, s.policy, func(ctx context.Context) (*models.User, error) {
			return s.store.FindByEmail(ctx, seed.Email)
		})
		switch {
		case err == nil:
			s.logger.Debug(ctx, "user exists", "email", seed.Email)
			report.UsersExisting++
			continue
		case !errors.Is(err, common.ErrorNotFound):
			return err
		}

		if err := s.createUser(ctx, seed, report); err != nil {
			return err
		}
	}

	return nil
}

// createUser creates one account and attaches its roles. Only cancellation
// is returned; everything else is logged and counted.
func (s *Seeder) createUser(ctx context.Context, seed UserSeed, report *Report) error {
	domain := seed.Domain
	user := &models.User{
		UserName:       seed.UserName,
		Email:          seed.Email,
		EmailConfirmed: true,
		Domain:         &domain,
	}

	user, err := s.createAccount(ctx, user, seed.Password)
	if err != nil {
		if isCanceled(err) {
			return err
		}
		s.logger.Warn(ctx, "user not created", "email", seed.Email, "error", err)
		report.UsersFailed++
		return nil
	}

	s.logger.Info(ctx, "user created", "email", seed.Email, "id", user.ID)
	report.UsersCreated++

	for _, role := range seed.Roles {
		err := s.retryWrite(ctx, identity.ErrUserAlreadyInRole, func(ctx context.Context) error {
			return s.store.AddToRole(ctx, user, role)
		})
		if err != nil {
			if isCanceled(err) {
				return err
			}
			s.logger.Warn(ctx, "role not assigned", "email", seed.Email, "role", role, "error", err)
			report.MembershipsFailed++
			continue
		}
		report.MembershipsAdded++
	}

	if s.verify != nil {
		if err := s.verify(ctx, seed.Email, seed.Password); err != nil {
			if isCanceled(err) {
				return err
			}
			s.logger.Warn(ctx, "seeded account cannot sign in", "email", seed.Email, "error", err)
		}
	}

	return nil
}

// retryWrite runs write under the retry policy. When an attempt fails after
// its write was committed, the next attempt reports dup; that counts as
// success.
func (s *Seeder) retryWrite(ctx context.Context, dup error, write func(ctx context.Context) error) error {
	_, err := s.retryWriteRecovered(ctx, dup, write)
	return err
}

// retryWriteRecovered is retryWrite that also reports whether a dup on a
// later attempt was taken as success.
func (s *Seeder) retryWriteRecovered(ctx context.Context, dup error, write func(ctx context.Context) error) (bool, error) {
	attempt := 0
	recovered := false

	err := s.policy.Do(ctx, func(ctx context.Context) error {
		attempt++
		err := write(ctx)
		if attempt > 1 && errors.Is(err, dup) {
			recovered = true
			return nil
		}
		return err
	})
	return recovered, err
}

func (s *Seeder) createRole(ctx context.Context, name string) (*models.Role, error) {
	var role *models.Role
	err := s.retryWrite(ctx, identity.ErrDuplicateRoleName, func(ctx context.Context) error {
		var err error
		role, err = s.store.CreateRole(ctx, name)
		return err
	})
	return role, err
}

// createAccount creates user. If an earlier attempt committed the account
// before failing, the stored account is returned instead.
func (s *Seeder) createAccount(ctx context.Context, user *models.User, password string) (*models.User, error) {
	recovered, err := s.retryWriteRecovered(ctx, identity.ErrDuplicateUserName, func(ctx context.Context) error {
		return s.store.CreateUser(ctx, user, password)
	})
	if err != nil || !recovered {
		return user, err
	}

	return retryx.DoValue(ctx, s.policy, func(ctx context.Context) (*models.User, error) {
		return s.store.FindByEmail(ctx, user.Email)
	})
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
