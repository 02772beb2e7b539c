package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/fullstack-starter/internal/common"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/migrations"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/models"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/repositories/repomanager"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/repositories/roles"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/repositories/userroles"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/repositories/users"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbx"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newMigratedDB(t *testing.T) *sql.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := dbx.Open(dbx.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	require.NoError(t, err)
	_, err = p.Up(context.Background())
	require.NoError(t, err)

	return db
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	opts := DefaultOptions()
	opts.HashCost = bcrypt.MinCost
	return NewManager(newMigratedDB(t), repomanager.NewSQLRepositoryManager(), opts)
}

func newUser(email string) *models.User {
	domain := "development"
	return &models.User{UserName: email, Email: email, EmailConfirmed: true, Domain: &domain}
}

func TestRoles_CreateAndExists(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	ok, err := m.RoleExists(ctx, "Developer")
	require.NoError(t, err)
	assert.False(t, ok)

	role, err := m.CreateRole(ctx, "Developer")
	require.NoError(t, err)
	assert.Equal(t, "DEVELOPER", role.NormalizedName)
	assert.NotEmpty(t, role.ID)
	assert.NotEmpty(t, role.ConcurrencyStamp)

	ok, err = m.RoleExists(ctx, "developer")
	require.NoError(t, err)
	assert.True(t, ok, "lookup is by normalized name")

	_, err = m.CreateRole(ctx, "DEVELOPER")
	require.ErrorIs(t, err, ErrDuplicateRoleName)

	_, err = m.CreateRole(ctx, "  ")
	require.ErrorIs(t, err, ErrInvalidRoleName)
}

func TestCreateUser_StoresHashedAndNormalized(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	u := newUser("dev@my-company.dev")
	require.NoError(t, m.CreateUser(ctx, u, "Dev123!"))

	got, err := m.FindByEmail(ctx, "DEV@my-company.dev")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "DEV@MY-COMPANY.DEV", got.NormalizedUserName)
	assert.Equal(t, "DEV@MY-COMPANY.DEV", got.NormalizedEmail)
	assert.True(t, got.EmailConfirmed)
	assert.Equal(t, "development", got.DomainOrEmpty())
	assert.NotEqual(t, "Dev123!", got.PasswordHash)
	assert.NotEmpty(t, got.SecurityStamp)
	assert.NotEmpty(t, got.ConcurrencyStamp)

	assert.True(t, m.CheckPassword(got, "Dev123!"))
	assert.False(t, m.CheckPassword(got, "dev123!"))
}

func TestCreateUser_RejectsDuplicates(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.CreateUser(ctx, newUser("qa@my-company.dev"), "QA123!"))

	err := m.CreateUser(ctx, newUser("QA@my-company.dev"), "QA123!")
	require.ErrorIs(t, err, ErrDuplicateUserName)

	other := newUser("qa@my-company.dev")
	other.UserName = "qa-second"
	err = m.CreateUser(ctx, other, "QA123!")
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestCreateUser_ReportsAllValidationErrors(t *testing.T) {
	m := newTestManager(t)

	u := newUser("not an email")
	err := m.CreateUser(context.Background(), u, "weak")
	require.Error(t, err)
	assert.Equal(t,
		[]string{"InvalidUserName", "InvalidEmail", "PasswordTooShort", "PasswordRequiresNonAlphanumeric", "PasswordRequiresDigit", "PasswordRequiresUpper"},
		Codes(err))

	_, err = m.FindByEmail(context.Background(), "not an email")
	require.ErrorIs(t, err, common.ErrorNotFound, "nothing is written on validation failure")
}

func TestAddToRole(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.CreateRole(ctx, "Viewer")
	require.NoError(t, err)

	u := newUser("viewer@my-company.dev")
	require.NoError(t, m.CreateUser(ctx, u, "View123!"))

	require.NoError(t, m.AddToRole(ctx, u, "viewer"))
	require.ErrorIs(t, m.AddToRole(ctx, u, "Viewer"), ErrUserAlreadyInRole)
	require.ErrorIs(t, m.AddToRole(ctx, u, "Ghost"), ErrRoleNotFound)

	names, err := m.RolesOf(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, []string{"Viewer"}, names)
}

func TestAuthenticate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.CreateRole(ctx, "Administrator")
	require.NoError(t, err)
	u := newUser("admin@my-company.dev")
	require.NoError(t, m.CreateUser(ctx, u, "Admin123!"))
	require.NoError(t, m.AddToRole(ctx, u, "Administrator"))

	got, roleNames, err := m.Authenticate(ctx, "admin@my-company.dev", "Admin123!")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, []string{"Administrator"}, roleNames)

	_, _, err = m.Authenticate(ctx, "admin@my-company.dev", "wrong")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	_, _, err = m.Authenticate(ctx, "ghost@my-company.dev", "Admin123!")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

// failingRepos lets individual repository calls fail while the rest of the
// manager runs against a real database.
type failingRepos struct {
	repomanager.RepositoryManager
	roleLookupErr error
}

type failingRoles struct {
	roles.Repository
	err error
}

func (f failingRoles) GetByNormalizedName(context.Context, string) (*models.Role, error) {
	return nil, f.err
}

func (f failingRepos) Roles(db dbx.DBTX) roles.Repository {
	return failingRoles{Repository: f.RepositoryManager.Roles(db), err: f.roleLookupErr}
}

func (f failingRepos) Users(db dbx.DBTX) users.Repository {
	return f.RepositoryManager.Users(db)
}

func (f failingRepos) UserRoles(db dbx.DBTX) userroles.Repository {
	return f.RepositoryManager.UserRoles(db)
}

func TestRoleExists_PropagatesStoreErrors(t *testing.T) {
	boom := errors.New("connection reset")
	rm := failingRepos{RepositoryManager: repomanager.NewSQLRepositoryManager(), roleLookupErr: boom}
	m := NewManager(newMigratedDB(t), rm, DefaultOptions())

	_, err := m.RoleExists(context.Background(), "Viewer")
	require.ErrorIs(t, err, boom)

	_, err = m.CreateRole(context.Background(), "Viewer")
	require.ErrorIs(t, err, boom)
}
