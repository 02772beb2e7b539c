// Package repomanager vends repository implementations bound to a DBTX, so
// callers can switch between a pool and a transaction without knowing the
// concrete repository types.
package repomanager

import (
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/repositories/roles"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/repositories/userroles"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/repositories/users"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbx"
)

type RepositoryManager interface {
	Roles(db dbx.DBTX) roles.Repository
	Users(db dbx.DBTX) users.Repository
	UserRoles(db dbx.DBTX) userroles.Repository
}

// SQLRepositoryManager vends the SQL repositories shared by the PostgreSQL
// and SQLite drivers.
type SQLRepositoryManager struct{}

// Roles returns a roles.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Roles(db dbx.DBTX) roles.Repository {
	return roles.NewSQLRepository(db)
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db)
}

// UserRoles returns a userroles.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) UserRoles(db dbx.DBTX) userroles.Repository {
	return userroles.NewSQLRepository(db)
}

// NewSQLRepositoryManager constructs the SQL-backed RepositoryManager.
func NewSQLRepositoryManager() RepositoryManager {
	return &SQLRepositoryManager{}
}
