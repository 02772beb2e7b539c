package schema

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/fullstack-starter/internal/dbx"
	"github.com/pressly/goose/v3"
)

// Creator checks for and creates the target database itself, before any
// connection to it is attempted.
type Creator interface {
	Exists(ctx context.Context) (bool, error)
	Create(ctx context.Context) error
}

// NewCreator returns the Creator for driver.
func NewCreator(driver, dsn, maintenanceDB string) (Creator, error) {
	switch driver {
	case dbx.DriverPostgres:
		return NewPostgresCreator(dsn, maintenanceDB)
	case dbx.DriverSQLite:
		return NewSQLiteCreator(dsn), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

// DialectFor maps a database/sql driver name to its goose dialect.
func DialectFor(driver string) (goose.Dialect, error) {
	switch driver {
	case dbx.DriverPostgres:
		return goose.DialectPostgres, nil
	case dbx.DriverSQLite:
		return goose.DialectSQLite3, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", driver)
}
