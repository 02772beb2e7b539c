package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/fullstack-starter/internal/dbx"
	"github.com/dmitrijs2005/fullstack-starter/internal/filex"
)

// SQLiteCreator creates the database file named in a SQLite DSN. In-memory
// databases always exist.
type SQLiteCreator struct {
	dsn string
}

func NewSQLiteCreator(dsn string) *SQLiteCreator {
	return &SQLiteCreator{dsn: dsn}
}

// Path returns the database file path, or "" for in-memory databases.
func (c *SQLiteCreator) Path() string {
	if dbx.IsSQLiteMemory(c.dsn) {
		return ""
	}
	p := strings.TrimPrefix(c.dsn, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return p
}

func (c *SQLiteCreator) Exists(_ context.Context) (bool, error) {
	path := c.Path()
	if path == "" {
		return true, nil
	}
	return filex.Exists(path)
}

func (c *SQLiteCreator) Create(_ context.Context) error {
	path := c.Path()
	if path == "" {
		return nil
	}
	if err := filex.Touch(path); err != nil {
		return fmt.Errorf("create database file: %w", err)
	}
	return nil
}
