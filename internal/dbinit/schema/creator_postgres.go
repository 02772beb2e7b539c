package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultMaintenanceDB is the database PostgresCreator connects to while the
// target database may not exist yet.
const DefaultMaintenanceDB = "postgres"

type pgConn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close(ctx context.Context) error
}

// connectPostgres is a seam for tests.
var connectPostgres = func(ctx context.Context, cfg *pgx.ConnConfig) (pgConn, error) {
	return pgx.ConnectConfig(ctx, cfg)
}

// PostgresCreator creates the database named in a PostgreSQL DSN by
// connecting to a maintenance database with the same credentials.
type PostgresCreator struct {
	config        *pgx.ConnConfig
	database      string
	maintenanceDB string
}

func NewPostgresCreator(dsn, maintenanceDB string) (*PostgresCreator, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.Database == "" {
		return nil, errors.New("dsn does not name a database")
	}
	if maintenanceDB == "" {
		maintenanceDB = DefaultMaintenanceDB
	}

	return &PostgresCreator{config: cfg, database: cfg.Database, maintenanceDB: maintenanceDB}, nil
}

// Database returns the name of the target database.
func (c *PostgresCreator) Database() string {
	return c.database
}

func (c *PostgresCreator) connect(ctx context.Context) (pgConn, error) {
	cfg := c.config.Copy()
	cfg.Database = c.maintenanceDB
	return connectPostgres(ctx, cfg)
}

func (c *PostgresCreator) Exists(ctx context.Context) (bool, error) {
	conn, err := c.connect(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close(ctx)

	var one int
	err = conn.QueryRow(ctx, `SELECT 1 FROM pg_database WHERE datname = $1`, c.database).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}

	return true, nil
}

func (c *PostgresCreator) Create(ctx context.Context) error {
	conn, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, `CREATE DATABASE `+pgx.Identifier{c.database}.Sanitize())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "42P04" { // duplicate_database
			return nil
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
