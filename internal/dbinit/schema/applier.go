// Package schema brings the database to the latest schema: it creates the
// database when missing and applies pending goose migrations in ascending
// version order, each inside its own transaction.
package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/fullstack-starter/internal/logging"
	"github.com/dmitrijs2005/fullstack-starter/internal/retryx"
	"github.com/pressly/goose/v3"
)

type migrationProvider interface {
	Status(ctx context.Context) ([]*goose.MigrationStatus, error)
	Up(ctx context.Context) ([]*goose.MigrationResult, error)
}

// newProvider is a seam for tests.
var newProvider = func(dialect goose.Dialect, db *sql.DB, fsys fs.FS, opts ...goose.ProviderOption) (migrationProvider, error) {
	return goose.NewProvider(dialect, db, fsys, opts...)
}

type Applier struct {
	db      *sql.DB
	dialect goose.Dialect
	fsys    fs.FS
	creator Creator
	policy  retryx.Policy
	logger  logging.Logger
}

func NewApplier(db *sql.DB, dialect goose.Dialect, fsys fs.FS, creator Creator, policy retryx.Policy, logger logging.Logger) *Applier {
	return &Applier{
		db:      db,
		dialect: dialect,
		fsys:    fsys,
		creator: creator,
		policy:  policy,
		logger:  logger.With("component", "schema"),
	}
}

// EnsureDatabase creates the target database if it does not exist.
func (a *Applier) EnsureDatabase(ctx context.Context) error {
	return a.policy.Do(ctx, func(ctx context.Context) error {
		exists, err := a.creator.Exists(ctx)
		if err != nil {
			return fmt.Errorf("check database: %w", err)
		}

		if exists {
			a.logger.Info(ctx, "database exists")
			return nil
		}

		if err := a.creator.Create(ctx); err != nil {
			return fmt.Errorf("create database: %w", err)
		}

		a.logger.Info(ctx, "database created")
		return nil
	})
}

// ApplyMigrations applies every pending migration in ascending version
// order. Each migration runs in its own transaction rather than one
// transaction around the whole batch: a failing migration is rolled back,
// the ones before it stay committed and the ones after it are not attempted.
func (a *Applier) ApplyMigrations(ctx context.Context) error {
	p, err := newProvider(a.dialect, a.db, a.fsys,
		goose.WithLogger(gooseLogger{l: a.logger}),
		goose.WithVerbose(true),
		goose.WithDisableGlobalRegistry(true),
	)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}

	pending, err := retryx.DoValue(ctx, a.policy, func(ctx context.Context) ([]int64, error) {
		return pendingVersions(ctx, p)
	})
	if err != nil {
		return fmt.Errorf("list pending migrations: %w", err)
	}

	if len(pending) == 0 {
		a.logger.Info(ctx, "database schema is up to date")
		return nil
	}

	a.logger.Info(ctx, "applying migrations", "pending", pending)

	err = a.policy.Do(ctx, func(ctx context.Context) error {
		results, err := p.Up(ctx)
		var partial *goose.PartialError
		if errors.As(err, &partial) {
			results = partial.Applied
		}
		a.logResults(ctx, results)
		return err
	})
	if err != nil {
		var partial *goose.PartialError
		if errors.As(err, &partial) {
			a.logger.Error(ctx, "migration failed",
				"version", partial.Failed.Source.Version,
				"path", partial.Failed.Source.Path,
				"error", partial.Err)
			return fmt.Errorf("apply migration %d: %w", partial.Failed.Source.Version, partial.Err)
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func (a *Applier) logResults(ctx context.Context, results []*goose.MigrationResult) {
	for _, r := range results {
		a.logger.Info(ctx, "migration applied",
			"version", r.Source.Version,
			"path", r.Source.Path,
			"duration", r.Duration)
	}
}

func pendingVersions(ctx context.Context, p migrationProvider) ([]int64, error) {
	statuses, err := p.Status(ctx)
	if err != nil {
		return nil, err
	}

	pending := make([]int64, 0, len(statuses))
	for _, s := range statuses {
		if s.State == goose.StatePending {
			pending = append(pending, s.Source.Version)
		}
	}
	return pending, nil
}
