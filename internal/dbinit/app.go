// Package dbinit bootstraps the application database: it makes sure the
// database exists, applies pending schema migrations and, in development,
// seeds the default roles and accounts, then stops.
package dbinit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/auth"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/config"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/identity"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/migrations"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/repositories/repomanager"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/schema"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/seed"
	"github.com/dmitrijs2005/fullstack-starter/internal/dbx"
	"github.com/dmitrijs2005/fullstack-starter/internal/logging"
	"github.com/dmitrijs2005/fullstack-starter/internal/retryx"
	"github.com/dmitrijs2005/fullstack-starter/internal/telemetry"
	"go.uber.org/multierr"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config          *config.Config
	logger          logging.Logger
	syncLogger      func() error
	db              *sql.DB
	identity        *identity.Manager
	orchestrator    *Orchestrator
	shutdownTracing func(context.Context) error
}

// NewApp wires the bootstrap job from c. Nothing touches the database until
// Run is called.
func NewApp(c *config.Config) (*App, error) {
	logger, syncLogger, err := logging.New(logging.Options{
		Backend:    c.LogBackend,
		Level:      c.LogLevel,
		Production: c.IsProduction(),
	})
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}
	logger = logger.With("service", c.ServiceName, "environment", c.Environment)

	app := &App{config: c, logger: logger, syncLogger: syncLogger}

	if err := app.init(); err != nil {
		_ = app.close()
		return nil, err
	}

	return app, nil
}

func (app *App) init() error {
	c := app.config
	ctx := context.Background()

	tracer, shutdown, err := telemetry.Setup(ctx, c.ServiceName, c.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("tracing init error: %w", err)
	}
	app.shutdownTracing = shutdown

	dialect, err := schema.DialectFor(c.DatabaseDriver)
	if err != nil {
		return err
	}

	creator, err := schema.NewCreator(c.DatabaseDriver, c.DatabaseDSN, c.MaintenanceDB)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}

	db, err := dbx.Open(c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	dataset := seed.DefaultDataset()
	if c.SeedFile != "" {
		dataset, err = seed.LoadFile(c.SeedFile)
		if err != nil {
			return fmt.Errorf("seed dataset: %w", err)
		}
	}

	policy := app.retryPolicy()

	app.identity = identity.NewManager(db, repomanager.NewSQLRepositoryManager(), identity.DefaultOptions())

	var opts []seed.Option
	if c.VerifySeedLogins {
		opts = append(opts, seed.WithVerify(app.verifyLogin))
	}

	applier := schema.NewApplier(db, dialect, migrations.Migrations, creator, policy, app.logger)
	seeder := seed.NewSeeder(app.identity, dataset, c.Environment, policy, app.logger, opts...)

	app.orchestrator = NewOrchestrator(c.ServiceName, applier, seeder, tracer, app.logger)

	return nil
}

func (app *App) retryPolicy() retryx.Policy {
	return retryx.Policy{
		MaxAttempts:   app.config.RetryMaxAttempts,
		BaseDelay:     app.config.RetryBaseDelay,
		MaxDelay:      app.config.RetryMaxDelay,
		JitterPercent: 10,
		Retryable:     dbx.IsTransient,
		OnRetry: func(ctx context.Context, attempt int, err error) {
			app.logger.Warn(ctx, "transient database error, retrying", "attempt", attempt, "error", err)
		},
	}
}

// verifyLogin signs in with a seeded account and round-trips an access
// token for it.
func (app *App) verifyLogin(ctx context.Context, email, password string) error {
	user, roles, err := app.identity.Authenticate(ctx, email, password)
	if err != nil {
		return err
	}

	secret := []byte(app.config.SecretKey)
	token, err := auth.GenerateToken(auth.NewPrincipal(user, roles), secret, app.config.AccessTokenValidityDuration)
	if err != nil {
		return err
	}

	if _, err := auth.ParseToken(token, secret); err != nil {
		return err
	}
	return nil
}

// Phase reports how far the bootstrap got.
func (app *App) Phase() Phase {
	return app.orchestrator.Phase()
}

// initSignalHandler cancels the run on SIGINT, SIGTERM or SIGQUIT. The
// returned func stops listening.
func (app *App) initSignalHandler(cancelFunc context.CancelFunc) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})

	go func() {
		select {
		case <-sigs:
			cancelFunc()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// Run performs the bootstrap and releases every resource held by the app.
// It returns nil only when all phases completed.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting database bootstrap...", "driver", app.config.DatabaseDriver)

	stopSignals := app.initSignalHandler(cancelFunc)
	defer stopSignals()

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		// the job stops itself once every phase is done
		defer cancelFunc()
		runErr = app.orchestrator.Run(ctx)
	}()

	wg.Wait()

	return multierr.Append(runErr, app.close())
}

func (app *App) close() error {
	var err error

	if app.db != nil {
		err = multierr.Append(err, app.db.Close())
	}

	if app.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = multierr.Append(err, app.shutdownTracing(ctx))
	}

	// stdout/stderr cannot always be fsynced
	_ = app.syncLogger()

	return err
}
