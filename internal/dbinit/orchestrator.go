package dbinit

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dmitrijs2005/fullstack-starter/internal/dbinit/seed"
	"github.com/dmitrijs2005/fullstack-starter/internal/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Phase is the bootstrap progress.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseEnsureSchema
	PhaseApplyMigrations
	PhaseSeedData
	PhaseStopped
	PhaseFaulted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseEnsureSchema:
		return "EnsureSchema"
	case PhaseApplyMigrations:
		return "ApplyMigrations"
	case PhaseSeedData:
		return "SeedData"
	case PhaseStopped:
		return "Stopped"
	case PhaseFaulted:
		return "Faulted"
	}
	return fmt.Sprintf("Phase(%d)", int32(p))
}

// ErrAlreadyStarted is returned by a second call to Orchestrator.Run.
var ErrAlreadyStarted = errors.New("bootstrap already started")

// SchemaApplier prepares the database and its schema.
type SchemaApplier interface {
	EnsureDatabase(ctx context.Context) error
	ApplyMigrations(ctx context.Context) error
}

// Seeder writes reference data into a migrated database.
type Seeder interface {
	Seed(ctx context.Context) (*seed.Report, error)
}

// Orchestrator runs the bootstrap phases once, in order, and stops at the
// first failure.
type Orchestrator struct {
	name   string
	schema SchemaApplier
	seeder Seeder
	tracer trace.Tracer
	logger logging.Logger
	phase  atomic.Int32
}

func NewOrchestrator(name string, schema SchemaApplier, seeder Seeder, tracer trace.Tracer, logger logging.Logger) *Orchestrator {
	return &Orchestrator{
		name:   name,
		schema: schema,
		seeder: seeder,
		tracer: tracer,
		logger: logger,
	}
}

// Phase returns the current phase. Safe for concurrent use.
func (o *Orchestrator) Phase() Phase {
	return Phase(o.phase.Load())
}

func (o *Orchestrator) enter(ctx context.Context, p Phase) {
	o.phase.Store(int32(p))
	trace.SpanFromContext(ctx).AddEvent("phase", trace.WithAttributes(attribute.String("phase", p.String())))
	o.logger.Debug(ctx, "bootstrap phase", "phase", p.String())
}

// Run executes EnsureSchema, ApplyMigrations and SeedData inside one span.
// On failure the phase becomes Faulted, the error is recorded on the span
// and returned. On success the phase becomes Stopped.
func (o *Orchestrator) Run(ctx context.Context) (err error) {
	if !o.phase.CompareAndSwap(int32(PhaseIdle), int32(PhaseEnsureSchema)) {
		return ErrAlreadyStarted
	}

	ctx, span := o.tracer.Start(ctx, o.name)
	defer span.End()

	defer func() {
		if err == nil {
			return
		}
		failed := o.Phase()
		o.phase.Store(int32(PhaseFaulted))
		span.SetAttributes(attribute.String("bootstrap.failed_phase", failed.String()))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.Error(ctx, "database bootstrap failed", "phase", failed.String(), "error", err)
	}()

	o.enter(ctx, PhaseEnsureSchema)
	if err := o.schema.EnsureDatabase(ctx); err != nil {
		return fmt.Errorf("ensure database: %w", err)
	}

	o.enter(ctx, PhaseApplyMigrations)
	if err := o.schema.ApplyMigrations(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	o.enter(ctx, PhaseSeedData)
	report, err := o.seeder.Seed(ctx)
	if err != nil {
		return fmt.Errorf("seed data: %w", err)
	}
	if report != nil {
		span.SetAttributes(
			attribute.Bool("seed.skipped", report.Skipped),
			attribute.Int("seed.roles_created", report.RolesCreated),
			attribute.Int("seed.users_created", report.UsersCreated),
		)
	}

	o.enter(ctx, PhaseStopped)
	o.logger.Info(ctx, "database bootstrap finished")
	return nil
}
