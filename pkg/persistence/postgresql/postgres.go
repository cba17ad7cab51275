// Package postgresql provides PostgreSQL-backed persistence for flows,
// steps, executions and connections.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/stack360co/automatisch/pkg/persistence"
	"github.com/stack360co/automatisch/pkg/persistence/sqlbase"
)

// Persistence implements persistence.Persistence backed by PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger

	flowRepo       *FlowRepository
	stepRepo       *StepRepository
	executionRepo  *ExecutionRepository
	connectionRepo *ConnectionRepository
}

// NewPersistence opens a connection pool, runs migrations and returns the
// ready persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	manager := sqlbase.NewMigrationManager(logger, db, migrations())
	if err := manager.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:             db,
		logger:         logger,
		flowRepo:       NewFlowRepository(db, logger),
		stepRepo:       NewStepRepository(db, logger),
		executionRepo:  NewExecutionRepository(db, logger),
		connectionRepo: NewConnectionRepository(db, logger),
	}, nil
}

func (p *Persistence) Flows() persistence.FlowRepository {
	return p.flowRepo
}

func (p *Persistence) Steps() persistence.StepRepository {
	return p.stepRepo
}

func (p *Persistence) Executions() persistence.ExecutionRepository {
	return p.executionRepo
}

func (p *Persistence) Connections() persistence.ConnectionRepository {
	return p.connectionRepo
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Persistence) Close(_ context.Context) error {
	return p.db.Close()
}

// lockFlow takes a row lock on the flow inside tx, serializing structural
// edits per flow. A held lock or a missing flow surfaces immediately.
func lockFlow(ctx context.Context, tx *sql.Tx, flowID string) error {
	var id string

	err := tx.QueryRowContext(ctx, "SELECT id FROM flows WHERE id = $1 FOR UPDATE NOWAIT", flowID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.ErrFlowNotFound
		}

		if isLockConflict(err) {
			return persistence.ErrConcurrentFlowEdit
		}

		return fmt.Errorf("failed to lock flow: %w", err)
	}

	return nil
}

// isLockConflict matches lock_not_available and serialization_failure,
// both retryable from the caller's point of view.
func isLockConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	return pqErr.Code == "55P03" || pqErr.Code == "40001"
}
