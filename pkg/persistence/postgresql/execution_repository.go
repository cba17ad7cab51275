package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stack360co/automatisch/pkg/models"
	"github.com/stack360co/automatisch/pkg/persistence"
)

// ExecutionRepository handles execution and execution-step records.
// Execution steps are insert-only; there is no update path.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

func (r *ExecutionRepository) CreateExecution(ctx context.Context, execution *models.Execution) error {
	if execution.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate execution ID: %w", err)
		}

		execution.ID = id.String()
	}

	if execution.CreatedAt.IsZero() {
		execution.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO executions (id, flow_id, test_run, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		execution.ID, execution.FlowID, execution.TestRun, execution.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert execution: %w", err)
	}

	return nil
}

func (r *ExecutionRepository) GetExecution(ctx context.Context, id string) (*models.Execution, error) {
	query := `SELECT id, flow_id, test_run, created_at FROM executions WHERE id = $1`

	execution := &models.Execution{}

	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&execution.ID, &execution.FlowID, &execution.TestRun, &execution.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	return execution, nil
}

func (r *ExecutionRepository) CreateExecutionStep(ctx context.Context, executionStep *models.ExecutionStep) error {
	if executionStep.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate execution step ID: %w", err)
		}

		executionStep.ID = id.String()
	}

	if executionStep.CreatedAt.IsZero() {
		executionStep.CreatedAt = time.Now().UTC()
	}

	dataIn, err := json.Marshal(executionStep.DataIn)
	if err != nil {
		return fmt.Errorf("failed to marshal data_in: %w", err)
	}

	dataOut, err := json.Marshal(executionStep.DataOut)
	if err != nil {
		return fmt.Errorf("failed to marshal data_out: %w", err)
	}

	errorDetails, err := json.Marshal(executionStep.ErrorDetails)
	if err != nil {
		return fmt.Errorf("failed to marshal error_details: %w", err)
	}

	query := `
		INSERT INTO execution_steps (id, execution_id, step_id, status, data_in, data_out, error_details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.ExecContext(ctx, query,
		executionStep.ID, executionStep.ExecutionID, executionStep.StepID, executionStep.Status,
		dataIn, dataOut, errorDetails, executionStep.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert execution step: %w", err)
	}

	return nil
}

func (r *ExecutionRepository) ListExecutionSteps(ctx context.Context, executionID string) ([]*models.ExecutionStep, error) {
	query := `
		SELECT id, execution_id, step_id, status, data_in, data_out, error_details, created_at
		FROM execution_steps
		WHERE execution_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution steps: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	executionSteps := make([]*models.ExecutionStep, 0)

	for rows.Next() {
		executionStep, err := scanExecutionStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution step: %w", err)
		}

		executionSteps = append(executionSteps, executionStep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating execution steps: %w", err)
	}

	return executionSteps, nil
}

// LastExecutionStepByStepID returns the newest record for the step, ties
// broken by highest ID.
func (r *ExecutionRepository) LastExecutionStepByStepID(ctx context.Context, stepID string) (*models.ExecutionStep, error) {
	query := `
		SELECT id, execution_id, step_id, status, data_in, data_out, error_details, created_at
		FROM execution_steps
		WHERE step_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	executionStep, err := scanExecutionStep(r.db.QueryRowContext(ctx, query, stepID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrExecutionStepNotFound
		}

		return nil, fmt.Errorf("failed to scan execution step: %w", err)
	}

	return executionStep, nil
}

func scanExecutionStep(row rowScanner) (*models.ExecutionStep, error) {
	executionStep := &models.ExecutionStep{}

	var dataIn, dataOut, errorDetails []byte

	err := row.Scan(
		&executionStep.ID, &executionStep.ExecutionID, &executionStep.StepID, &executionStep.Status,
		&dataIn, &dataOut, &errorDetails, &executionStep.CreatedAt)
	if err != nil {
		return nil, err
	}

	for _, field := range []struct {
		raw    []byte
		target *map[string]any
	}{
		{dataIn, &executionStep.DataIn},
		{dataOut, &executionStep.DataOut},
		{errorDetails, &executionStep.ErrorDetails},
	} {
		if len(field.raw) == 0 || string(field.raw) == "null" {
			continue
		}

		if err := json.Unmarshal(field.raw, field.target); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution step payload: %w", err)
		}
	}

	return executionStep, nil
}
