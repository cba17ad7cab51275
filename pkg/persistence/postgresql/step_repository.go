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

// StepRepository handles step-related database operations, including the
// position-preserving insert and delete transactions.
type StepRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStepRepository creates a new step repository.
func NewStepRepository(db *sql.DB, logger *slog.Logger) *StepRepository {
	return &StepRepository{db: db, logger: logger}
}

const stepColumns = `id, flow_id, type, position, app_key, key, connection_id, parameters, webhook_path, status, created_at, updated_at`

// CreateAt inserts the step at step.Position inside one transaction: lock
// the flow row, shift every sibling at or above the target position up by
// one, insert. The unique (flow_id, position) constraint is deferred, so
// the shift cannot trip over itself mid-statement.
func (r *StepRepository) CreateAt(ctx context.Context, step *models.Step) error {
	now := time.Now().UTC()

	if step.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate step ID: %w", err)
		}

		step.ID = id.String()
	}

	if step.CreatedAt.IsZero() {
		step.CreatedAt = now
	}

	step.UpdatedAt = now

	if step.Status == "" {
		step.Status = models.StepStatusIncomplete
	}

	parametersJSON, err := marshalParameters(step.Parameters)
	if err != nil {
		return persistence.NewStepError("CreateAt", step.ID, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	if err := lockFlow(ctx, tx, step.FlowID); err != nil {
		return err
	}

	// Re-check the insert invariants under the lock. The caller validated
	// against a snapshot that may be stale by now: a concurrent delete can
	// shrink the flow between that read and this transaction.
	var count int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM steps WHERE flow_id = $1", step.FlowID).Scan(&count); err != nil {
		return persistence.NewStepError("CreateAt", step.ID, err)
	}

	if err := persistence.ValidateInsertAt(step, count); err != nil {
		return err
	}

	shiftQuery := `
		UPDATE steps
		SET position = position + 1, updated_at = $3
		WHERE flow_id = $1 AND position >= $2
	`

	if _, err := tx.ExecContext(ctx, shiftQuery, step.FlowID, step.Position, now); err != nil {
		return persistence.NewStepError("CreateAt", step.ID, err)
	}

	insertQuery := `
		INSERT INTO steps (` + stepColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = tx.ExecContext(ctx, insertQuery,
		step.ID, step.FlowID, step.Type, step.Position,
		step.AppKey, step.Key, step.ConnectionID, parametersJSON,
		step.WebhookPath, step.Status, step.CreatedAt, step.UpdatedAt)
	if err != nil {
		return persistence.NewStepError("CreateAt", step.ID, err)
	}

	return tx.Commit()
}

// GetByID returns the step, or ErrStepNotFound.
func (r *StepRepository) GetByID(ctx context.Context, id string) (*models.Step, error) {
	query := `SELECT ` + stepColumns + ` FROM steps WHERE id = $1`

	step, err := scanStep(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrStepNotFound
		}

		return nil, persistence.NewStepError("GetByID", id, err)
	}

	return step, nil
}

// ListByFlow returns the flow's steps in ascending position order.
func (r *StepRepository) ListByFlow(ctx context.Context, flowID string) ([]*models.Step, error) {
	query := `SELECT ` + stepColumns + ` FROM steps WHERE flow_id = $1 ORDER BY position ASC`

	rows, err := r.db.QueryContext(ctx, query, flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	steps := make([]*models.Step, 0)

	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}

		steps = append(steps, step)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating steps: %w", err)
	}

	return steps, nil
}

// Update persists configuration changes. Position and flow ownership are
// mutated only through CreateAt/Delete, never here.
func (r *StepRepository) Update(ctx context.Context, step *models.Step) error {
	step.UpdatedAt = time.Now().UTC()

	parametersJSON, err := marshalParameters(step.Parameters)
	if err != nil {
		return persistence.NewStepError("Update", step.ID, err)
	}

	query := `
		UPDATE steps
		SET app_key = $2, key = $3, connection_id = $4, parameters = $5,
		    webhook_path = $6, status = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		step.ID, step.AppKey, step.Key, step.ConnectionID,
		parametersJSON, step.WebhookPath, step.Status, step.UpdatedAt)
	if err != nil {
		return persistence.NewStepError("Update", step.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewStepError("Update", step.ID, err)
	}

	if affected == 0 {
		return persistence.ErrStepNotFound
	}

	return nil
}

// Delete removes the step inside one transaction: lock the flow row, delete
// the step (execution steps cascade through the foreign key), then close
// the position gap by decrementing every higher sibling by exactly one.
func (r *StepRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	var (
		flowID   string
		position int
	)

	err = tx.QueryRowContext(ctx, "SELECT flow_id, position FROM steps WHERE id = $1", id).
		Scan(&flowID, &position)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.ErrStepNotFound
		}

		return persistence.NewStepError("Delete", id, err)
	}

	if err := lockFlow(ctx, tx, flowID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM steps WHERE id = $1", id); err != nil {
		return persistence.NewStepError("Delete", id, err)
	}

	compactQuery := `
		UPDATE steps
		SET position = position - 1, updated_at = $3
		WHERE flow_id = $1 AND position > $2
	`

	if _, err := tx.ExecContext(ctx, compactQuery, flowID, position, time.Now().UTC()); err != nil {
		return persistence.NewStepError("Delete", id, err)
	}

	return tx.Commit()
}

// FindByWebhookPath returns the step owning the given webhook path, or
// ErrStepNotFound.
func (r *StepRepository) FindByWebhookPath(ctx context.Context, path string) (*models.Step, error) {
	query := `SELECT ` + stepColumns + ` FROM steps WHERE webhook_path = $1`

	step, err := scanStep(r.db.QueryRowContext(ctx, query, path))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrStepNotFound
		}

		return nil, fmt.Errorf("failed to scan step by webhook path: %w", err)
	}

	return step, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStep(row rowScanner) (*models.Step, error) {
	step := &models.Step{}

	var parametersJSON []byte

	err := row.Scan(
		&step.ID, &step.FlowID, &step.Type, &step.Position,
		&step.AppKey, &step.Key, &step.ConnectionID, &parametersJSON,
		&step.WebhookPath, &step.Status, &step.CreatedAt, &step.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(parametersJSON) > 0 {
		if err := json.Unmarshal(parametersJSON, &step.Parameters); err != nil {
			return nil, fmt.Errorf("failed to unmarshal step parameters: %w", err)
		}
	}

	if step.Parameters == nil {
		step.Parameters = map[string]any{}
	}

	return step, nil
}

func marshalParameters(parameters map[string]any) ([]byte, error) {
	if parameters == nil {
		parameters = map[string]any{}
	}

	data, err := json.Marshal(parameters)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal parameters: %w", err)
	}

	return data, nil
}
