package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stack360co/automatisch/pkg/models"
	"github.com/stack360co/automatisch/pkg/persistence"
)

// FlowRepository handles flow-related database operations.
type FlowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewFlowRepository creates a new flow repository.
func NewFlowRepository(db *sql.DB, logger *slog.Logger) *FlowRepository {
	return &FlowRepository{db: db, logger: logger}
}

// Create inserts a new flow.
func (r *FlowRepository) Create(ctx context.Context, flow *models.Flow) error {
	now := time.Now().UTC()

	if flow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate flow ID: %w", err)
		}

		flow.ID = id.String()
	}

	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = now
	}

	flow.UpdatedAt = now

	query := `
		INSERT INTO flows (id, name, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query, flow.ID, flow.Name, flow.Active, flow.CreatedAt, flow.UpdatedAt)
	if err != nil {
		return persistence.NewFlowError("Create", flow.ID, err)
	}

	return nil
}

// GetByID returns the flow with its steps loaded in ascending position
// order, or ErrFlowNotFound.
func (r *FlowRepository) GetByID(ctx context.Context, id string) (*models.Flow, error) {
	query := `
		SELECT id, name, active, created_at, updated_at
		FROM flows
		WHERE id = $1
	`

	flow := &models.Flow{}

	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&flow.ID, &flow.Name, &flow.Active, &flow.CreatedAt, &flow.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrFlowNotFound
		}

		return nil, persistence.NewFlowError("GetByID", id, err)
	}

	steps, err := NewStepRepository(r.db, r.logger).ListByFlow(ctx, flow.ID)
	if err != nil {
		return nil, persistence.NewFlowError("GetByID", id, err)
	}

	flow.Steps = steps

	return flow, nil
}

// List returns all flows with their steps loaded.
func (r *FlowRepository) List(ctx context.Context) ([]*models.Flow, error) {
	query := `
		SELECT id, name, active, created_at, updated_at
		FROM flows
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query flows: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	flows := make([]*models.Flow, 0)

	for rows.Next() {
		flow := &models.Flow{}

		err := rows.Scan(&flow.ID, &flow.Name, &flow.Active, &flow.CreatedAt, &flow.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flow: %w", err)
		}

		flows = append(flows, flow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flows: %w", err)
	}

	stepRepo := NewStepRepository(r.db, r.logger)

	for _, flow := range flows {
		steps, err := stepRepo.ListByFlow(ctx, flow.ID)
		if err != nil {
			return nil, persistence.NewFlowError("List", flow.ID, err)
		}

		flow.Steps = steps
	}

	return flows, nil
}

// Update persists name and active changes.
func (r *FlowRepository) Update(ctx context.Context, flow *models.Flow) error {
	flow.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE flows
		SET name = $2, active = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, flow.ID, flow.Name, flow.Active, flow.UpdatedAt)
	if err != nil {
		return persistence.NewFlowError("Update", flow.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewFlowError("Update", flow.ID, err)
	}

	if affected == 0 {
		return persistence.ErrFlowNotFound
	}

	return nil
}

// Delete removes the flow. Steps and execution steps go with it through the
// declared foreign-key cascades, all within the delete statement's
// transaction.
func (r *FlowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM flows WHERE id = $1", id)
	if err != nil {
		return persistence.NewFlowError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewFlowError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.ErrFlowNotFound
	}

	return nil
}
