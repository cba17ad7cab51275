package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/stack360co/automatisch/pkg/models"
	"github.com/stack360co/automatisch/pkg/persistence"
)

const (
	executionsCollection     = "executions"
	executionStepsCollection = "execution_steps"
)

// ExecutionRepository implements persistence.ExecutionRepository on files.
type ExecutionRepository struct {
	store *Persistence
}

func (r *ExecutionRepository) CreateExecution(_ context.Context, execution *models.Execution) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

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

	return writeDocument(r.store, executionsCollection, execution.ID, execution)
}

func (r *ExecutionRepository) GetExecution(_ context.Context, id string) (*models.Execution, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	execution, err := readDocument[models.Execution](r.store, executionsCollection, id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, err
	}

	return execution, nil
}

func (r *ExecutionRepository) CreateExecutionStep(_ context.Context, executionStep *models.ExecutionStep) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

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

	return writeDocument(r.store, executionStepsCollection, executionStep.ID, executionStep)
}

func (r *ExecutionRepository) ListExecutionSteps(_ context.Context, executionID string) ([]*models.ExecutionStep, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	all, err := readCollection[models.ExecutionStep](r.store, executionStepsCollection)
	if err != nil {
		return nil, err
	}

	executionSteps := make([]*models.ExecutionStep, 0)

	for _, executionStep := range all {
		if executionStep.ExecutionID == executionID {
			executionSteps = append(executionSteps, executionStep)
		}
	}

	sortExecutionSteps(executionSteps)

	return executionSteps, nil
}

func (r *ExecutionRepository) LastExecutionStepByStepID(_ context.Context, stepID string) (*models.ExecutionStep, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	all, err := readCollection[models.ExecutionStep](r.store, executionStepsCollection)
	if err != nil {
		return nil, err
	}

	matching := make([]*models.ExecutionStep, 0)

	for _, executionStep := range all {
		if executionStep.StepID == stepID {
			matching = append(matching, executionStep)
		}
	}

	if len(matching) == 0 {
		return nil, persistence.ErrExecutionStepNotFound
	}

	sortExecutionSteps(matching)

	return matching[len(matching)-1], nil
}

// sortExecutionSteps orders by created_at ascending with ID as tiebreaker;
// IDs are UUIDv7, so the tiebreak follows insertion order.
func sortExecutionSteps(executionSteps []*models.ExecutionStep) {
	sort.Slice(executionSteps, func(i, j int) bool {
		if executionSteps[i].CreatedAt.Equal(executionSteps[j].CreatedAt) {
			return executionSteps[i].ID < executionSteps[j].ID
		}

		return executionSteps[i].CreatedAt.Before(executionSteps[j].CreatedAt)
	})
}
