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

const stepsCollection = "steps"

// StepRepository implements persistence.StepRepository on files. The
// store-wide mutex stands in for the SQL backend's per-flow row lock: all
// structural edits in this process are serialized, so position shifts never
// read a stale snapshot.
type StepRepository struct {
	store *Persistence
}

// CreateAt inserts the step at step.Position, shifting every sibling at or
// above that position up by one, then writing the new step.
func (r *StepRepository) CreateAt(ctx context.Context, step *models.Step) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, err := readDocument[flowDocument](r.store, flowsCollection, step.FlowID); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return persistence.ErrFlowNotFound
		}

		return err
	}

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

	if step.Parameters == nil {
		step.Parameters = map[string]any{}
	}

	siblings, err := r.listByFlowLocked(ctx, step.FlowID)
	if err != nil {
		return err
	}

	// The caller validated against a snapshot that may be stale by now; a
	// concurrent delete can shrink the flow in between. Re-check under the
	// mutex against the current siblings.
	if err := persistence.ValidateInsertAt(step, len(siblings)); err != nil {
		return err
	}

	for _, sibling := range siblings {
		if sibling.Position < step.Position {
			continue
		}

		sibling.Position++
		sibling.UpdatedAt = now

		if err := writeDocument(r.store, stepsCollection, sibling.ID, sibling); err != nil {
			return err
		}
	}

	return writeDocument(r.store, stepsCollection, step.ID, step)
}

func (r *StepRepository) GetByID(_ context.Context, id string) (*models.Step, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	step, err := readDocument[models.Step](r.store, stepsCollection, id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.ErrStepNotFound
		}

		return nil, err
	}

	return step, nil
}

func (r *StepRepository) ListByFlow(ctx context.Context, flowID string) ([]*models.Step, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.listByFlowLocked(ctx, flowID)
}

func (r *StepRepository) listByFlowLocked(_ context.Context, flowID string) ([]*models.Step, error) {
	all, err := readCollection[models.Step](r.store, stepsCollection)
	if err != nil {
		return nil, err
	}

	steps := make([]*models.Step, 0)

	for _, step := range all {
		if step.FlowID == flowID {
			steps = append(steps, step)
		}
	}

	sort.Slice(steps, func(i, j int) bool { return steps[i].Position < steps[j].Position })

	return steps, nil
}

func (r *StepRepository) Update(_ context.Context, step *models.Step) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, err := readDocument[models.Step](r.store, stepsCollection, step.ID)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return persistence.ErrStepNotFound
		}

		return err
	}

	// Position and ownership only move through CreateAt/Delete.
	step.FlowID = existing.FlowID
	step.Position = existing.Position
	step.UpdatedAt = time.Now().UTC()

	return writeDocument(r.store, stepsCollection, step.ID, step)
}

// Delete removes the step and its execution steps, then compacts sibling
// positions. The mutex makes the read-shift-write sequence atomic within
// the owning process.
func (r *StepRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	step, err := readDocument[models.Step](r.store, stepsCollection, id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return persistence.ErrStepNotFound
		}

		return err
	}

	if err := r.removeStepLocked(id); err != nil {
		return err
	}

	siblings, err := r.listByFlowLocked(ctx, step.FlowID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	for _, sibling := range siblings {
		if sibling.Position <= step.Position {
			continue
		}

		sibling.Position--
		sibling.UpdatedAt = now

		if err := writeDocument(r.store, stepsCollection, sibling.ID, sibling); err != nil {
			return err
		}
	}

	return nil
}

// removeStepLocked deletes the step document and cascades its execution
// steps. Callers hold the store mutex.
func (r *StepRepository) removeStepLocked(id string) error {
	if err := deleteDocument(r.store, stepsCollection, id); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	executionSteps, err := readCollection[models.ExecutionStep](r.store, executionStepsCollection)
	if err != nil {
		return err
	}

	for _, executionStep := range executionSteps {
		if executionStep.StepID != id {
			continue
		}

		if err := deleteDocument(r.store, executionStepsCollection, executionStep.ID); err != nil &&
			!errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	return nil
}

func (r *StepRepository) FindByWebhookPath(_ context.Context, path string) (*models.Step, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	steps, err := readCollection[models.Step](r.store, stepsCollection)
	if err != nil {
		return nil, err
	}

	for _, step := range steps {
		if step.WebhookPath != nil && *step.WebhookPath == path {
			return step, nil
		}
	}

	return nil, persistence.ErrStepNotFound
}
