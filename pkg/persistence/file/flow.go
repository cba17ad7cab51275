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

const flowsCollection = "flows"

// flowDocument is the persisted shape of a flow; steps live in their own
// collection, mirroring the relational layout.
type flowDocument struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FlowRepository implements persistence.FlowRepository on files.
type FlowRepository struct {
	store *Persistence
}

func (r *FlowRepository) Create(_ context.Context, flow *models.Flow) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

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

	return writeDocument(r.store, flowsCollection, flow.ID, toFlowDocument(flow))
}

func (r *FlowRepository) GetByID(ctx context.Context, id string) (*models.Flow, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.getByIDLocked(ctx, id)
}

func (r *FlowRepository) getByIDLocked(ctx context.Context, id string) (*models.Flow, error) {
	document, err := readDocument[flowDocument](r.store, flowsCollection, id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.ErrFlowNotFound
		}

		return nil, err
	}

	flow := fromFlowDocument(document)

	steps, err := r.store.stepRepo.listByFlowLocked(ctx, flow.ID)
	if err != nil {
		return nil, err
	}

	flow.Steps = steps

	return flow, nil
}

func (r *FlowRepository) List(ctx context.Context) ([]*models.Flow, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	documents, err := readCollection[flowDocument](r.store, flowsCollection)
	if err != nil {
		return nil, err
	}

	flows := make([]*models.Flow, 0, len(documents))

	for _, document := range documents {
		flow := fromFlowDocument(document)

		steps, err := r.store.stepRepo.listByFlowLocked(ctx, flow.ID)
		if err != nil {
			return nil, err
		}

		flow.Steps = steps
		flows = append(flows, flow)
	}

	sort.Slice(flows, func(i, j int) bool {
		return flows[i].CreatedAt.After(flows[j].CreatedAt)
	})

	return flows, nil
}

func (r *FlowRepository) Update(_ context.Context, flow *models.Flow) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, err := readDocument[flowDocument](r.store, flowsCollection, flow.ID); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return persistence.ErrFlowNotFound
		}

		return err
	}

	flow.UpdatedAt = time.Now().UTC()

	return writeDocument(r.store, flowsCollection, flow.ID, toFlowDocument(flow))
}

// Delete removes the flow, its steps and their execution steps. The cascade
// is explicit here because files have no foreign keys to do it for us.
func (r *FlowRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := deleteDocument(r.store, flowsCollection, id); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return persistence.ErrFlowNotFound
		}

		return err
	}

	steps, err := r.store.stepRepo.listByFlowLocked(ctx, id)
	if err != nil {
		return err
	}

	for _, step := range steps {
		if err := r.store.stepRepo.removeStepLocked(step.ID); err != nil {
			return err
		}
	}

	return nil
}

func toFlowDocument(flow *models.Flow) *flowDocument {
	return &flowDocument{
		ID:        flow.ID,
		Name:      flow.Name,
		Active:    flow.Active,
		CreatedAt: flow.CreatedAt,
		UpdatedAt: flow.UpdatedAt,
	}
}

func fromFlowDocument(document *flowDocument) *models.Flow {
	return &models.Flow{
		ID:        document.ID,
		Name:      document.Name,
		Active:    document.Active,
		CreatedAt: document.CreatedAt,
		UpdatedAt: document.UpdatedAt,
	}
}
