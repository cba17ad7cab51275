package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/stack360co/automatisch/pkg/models"
	"github.com/stack360co/automatisch/pkg/persistence"
)

const connectionsCollection = "connections"

// ConnectionRepository implements persistence.ConnectionRepository on files.
type ConnectionRepository struct {
	store *Persistence
}

func (r *ConnectionRepository) Save(_ context.Context, connection *models.Connection) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()

	if connection.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate connection ID: %w", err)
		}

		connection.ID = id.String()
	}

	if connection.CreatedAt.IsZero() {
		connection.CreatedAt = now
	}

	connection.UpdatedAt = now

	return writeDocument(r.store, connectionsCollection, connection.ID, connection)
}

func (r *ConnectionRepository) GetByID(_ context.Context, id string) (*models.Connection, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	connection, err := readDocument[models.Connection](r.store, connectionsCollection, id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.ErrConnectionNotFound
		}

		return nil, err
	}

	return connection, nil
}

func (r *ConnectionRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := deleteDocument(r.store, connectionsCollection, id); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return persistence.ErrConnectionNotFound
		}

		return err
	}

	return nil
}
