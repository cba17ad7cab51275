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

// ConnectionRepository handles stored integration credentials.
type ConnectionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewConnectionRepository creates a new connection repository.
func NewConnectionRepository(db *sql.DB, logger *slog.Logger) *ConnectionRepository {
	return &ConnectionRepository{db: db, logger: logger}
}

// Save inserts or updates a connection.
func (r *ConnectionRepository) Save(ctx context.Context, connection *models.Connection) error {
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

	dataJSON, err := json.Marshal(connection.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal connection data: %w", err)
	}

	query := `
		INSERT INTO connections (id, app_key, data, verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET app_key = EXCLUDED.app_key, data = EXCLUDED.data,
		    verified = EXCLUDED.verified, updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		connection.ID, connection.AppKey, dataJSON, connection.Verified,
		connection.CreatedAt, connection.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save connection: %w", err)
	}

	return nil
}

// GetByID returns the connection, or ErrConnectionNotFound.
func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (*models.Connection, error) {
	query := `
		SELECT id, app_key, data, verified, created_at, updated_at
		FROM connections
		WHERE id = $1
	`

	connection := &models.Connection{}

	var dataJSON []byte

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&connection.ID, &connection.AppKey, &dataJSON, &connection.Verified,
		&connection.CreatedAt, &connection.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrConnectionNotFound
		}

		return nil, fmt.Errorf("failed to scan connection: %w", err)
	}

	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &connection.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal connection data: %w", err)
		}
	}

	return connection, nil
}

// Delete removes the connection. Steps referencing it fall back to null
// through the foreign-key SET NULL.
func (r *ConnectionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM connections WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	if affected == 0 {
		return persistence.ErrConnectionNotFound
	}

	return nil
}
