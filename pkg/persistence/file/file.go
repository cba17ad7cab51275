// Package file provides a JSON-file persistence implementation for
// development and tests. One process owns the directory; a store-wide mutex
// serializes structural edits the way the SQL backend's row locks do.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/stack360co/automatisch/pkg/persistence"
)

// Persistence implements persistence.Persistence on top of a directory of
// JSON documents.
type Persistence struct {
	root string
	mu   sync.Mutex

	flowRepo       *FlowRepository
	stepRepo       *StepRepository
	executionRepo  *ExecutionRepository
	connectionRepo *ConnectionRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	p := &Persistence{root: cleanRoot}
	p.flowRepo = &FlowRepository{store: p}
	p.stepRepo = &StepRepository{store: p}
	p.executionRepo = &ExecutionRepository{store: p}
	p.connectionRepo = &ConnectionRepository{store: p}

	return p
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

// HealthCheck verifies the root directory exists or can be created.
func (p *Persistence) HealthCheck(_ context.Context) error {
	return os.MkdirAll(p.root, 0o750)
}

// Close performs any necessary cleanup. Nothing to do for files.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) collectionDir(collection string) string {
	return filepath.Join(p.root, collection)
}

func (p *Persistence) documentPath(collection, id string) string {
	return filepath.Join(p.root, collection, id+".json")
}

func writeDocument(p *Persistence, collection, id string, document any) error {
	dir := p.collectionDir(collection)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", collection, err)
	}

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s document: %w", collection, err)
	}

	if err := os.WriteFile(p.documentPath(collection, id), data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s document: %w", collection, err)
	}

	return nil
}

func readDocument[T any](p *Persistence, collection, id string) (*T, error) {
	data, err := os.ReadFile(p.documentPath(collection, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}

		return nil, fmt.Errorf("failed to read %s document: %w", collection, err)
	}

	var document T
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s document: %w", collection, err)
	}

	return &document, nil
}

func readCollection[T any](p *Persistence, collection string) ([]*T, error) {
	entries, err := os.ReadDir(p.collectionDir(collection))
	if err != nil {
		if os.IsNotExist(err) {
			return []*T{}, nil
		}

		return nil, fmt.Errorf("failed to read %s directory: %w", collection, err)
	}

	documents := make([]*T, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")

		document, err := readDocument[T](p, collection, id)
		if err != nil {
			return nil, err
		}

		documents = append(documents, document)
	}

	return documents, nil
}

func deleteDocument(p *Persistence, collection, id string) error {
	err := os.Remove(p.documentPath(collection, id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s document: %w", collection, err)
	}

	if os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}
