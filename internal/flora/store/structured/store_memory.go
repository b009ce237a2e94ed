package structured

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"chimera/internal/flora/models"
	"chimera/pkg/platform/sentinel"
)

// InMemoryStore keeps structured rows in a map. It enforces the same uniqueness
// rules as the PostgreSQL schema so tests exercise conflict paths.
type InMemoryStore struct {
	mu    sync.RWMutex
	rows  map[string]models.StructuredRow
	order []string
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{rows: make(map[string]models.StructuredRow)}
}

func (s *InMemoryStore) Create(_ context.Context, row models.StructuredRow) (models.StructuredRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkUnique("", row); err != nil {
		return models.StructuredRow{}, err
	}
	row.ID = uuid.NewString()
	s.rows[row.ID] = row
	s.order = append(s.order, row.ID)
	return row, nil
}

func (s *InMemoryStore) Update(_ context.Context, id string, row models.StructuredRow) (models.StructuredRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return models.StructuredRow{}, sentinel.ErrNotFound
	}
	if err := s.checkUnique(id, row); err != nil {
		return models.StructuredRow{}, err
	}
	row.ID = id
	s.rows[id] = row
	return row, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.rows, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (models.StructuredRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if row, ok := s.rows[id]; ok {
		return row, nil
	}
	return models.StructuredRow{}, sentinel.ErrNotFound
}

// List returns rows in insertion order.
func (s *InMemoryStore) List(_ context.Context) ([]models.StructuredRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.StructuredRow, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rows[id])
	}
	return out, nil
}

// checkUnique must be called with mu held.
func (s *InMemoryStore) checkUnique(selfID string, row models.StructuredRow) error {
	for id, existing := range s.rows {
		if id == selfID {
			continue
		}
		if existing.CommonName == row.CommonName {
			return fmt.Errorf("common_name %q: %w", row.CommonName, sentinel.ErrConflict)
		}
		if existing.ScientificName == row.ScientificName {
			return fmt.Errorf("scientific_name %q: %w", row.ScientificName, sentinel.ErrConflict)
		}
	}
	return nil
}
