// Package document holds the unstructured half of flora records.
package document

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"chimera/internal/flora/models"
	"chimera/pkg/platform/sentinel"
)

// InMemoryStore keeps documents in a map keyed by flora id.
type InMemoryStore struct {
	mu   sync.RWMutex
	docs map[string]models.Document
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{docs: make(map[string]models.Document)}
}

func (s *InMemoryStore) Insert(_ context.Context, doc models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.FloraID]; ok {
		return fmt.Errorf("document for flora %s: %w", doc.FloraID, sentinel.ErrConflict)
	}
	s.docs[doc.FloraID] = clone(doc)
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, doc models.Document) (models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.FloraID]; !ok {
		return models.Document{}, sentinel.ErrNotFound
	}
	s.docs[doc.FloraID] = clone(doc)
	return clone(doc), nil
}

func (s *InMemoryStore) FindByFloraID(_ context.Context, floraID string) (models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[floraID]
	if !ok {
		return models.Document{}, sentinel.ErrNotFound
	}
	return clone(doc), nil
}

func clone(doc models.Document) models.Document {
	doc.Image = slices.Clone(doc.Image)
	doc.OtherDetails = maps.Clone(doc.OtherDetails)
	return doc
}
