// Package ports declares the collaborators the write coordinator orchestrates.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"chimera/internal/flora/models"
)

// StructuredStore is the system of record for ids and existence.
// Update and FindByID return sentinel.ErrNotFound for unknown ids.
type StructuredStore interface {
	Create(ctx context.Context, row models.StructuredRow) (models.StructuredRow, error)
	Update(ctx context.Context, id string, row models.StructuredRow) (models.StructuredRow, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (models.StructuredRow, error)
	List(ctx context.Context) ([]models.StructuredRow, error)
}

// DocumentStore holds the subordinate half of a record, keyed by flora id.
// Update and FindByFloraID return sentinel.ErrNotFound when no document exists.
type DocumentStore interface {
	Insert(ctx context.Context, doc models.Document) error
	Update(ctx context.Context, doc models.Document) (models.Document, error)
	FindByFloraID(ctx context.Context, floraID string) (models.Document, error)
}

// OutcomeEmitter publishes outcome events. Delivery is best-effort.
type OutcomeEmitter interface {
	Emit(ctx context.Context, event models.OutcomeEvent) error
}
