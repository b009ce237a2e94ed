// Package service coordinates flora writes across the structured and document
// stores.
//
// The two stores cannot share a transaction. The structured store is the system
// of record: a create writes it first, then the document, and deletes the
// structured row again if the document write fails. An update that finds no
// document leaves the structured update in place.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"chimera/internal/flora/models"
	"chimera/internal/flora/ports"
	"chimera/internal/platform/metrics"
	"chimera/pkg/platform/sentinel"
)

var (
	ErrStructuredStore = errors.New("structured store")
	ErrDocumentStore   = errors.New("document store")
)

var tracer = otel.Tracer("chimera/internal/flora/service")

// settleTimeout bounds the compensating delete and the outcome emit, which run
// detached from the caller's cancellation.
const settleTimeout = 5 * time.Second

const (
	opCreate = "create"
	opUpdate = "update"
)

// Coordinator runs create and update across both stores and emits exactly one
// outcome event per write.
type Coordinator struct {
	structured ports.StructuredStore
	documents  ports.DocumentStore
	emitter    ports.OutcomeEmitter
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Coordinator)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// New constructs a Coordinator.
func New(structured ports.StructuredStore, documents ports.DocumentStore, emitter ports.OutcomeEmitter, opts ...Option) *Coordinator {
	c := &Coordinator{structured: structured, documents: documents, emitter: emitter}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Create persists a new record. The record's ID is ignored; the structured
// store assigns one.
func (c *Coordinator) Create(ctx context.Context, record models.Record) models.Result {
	ctx, span := tracer.Start(ctx, "flora.Create")
	defer span.End()

	row, err := c.structured.Create(ctx, models.ToStructuredRow(record))
	if err != nil {
		err = fmt.Errorf("%w: create: %w", ErrStructuredStore, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "structured create failed")
		c.logger.ErrorContext(ctx, "flora create failed", "stage", "structured", "error", err)
		c.emit(ctx, models.Errored(models.KindCreated, models.CodeFailed, err))
		c.metrics.ObserveWrite(opCreate, models.OutcomeFailed.String())
		return models.Failed(err)
	}
	span.SetAttributes(attribute.String("flora.id", row.ID))

	doc := models.ToDocument(row.ID, record)
	if err := c.documents.Insert(ctx, doc); err != nil {
		err = fmt.Errorf("%w: insert %s: %w", ErrDocumentStore, row.ID, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "document insert failed")
		c.logger.ErrorContext(ctx, "flora create failed", "stage", "document", "flora_id", row.ID, "error", err)
		c.compensate(ctx, row.ID)
		c.emit(ctx, models.Errored(models.KindCreated, models.CodeFailed, err))
		c.metrics.ObserveWrite(opCreate, models.OutcomeFailed.String())
		return models.Failed(err)
	}

	c.logger.InfoContext(ctx, "flora created", "flora_id", row.ID)
	c.emit(ctx, models.Succeeded(models.KindCreated, models.CodeCreated, row.ID))
	c.metrics.ObserveWrite(opCreate, models.OutcomeOK.String())
	return models.OK(models.Merge(row, doc))
}

// Update rewrites both halves of an existing record. A missing structured row
// is NotFound and the document store is not touched.
func (c *Coordinator) Update(ctx context.Context, id string, record models.Record) models.Result {
	ctx, span := tracer.Start(ctx, "flora.Update")
	defer span.End()
	span.SetAttributes(attribute.String("flora.id", id))

	row, err := c.structured.Update(ctx, id, models.ToStructuredRow(record))
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		span.SetStatus(codes.Error, "not found")
		c.logger.InfoContext(ctx, "flora update target missing", "flora_id", id)
		c.emit(ctx, models.Errored(models.KindUpdated, models.CodeNotFound, fmt.Errorf("flora %s not found", id)))
		err = fmt.Errorf("flora %s not found: %w", id, sentinel.ErrNotFound)
		c.metrics.ObserveWrite(opUpdate, models.OutcomeNotFound.String())
		return models.NotFound(err)
	case err != nil:
		err = fmt.Errorf("%w: update %s: %w", ErrStructuredStore, id, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "structured update failed")
		c.logger.ErrorContext(ctx, "flora update failed", "stage", "structured", "flora_id", id, "error", err)
		c.emit(ctx, models.Errored(models.KindUpdated, models.CodeFailed, err))
		c.metrics.ObserveWrite(opUpdate, models.OutcomeFailed.String())
		return models.Failed(err)
	}

	// The structured update stays committed when the document is missing or
	// its write fails.
	doc, err := c.documents.Update(ctx, models.ToDocument(row.ID, record))
	if err != nil {
		err = fmt.Errorf("%w: update %s: %w", ErrDocumentStore, row.ID, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "document update failed")
		c.logger.ErrorContext(ctx, "flora update failed", "stage", "document", "flora_id", row.ID, "error", err)
		c.emit(ctx, models.Errored(models.KindUpdated, models.CodeFailed, err))
		c.metrics.ObserveWrite(opUpdate, models.OutcomeFailed.String())
		return models.Failed(err)
	}

	c.logger.InfoContext(ctx, "flora updated", "flora_id", row.ID)
	c.emit(ctx, models.Succeeded(models.KindUpdated, models.CodeUpdated, row.ID))
	c.metrics.ObserveWrite(opUpdate, models.OutcomeOK.String())
	return models.OK(models.Merge(row, doc))
}

// Get returns the complete record for id. A structured row without its
// document is reported as NotFound.
func (c *Coordinator) Get(ctx context.Context, id string) models.Result {
	ctx, span := tracer.Start(ctx, "flora.Get")
	defer span.End()
	span.SetAttributes(attribute.String("flora.id", id))

	row, err := c.structured.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.NotFound(fmt.Errorf("flora %s not found: %w", id, sentinel.ErrNotFound))
	}
	if err != nil {
		span.RecordError(err)
		return models.Failed(fmt.Errorf("%w: find %s: %w", ErrStructuredStore, id, err))
	}

	doc, err := c.documents.FindByFloraID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		c.logger.WarnContext(ctx, "orphan structured row", "flora_id", id)
		return models.NotFound(fmt.Errorf("flora %s incomplete: %w", id, sentinel.ErrNotFound))
	}
	if err != nil {
		span.RecordError(err)
		return models.Failed(fmt.Errorf("%w: find %s: %w", ErrDocumentStore, id, err))
	}
	return models.OK(models.Merge(row, doc))
}

// List returns every complete record in structured-store order. Orphan rows
// are skipped.
func (c *Coordinator) List(ctx context.Context) ([]models.Record, error) {
	ctx, span := tracer.Start(ctx, "flora.List")
	defer span.End()

	rows, err := c.structured.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: list: %w", ErrStructuredStore, err)
	}
	records := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		doc, err := c.documents.FindByFloraID(ctx, row.ID)
		if errors.Is(err, sentinel.ErrNotFound) {
			c.logger.WarnContext(ctx, "orphan structured row", "flora_id", row.ID)
			continue
		}
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("%w: find %s: %w", ErrDocumentStore, row.ID, err)
		}
		records = append(records, models.Merge(row, doc))
	}
	span.SetAttributes(attribute.Int("flora.count", len(records)))
	return records, nil
}

// settleContext keeps ctx values but not its cancellation, so a write
// interrupted by shutdown is still compensated and reported.
func settleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
}

// compensate deletes a structured row whose document write failed. It runs
// once; a failure leaves an orphan for out-of-band reconciliation.
func (c *Coordinator) compensate(ctx context.Context, id string) {
	ctx, cancel := settleContext(ctx)
	defer cancel()
	if err := c.structured.Delete(ctx, id); err != nil {
		c.logger.ErrorContext(ctx, "compensating delete failed",
			"flora_id", id,
			"orphan", true,
			"error", err,
		)
		c.metrics.ObserveCompensation(false)
		return
	}
	c.metrics.ObserveCompensation(true)
}

func (c *Coordinator) emit(ctx context.Context, event models.OutcomeEvent) {
	if c.emitter == nil {
		return
	}
	ctx, cancel := settleContext(ctx)
	defer cancel()
	if err := c.emitter.Emit(ctx, event); err != nil {
		c.logger.WarnContext(ctx, "outcome emit failed",
			"kind", string(event.Kind),
			"code", event.Code,
			"error", err,
		)
		c.metrics.IncOutcomeEmitFailures()
	}
}
