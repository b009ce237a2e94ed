// Package events publishes write-coordinator outcome events.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"chimera/internal/flora/models"
	"chimera/internal/flora/ports"
	"chimera/internal/platform/rabbitmq"
)

// Publisher is the slice of the queue transport the emitter needs.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte, opts ...rabbitmq.PublishOption) error
}

// QueueEmitter publishes each event to an exchange, routed by its kind so
// bindings can select flora-created or flora-updated.
type QueueEmitter struct {
	pub      Publisher
	exchange string
}

func NewQueueEmitter(pub Publisher, exchange string) *QueueEmitter {
	return &QueueEmitter{pub: pub, exchange: exchange}
}

func (e *QueueEmitter) Emit(ctx context.Context, event models.OutcomeEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	kind := string(event.Kind)
	if err := e.pub.Publish(ctx, e.exchange, kind, body,
		rabbitmq.WithMessageID(uuid.NewString()),
		rabbitmq.WithType(kind),
	); err != nil {
		return fmt.Errorf("publish %s outcome: %w", kind, err)
	}
	return nil
}

// Fanout emits to every emitter and joins their errors. A failing emitter does
// not stop the rest.
type Fanout []ports.OutcomeEmitter

func (f Fanout) Emit(ctx context.Context, event models.OutcomeEvent) error {
	var errs []error
	for _, e := range f {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
