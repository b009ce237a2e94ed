package events

import (
	"context"
	"encoding/json"
	"fmt"

	"chimera/internal/flora/models"
)

// RecordProducer is satisfied by the kafka platform producer.
type RecordProducer interface {
	Produce(ctx context.Context, key string, value []byte)
}

// KafkaMirror copies outcome events onto a Kafka topic keyed by kind.
// Production is asynchronous; only encoding errors surface.
type KafkaMirror struct {
	producer RecordProducer
}

func NewKafkaMirror(producer RecordProducer) *KafkaMirror {
	return &KafkaMirror{producer: producer}
}

func (m *KafkaMirror) Emit(ctx context.Context, event models.OutcomeEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	m.producer.Produce(ctx, string(event.Kind), body)
	return nil
}
