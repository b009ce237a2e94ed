//go:build integration

package containers

import (
	"context"
	"testing"

	tcrabbitmq "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
)

// RabbitMQContainer wraps a testcontainers RabbitMQ broker.
type RabbitMQContainer struct {
	Container *tcrabbitmq.RabbitMQContainer
	URL       string
}

// NewRabbitMQContainer starts a broker that is terminated when t ends.
func NewRabbitMQContainer(t *testing.T) *RabbitMQContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcrabbitmq.Run(ctx, "rabbitmq:3.13-management-alpine")
	if err != nil {
		t.Fatalf("failed to start rabbitmq container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.AmqpURL(ctx)
	if err != nil {
		t.Fatalf("failed to get amqp url: %v", err)
	}
	return &RabbitMQContainer{Container: container, URL: url}
}
