//go:build integration

package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"chimera/internal/platform/kafka"
	"chimera/pkg/testutil/containers"
)

func TestNewProducer_NoBrokersIsDisabled(t *testing.T) {
	p, err := kafka.NewProducer(nil, "topic", nil)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestProducer_RoundTrip(t *testing.T) {
	broker := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const topic = "flora.outcomes.test"
	p, err := kafka.NewProducer([]string{broker.Broker}, topic, nil)
	require.NoError(t, err)

	require.NoError(t, p.EnsureTopic(ctx, 1, 1))
	require.NoError(t, p.EnsureTopic(ctx, 1, 1), "existing topic is tolerated")
	p.Produce(ctx, "flora-created", []byte(`{"code":201}`))
	require.NoError(t, p.Close(ctx), "close flushes the buffered record")

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.NotEmpty(t, records)
	assert.Equal(t, "flora-created", string(records[0].Key))
	assert.JSONEq(t, `{"code":201}`, string(records[0].Value))
}
