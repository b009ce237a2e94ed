// Package consumer turns command-queue deliveries into coordinator writes and
// settles each delivery with the broker.
//
// Every decodable command is acked once the coordinator returns, whatever the
// result: the outcome event already reports failures. Undecodable messages are
// nacked without requeue. A panic in the handler is not recovered, so the
// message stays unacked and returns when the connection cycles.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"chimera/internal/flora/models"
	"chimera/internal/platform/metrics"
	"chimera/internal/platform/rabbitmq"
)

// Writer is the write side of the coordinator.
type Writer interface {
	Create(ctx context.Context, record models.Record) models.Result
	Update(ctx context.Context, id string, record models.Record) models.Result
}

// Acknowledger settles deliveries with the broker.
type Acknowledger interface {
	Ack(tag uint64) error
	Nack(tag uint64, requeue bool) error
}

// Deduplicator remembers processed message ids across redeliveries.
type Deduplicator interface {
	Seen(ctx context.Context, messageID string) (bool, error)
	MarkProcessed(ctx context.Context, messageID string) error
}

type commandFunc func(ctx context.Context, cmd Command) models.Result

// Consumer dispatches decoded commands to the coordinator.
type Consumer struct {
	writer   Writer
	acker    Acknowledger
	dedup    Deduplicator
	logger   *slog.Logger
	metrics  *metrics.Metrics
	commands map[string]commandFunc
}

type Option func(*Consumer)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Consumer) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Consumer) {
		c.metrics = m
	}
}

// WithDeduplicator skips redelivered messages whose id was already processed.
func WithDeduplicator(d Deduplicator) Option {
	return func(c *Consumer) {
		c.dedup = d
	}
}

func New(writer Writer, acker Acknowledger, opts ...Option) *Consumer {
	c := &Consumer{writer: writer, acker: acker}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.commands = map[string]commandFunc{
		CmdAddFlora: func(ctx context.Context, cmd Command) models.Result {
			return c.writer.Create(ctx, cmd.Record)
		},
		CmdUpdateFlora: func(ctx context.Context, cmd Command) models.Result {
			return c.writer.Update(ctx, cmd.Record.ID, cmd.Record)
		},
	}
	return c
}

// Handle implements rabbitmq.Handler.
func (c *Consumer) Handle(ctx context.Context, d rabbitmq.Delivery) error {
	if c.alreadyProcessed(ctx, d) {
		c.logger.InfoContext(ctx, "skipping processed redelivery",
			"message_id", d.MessageID,
			"delivery_tag", d.Tag,
		)
		c.metrics.ObserveCommand("unknown", "duplicate")
		return c.ack(d)
	}

	cmd, err := Decode(d)
	if err != nil {
		c.logger.WarnContext(ctx, "rejecting command message",
			"delivery_tag", d.Tag,
			"routing_key", d.RoutingKey,
			"error", err,
		)
		c.metrics.ObserveCommand("unknown", "rejected")
		if err := c.acker.Nack(d.Tag, false); err != nil {
			return fmt.Errorf("nack %d: %w", d.Tag, err)
		}
		return nil
	}

	if ctx.Err() != nil {
		return c.requeue(ctx, d, cmd.Name)
	}
	res := c.commands[cmd.Name](ctx, cmd)
	if !res.IsOK() && ctx.Err() != nil {
		// Shutdown interrupted the write; the command was not applied.
		return c.requeue(ctx, d, cmd.Name)
	}
	c.metrics.ObserveCommand(cmd.Name, res.Outcome.String())
	if !res.IsOK() {
		c.logger.InfoContext(ctx, "command completed without success",
			"command", cmd.Name,
			"outcome", res.Outcome.String(),
			"error", res.Err,
		)
	}

	if c.dedup != nil && d.MessageID != "" {
		if err := c.dedup.MarkProcessed(context.WithoutCancel(ctx), d.MessageID); err != nil {
			c.logger.WarnContext(ctx, "mark processed failed", "message_id", d.MessageID, "error", err)
		}
	}
	return c.ack(d)
}

func (c *Consumer) alreadyProcessed(ctx context.Context, d rabbitmq.Delivery) bool {
	if c.dedup == nil || !d.Redelivered || d.MessageID == "" {
		return false
	}
	seen, err := c.dedup.Seen(ctx, d.MessageID)
	if err != nil {
		c.logger.WarnContext(ctx, "dedup lookup failed", "message_id", d.MessageID, "error", err)
		return false
	}
	return seen
}

func (c *Consumer) requeue(ctx context.Context, d rabbitmq.Delivery, command string) error {
	c.logger.InfoContext(ctx, "requeueing command interrupted by shutdown",
		"command", command,
		"delivery_tag", d.Tag,
	)
	c.metrics.ObserveCommand(command, "requeued")
	if err := c.acker.Nack(d.Tag, true); err != nil {
		return fmt.Errorf("nack %d: %w", d.Tag, err)
	}
	return nil
}

func (c *Consumer) ack(d rabbitmq.Delivery) error {
	if err := c.acker.Ack(d.Tag); err != nil {
		return fmt.Errorf("ack %d: %w", d.Tag, err)
	}
	return nil
}
