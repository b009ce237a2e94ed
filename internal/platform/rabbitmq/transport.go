// Package rabbitmq owns the broker connection and channel for the process.
//
// A Transport is constructed once at startup and handed to every component that
// publishes or consumes. It never acknowledges on its own: handlers call Ack or
// Nack explicitly, and a handler that returns without doing either leaves the
// message unacknowledged until the connection cycles.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"chimera/pkg/platform/sentinel"
)

var (
	// ErrConnection wraps every failure to reach the broker at dial time.
	ErrConnection = errors.New("rabbitmq: broker unreachable")
	// ErrClosed is returned by operations attempted after Close.
	ErrClosed = fmt.Errorf("rabbitmq: transport closed: %w", sentinel.ErrInvalidState)
)

// Delivery is one message handed to a Handler.
type Delivery struct {
	Tag         uint64
	Body        []byte
	Exchange    string
	RoutingKey  string
	MessageID   string
	Type        string
	Redelivered bool
}

// Handler processes one delivery. Returned errors are logged; they do not ack or
// nack the message.
type Handler interface {
	Handle(ctx context.Context, d Delivery) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, d Delivery) error

func (f HandlerFunc) Handle(ctx context.Context, d Delivery) error { return f(ctx, d) }

// Transport owns one connection and one channel.
type Transport struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *slog.Logger

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
	wg        sync.WaitGroup
}

// Option configures Dial.
type Option func(*dialOptions)

type dialOptions struct {
	logger      *slog.Logger
	dialTimeout time.Duration
}

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *dialOptions) { o.logger = logger }
}

// WithDialTimeout bounds the TCP dial to the broker.
func WithDialTimeout(d time.Duration) Option {
	return func(o *dialOptions) { o.dialTimeout = d }
}

// Dial connects to the broker and opens the channel. Failures wrap ErrConnection;
// retry policy belongs to the caller.
func Dial(ctx context.Context, url string, opts ...Option) (*Transport, error) {
	o := dialOptions{logger: slog.Default(), dialTimeout: 10 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := amqp.DialConfig(url, amqp.Config{
		Dial:       amqp.DefaultDial(o.dialTimeout),
		Properties: amqp.Table{"connection_name": "flora-service"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: open channel: %w", ErrConnection, err)
	}

	t := &Transport{
		conn:   conn,
		ch:     ch,
		logger: o.logger,
		done:   make(chan struct{}),
	}
	lost := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if err, ok := <-lost; ok && err != nil {
			t.logger.Error("rabbitmq connection lost", "error", err)
		}
		close(t.done)
	}()
	return t, nil
}

// Done is closed when the underlying connection goes away, by Close or by the broker.
func (t *Transport) Done() <-chan struct{} {
	return t.done
}

// DeclareQueue declares a durable, non-exclusive, non-auto-delete queue.
func (t *Transport) DeclareQueue(name string) error {
	if t.closed.Load() {
		return ErrClosed
	}
	if _, err := t.ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	return nil
}

// DeclareExchange declares a durable exchange of the given kind.
func (t *Transport) DeclareExchange(name, kind string) error {
	if t.closed.Load() {
		return ErrClosed
	}
	if err := t.ch.ExchangeDeclare(name, kind, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", name, err)
	}
	return nil
}

// BindQueue routes key on exchange into queue.
func (t *Transport) BindQueue(queue, key, exchange string) error {
	if t.closed.Load() {
		return ErrClosed
	}
	if err := t.ch.QueueBind(queue, key, exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s to %s/%s: %w", queue, exchange, key, err)
	}
	return nil
}

// PublishOption decorates an outgoing message.
type PublishOption func(*amqp.Publishing)

// WithMessageID stamps the AMQP message id.
func WithMessageID(id string) PublishOption {
	return func(p *amqp.Publishing) { p.MessageId = id }
}

// WithType stamps the AMQP type property.
func WithType(kind string) PublishOption {
	return func(p *amqp.Publishing) { p.Type = kind }
}

// Publish sends body without waiting for a broker confirm. A publish lost in
// flight is a silent gap.
func (t *Transport) Publish(ctx context.Context, exchange, routingKey string, body []byte, opts ...PublishOption) error {
	if t.closed.Load() {
		return ErrClosed
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	}
	for _, opt := range opts {
		opt(&msg)
	}
	if err := t.ch.PublishWithContext(ctx, exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish %s/%s: %w", exchange, routingKey, err)
	}
	return nil
}

// Subscribe registers a manual-ack consumer on queue with prefetch 1 and
// dispatches deliveries to h one at a time, in delivery order. It returns once
// the consumer is registered.
func (t *Transport) Subscribe(ctx context.Context, queue string, h Handler) error {
	if t.closed.Load() {
		return ErrClosed
	}
	if err := t.ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos on %s: %w", queue, err)
	}
	tag := queue + "-" + uuid.NewString()
	deliveries, err := t.ch.Consume(queue, tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.dispatch(ctx, queue, tag, deliveries, h)
	}()
	return nil
}

func (t *Transport) dispatch(ctx context.Context, queue, tag string, deliveries <-chan amqp.Delivery, h Handler) {
	// stop cancels the consumer and hands back whatever the broker already
	// pushed, so nothing sits unacked until the channel closes.
	stop := func() {
		if !t.closed.Load() {
			if err := t.ch.Cancel(tag, false); err != nil {
				t.logger.Warn("cancel consumer", "queue", queue, "error", err)
			}
		}
		for d := range deliveries {
			t.requeue(queue, d.DeliveryTag)
		}
	}
	for {
		select {
		case <-ctx.Done():
			stop()
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			if ctx.Err() != nil {
				t.requeue(queue, d.DeliveryTag)
				stop()
				return
			}
			err := h.Handle(ctx, Delivery{
				Tag:         d.DeliveryTag,
				Body:        d.Body,
				Exchange:    d.Exchange,
				RoutingKey:  d.RoutingKey,
				MessageID:   d.MessageId,
				Type:        d.Type,
				Redelivered: d.Redelivered,
			})
			if err != nil {
				t.logger.Warn("handler returned error",
					"queue", queue,
					"delivery_tag", d.DeliveryTag,
					"error", err,
				)
			}
		}
	}
}

func (t *Transport) requeue(queue string, tag uint64) {
	if t.closed.Load() {
		return
	}
	if err := t.ch.Nack(tag, false, true); err != nil {
		t.logger.Warn("requeue on cancel", "queue", queue, "delivery_tag", tag, "error", err)
	}
}

// Ack acknowledges a single delivery.
func (t *Transport) Ack(tag uint64) error {
	if t.closed.Load() {
		return ErrClosed
	}
	if err := t.ch.Ack(tag, false); err != nil {
		return fmt.Errorf("ack %d: %w", tag, err)
	}
	return nil
}

// Nack rejects a single delivery, optionally asking the broker to requeue it.
func (t *Transport) Nack(tag uint64, requeue bool) error {
	if t.closed.Load() {
		return ErrClosed
	}
	if err := t.ch.Nack(tag, false, requeue); err != nil {
		return fmt.Errorf("nack %d: %w", tag, err)
	}
	return nil
}

// Ping reports whether the connection is still open.
func (t *Transport) Ping(context.Context) error {
	if t.closed.Load() || t.conn.IsClosed() {
		return fmt.Errorf("rabbitmq: %w", sentinel.ErrUnavailable)
	}
	return nil
}

// Close releases the channel and connection. Safe to call more than once and
// from deferred cleanup on any exit path.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		var errs []error
		if err := t.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
		t.wg.Wait()
		if err := t.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
		t.closeErr = errors.Join(errs...)
	})
	return t.closeErr
}
