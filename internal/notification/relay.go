// Package notification buffers outcome notifications and fans them out to
// connected stream clients.
//
// The relay owns the buffer and the session registry behind one lock. A
// message is appended and pushed to every registered session under that lock,
// and a new session is seeded with the buffer and registered under it too, so
// a session sees each message exactly once whether it joined before or after
// the message arrived.
package notification

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"chimera/internal/platform/metrics"
	"chimera/internal/platform/rabbitmq"
)

// Acknowledger settles deliveries with the broker.
type Acknowledger interface {
	Ack(tag uint64) error
	Nack(tag uint64, requeue bool) error
}

// Relay consumes notification deliveries and serves stream sessions.
type Relay struct {
	acker        Acknowledger
	logger       *slog.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
	pollInterval time.Duration

	mu       sync.Mutex
	buffer   *Buffer
	sessions map[string]*Session
	closed   bool
}

type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

// WithClock sets the source of session creation times.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) {
		r.now = now
	}
}

// WithPollInterval bounds how long a session waits between drains when no
// push wakes it. Zero waits for a push or cancellation only.
func WithPollInterval(d time.Duration) Option {
	return func(r *Relay) {
		r.pollInterval = d
	}
}

func New(acker Acknowledger, opts ...Option) *Relay {
	r := &Relay{
		acker:    acker,
		now:      time.Now,
		buffer:   NewBuffer(),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Publish buffers body and pushes it to every registered session.
func (r *Relay) Publish(body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.buffer.Append(body); err != nil {
		return err
	}
	for _, s := range r.sessions {
		s.push(body)
	}
	r.metrics.SetBuffered(r.buffer.Len())
	return nil
}

// Handle implements rabbitmq.Handler. The delivery is acked once it is
// buffered, and nacked for requeue if the relay no longer accepts messages.
func (r *Relay) Handle(ctx context.Context, d rabbitmq.Delivery) error {
	if err := r.Publish(string(d.Body)); err != nil {
		r.logger.WarnContext(ctx, "notification not buffered, requeueing",
			"delivery_tag", d.Tag,
			"error", err,
		)
		r.metrics.ObserveNotification("requeued")
		if nackErr := r.acker.Nack(d.Tag, true); nackErr != nil {
			return fmt.Errorf("nack %d: %w", d.Tag, nackErr)
		}
		return nil
	}
	r.metrics.ObserveNotification("acked")
	if err := r.acker.Ack(d.Tag); err != nil {
		return fmt.Errorf("ack %d: %w", d.Tag, err)
	}
	return nil
}

// Notifications returns every buffered body in arrival order.
func (r *Relay) Notifications() []string {
	return r.buffer.Snapshot()
}

// Open registers a session seeded with the current buffer. After Shutdown the
// returned session is already done.
func (r *Relay) Open() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := newSession(uuid.NewString(), r.now(), r.buffer.Snapshot())
	if r.closed {
		s.close()
		return s
	}
	r.sessions[s.ID] = s
	r.metrics.SetSessions(len(r.sessions))
	r.logger.Debug("stream session opened", "session_id", s.ID)
	return s
}

// Close deregisters s. Safe to call more than once.
func (r *Relay) Close(s *Session) {
	r.mu.Lock()
	if _, ok := r.sessions[s.ID]; ok {
		delete(r.sessions, s.ID)
		r.metrics.SetSessions(len(r.sessions))
		r.logger.Debug("stream session closed", "session_id", s.ID)
	}
	r.mu.Unlock()
	s.close()
}

// Sessions reports how many sessions are registered.
func (r *Relay) Sessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Shutdown stops accepting messages and ends every open session. Buffered
// contents remain readable through Notifications.
func (r *Relay) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.buffer.Close()
	for id, s := range r.sessions {
		s.close()
		delete(r.sessions, id)
	}
	r.metrics.SetSessions(0)
}

// Sequence yields the bodies queued for s in arrival order, waiting for new
// pushes in between, until ctx is cancelled or s is closed. Cancelling ctx
// deregisters s at once; the sequence ends after the drain in progress.
func (r *Relay) Sequence(ctx context.Context, s *Session) iter.Seq[string] {
	return func(yield func(string) bool) {
		stop := context.AfterFunc(ctx, func() { r.Close(s) })
		defer stop()
		defer r.Close(s)

		var tick <-chan time.Time
		if r.pollInterval > 0 {
			ticker := time.NewTicker(r.pollInterval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			for _, body := range s.drain() {
				if !yield(body) {
					return
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				if ctx.Err() != nil {
					return
				}
				for _, body := range s.drain() {
					if !yield(body) {
						return
					}
				}
				return
			case <-s.wake:
			case <-tick:
			}
		}
	}
}

// Sink receives stream bodies, one call per body.
type Sink interface {
	Send(body string) error
}

// Stream opens a session and writes its sequence to sink until ctx ends or a
// send fails.
func (r *Relay) Stream(ctx context.Context, sink Sink) error {
	s := r.Open()
	for body := range r.Sequence(ctx, s) {
		if err := sink.Send(body); err != nil {
			return fmt.Errorf("stream session %s: %w", s.ID, err)
		}
	}
	return nil
}
