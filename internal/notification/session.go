package notification

import (
	"sync"
	"time"
)

// Session is one connected stream client. Bodies pushed to it queue in
// pending until the client's sequence drains them.
type Session struct {
	ID      string
	Created time.Time

	mu      sync.Mutex
	pending []string
	wake    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newSession(id string, created time.Time, seed []string) *Session {
	return &Session{
		ID:      id,
		Created: created,
		pending: seed,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (s *Session) push(body string) {
	s.mu.Lock()
	s.pending = append(s.pending, body)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Session) drain() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

func (s *Session) close() {
	s.once.Do(func() { close(s.done) })
}

// Done is closed once the session is deregistered.
func (s *Session) Done() <-chan struct{} {
	return s.done
}
