package dedup

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps processed markers in process memory. Expired markers are
// dropped lazily on lookup.
type InMemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	markers map[string]time.Time
}

func NewInMemory(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{ttl: ttl, now: time.Now, markers: make(map[string]time.Time)}
}

func (s *InMemoryStore) Seen(_ context.Context, messageID string) (bool, error) {
	if messageID == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	expires, ok := s.markers[messageID]
	if !ok {
		return false, nil
	}
	if s.ttl > 0 && !s.now().Before(expires) {
		delete(s.markers, messageID)
		return false, nil
	}
	return true, nil
}

func (s *InMemoryStore) MarkProcessed(_ context.Context, messageID string) error {
	if messageID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.markers[messageID]; !ok {
		s.markers[messageID] = s.now().Add(s.ttl)
	}
	return nil
}
