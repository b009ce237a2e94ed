package notification

import (
	"fmt"
	"slices"
	"sync"

	"chimera/pkg/platform/sentinel"
)

// ErrClosed is returned when appending to a closed relay.
var ErrClosed = fmt.Errorf("notification relay closed: %w", sentinel.ErrInvalidState)

// Buffer is the ordered, unbounded list of notification bodies received since
// startup. Reads never remove entries.
type Buffer struct {
	mu     sync.RWMutex
	items  []string
	closed bool
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds body at the end. It fails only after Close.
func (b *Buffer) Append(body string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.items = append(b.items, body)
	return nil
}

// Snapshot copies the current contents in append order.
func (b *Buffer) Snapshot() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.items)
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

// Close rejects further appends. Existing contents stay readable.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}
