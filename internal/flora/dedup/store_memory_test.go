package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_MarksAndExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewInMemory(time.Minute)
	s.now = func() time.Time { return now }

	seen, err := s.Seen(ctx, "m-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, s.MarkProcessed(ctx, "m-1"))
	seen, err = s.Seen(ctx, "m-1")
	require.NoError(t, err)
	assert.True(t, seen)

	now = now.Add(2 * time.Minute)
	seen, err = s.Seen(ctx, "m-1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestInMemoryStore_EmptyIDIsNeverSeen(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory(time.Minute)

	require.NoError(t, s.MarkProcessed(ctx, ""))
	seen, err := s.Seen(ctx, "")
	require.NoError(t, err)
	assert.False(t, seen)
}
