//go:build integration

package dedup_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chimera/internal/flora/dedup"
	"chimera/pkg/testutil/containers"
)

func TestRedisStore_MarkAndSeen(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	s := dedup.NewRedis(rc.Client, time.Minute)

	seen, err := s.Seen(ctx, "msg-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, s.MarkProcessed(ctx, "msg-1"))
	require.NoError(t, s.MarkProcessed(ctx, "msg-1"))

	seen, err = s.Seen(ctx, "msg-1")
	require.NoError(t, err)
	assert.True(t, seen)

	ttl, err := rc.Client.TTL(ctx, "flora:processed:msg-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
