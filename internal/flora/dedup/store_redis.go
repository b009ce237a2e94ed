// Package dedup records which command messages have already been handled so
// broker redeliveries do not re-run a write.
package dedup

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const processedKeyPrefix = "flora:processed:"

// RedisStore marks processed message ids in Redis with an expiry.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed store. Markers expire after ttl.
func NewRedis(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Seen reports whether messageID has been marked processed.
func (s *RedisStore) Seen(ctx context.Context, messageID string) (bool, error) {
	if messageID == "" {
		return false, nil
	}
	_, err := s.client.Get(ctx, processedKeyPrefix+messageID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkProcessed records messageID. Marking twice is harmless.
func (s *RedisStore) MarkProcessed(ctx context.Context, messageID string) error {
	if messageID == "" {
		return nil
	}
	return s.client.SetNX(ctx, processedKeyPrefix+messageID, "1", s.ttl).Err()
}
