package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storelane/authcore/ports"
)

// RedisStore is a Redis implementation of the watermark store. The
// TTL on each key lets Redis drop watermarks once every token they
// could affect has expired anyway.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(client *redis.Client) ports.WatermarkStore {
	return &RedisStore{
		client: client,
		prefix: "authcore:watermark:",
	}
}

// SetWatermark records a revocation watermark for the subject.
func (s *RedisStore) SetWatermark(ctx context.Context, subjectID string, issuedBefore time.Time, ttl time.Duration) error {
	key := s.prefix + subjectID
	value := strconv.FormatInt(issuedBefore.UnixNano(), 10)

	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("set watermark: %w", err)
	}
	return nil
}

// Watermark returns the subject's watermark, if one is recorded.
func (s *RedisStore) Watermark(ctx context.Context, subjectID string) (time.Time, bool, error) {
	key := s.prefix + subjectID

	value, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get watermark: %w", err)
	}

	nanos, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse watermark: %w", err)
	}
	return time.Unix(0, nanos), true, nil
}
