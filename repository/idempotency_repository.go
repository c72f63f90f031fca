package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore guards order placement against duplicate submissions.
type IdempotencyStore interface {
	// Acquire reserves (userID, key). It returns false when another request
	// already holds the reservation.
	Acquire(ctx context.Context, userID, key string) (bool, error)
	Release(ctx context.Context, userID, key string) error
}

type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) IdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: ttl}
}

func (s *RedisIdempotencyStore) getKey(userID, key string) string {
	return fmt.Sprintf("idem:order:%s:%s", userID, key)
}

func (s *RedisIdempotencyStore) Acquire(ctx context.Context, userID, key string) (bool, error) {
	return s.client.SetNX(ctx, s.getKey(userID, key), time.Now().Unix(), s.ttl).Result()
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, userID, key string) error {
	return s.client.Del(ctx, s.getKey(userID, key)).Err()
}
