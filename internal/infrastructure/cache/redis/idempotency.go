package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyKeyPrefix = "fulfillment:checkout:idempotency"

// IdempotencyStore remembers which order a checkout idempotency key produced.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(redisURL string, ttl time.Duration) (*IdempotencyStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &IdempotencyStore{client: client, ttl: ttl}, nil
}

func (s *IdempotencyStore) Close() error {
	return s.client.Close()
}

func (s *IdempotencyStore) Lookup(ctx context.Context, accountID, key string) (string, bool, error) {
	orderID, err := s.client.Get(ctx, idempotencyKey(accountID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	return orderID, true, nil
}

// Remember keeps the first order recorded for a key.
func (s *IdempotencyStore) Remember(ctx context.Context, accountID, key, orderID string) error {
	if err := s.client.SetNX(ctx, idempotencyKey(accountID, key), orderID, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency key: %w", err)
	}
	return nil
}

func idempotencyKey(accountID, key string) string {
	return idempotencyKeyPrefix + ":" + accountID + ":" + key
}

func (s *IdempotencyStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
