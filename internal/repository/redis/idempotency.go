package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore de-duplicates webhook deliveries with SETNX.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
	scope  string
}

// NewIdempotencyStore creates a store whose keys live for ttl under
// "idempotency:<scope>:".
func NewIdempotencyStore(client *redis.Client, ttl time.Duration, scope string) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl, scope: scope}
}

func (s *IdempotencyStore) key(eventID string) string {
	return fmt.Sprintf("idempotency:%s:%s", s.scope, eventID)
}

// CheckAndMark sets the event's key if absent and reports whether it was
// already present.
func (s *IdempotencyStore) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	set, err := s.client.SetNX(ctx, s.key(eventID), "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx idempotency key: %w", err)
	}
	return !set, nil
}

// Delete removes the event's key.
func (s *IdempotencyStore) Delete(ctx context.Context, eventID string) error {
	if err := s.client.Del(ctx, s.key(eventID)).Err(); err != nil {
		return fmt.Errorf("redis del idempotency key: %w", err)
	}
	return nil
}
