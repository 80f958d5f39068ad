package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClaimStore is a Redis-backed ClaimStore. SETNX gives the atomic
// claim-once semantics across replicas.
type RedisClaimStore struct {
	client redis.Cmdable
}

// NewRedisClaimStore creates a new Redis-backed claim store.
func NewRedisClaimStore(client redis.Cmdable) *RedisClaimStore {
	return &RedisClaimStore{client: client}
}

// TryClaim claims the id with SETNX and the given TTL.
func (s *RedisClaimStore) TryClaim(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	key := FormatClaimKey(eventID)
	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %q: %w", key, err)
	}
	return ok, nil
}

// HealthCheck pings the Redis server.
func (s *RedisClaimStore) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
