package cooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "idcooldown"

// RedisStore keeps windows as SET NX keys with the window as TTL, so cooldowns
// survive process restarts.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed cooldown store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{
		redis:  client,
		prefix: redisKeyPrefix,
	}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":" + key
}

// Mark implements [Store].
func (s *RedisStore) Mark(ctx context.Context, key string, window time.Duration) (time.Duration, error) {
	set, err := s.redis.SetNX(ctx, s.key(key), time.Now().Unix(), window).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if set {
		return 0, nil
	}

	remaining, err := s.redis.TTL(ctx, s.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if remaining <= 0 {
		// Key expired between SETNX and TTL; treat the window as open.
		return 0, nil
	}
	return remaining, nil
}

// Clear implements [Store].
func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
