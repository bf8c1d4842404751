package stats

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on a Redis hash so counters survive restarts
// and aggregate across replicas.
type RedisStore struct {
	client *redis.Client
	key    string
}

type RedisConfig struct {
	Prefix string
}

func NewRedisStore(client *redis.Client, config RedisConfig) *RedisStore {
	key := "counters"
	if config.Prefix != "" {
		key = config.Prefix + ":" + key
	}
	return &RedisStore{
		client: client,
		key:    key,
	}
}

func (s *RedisStore) Incr(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if err := s.client.HIncrBy(ctx, s.key, name, 1).Err(); err != nil {
		return fmt.Errorf("redis hincrby failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Snapshot(ctx context.Context) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	raw, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	out := make(map[string]int64, len(raw))
	for name, value := range raw {
		count, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			// Foreign value in the hash; skip rather than fail the snapshot.
			continue
		}
		out[name] = count
	}
	return out, nil
}

// Ping checks if the Redis connection is healthy.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	return s.client.Ping(ctx).Err()
}
