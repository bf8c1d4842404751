package stats

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Counter names tracked by the gateway.
const (
	RequestsTotal      = "requests_total"
	InvalidRequests    = "invalid_requests"
	StreamsSimulated   = "streams_simulated"
	StreamsPassthrough = "streams_passthrough"
	UpstreamErrors     = "upstream_errors"
)

// Store is the counter backend behind GET /stats. Counting is best-effort:
// callers log failures and carry on; a broken store never fails a request.
// Implemented by the memory store (dev) and the Redis store (prod).
type Store interface {
	Incr(ctx context.Context, name string) error
	Snapshot(ctx context.Context) (map[string]int64, error)
}

type Config struct {
	Backend string // "memory" or "redis"
	Prefix  string
}

func NewStore(cfg Config, redisClient *redis.Client) Store {
	switch cfg.Backend {
	case "redis":
		return NewRedisStore(redisClient, RedisConfig{
			Prefix: cfg.Prefix,
		})
	default:
		return NewMemoryStore()
	}
}
