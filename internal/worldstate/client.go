package worldstate

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClientOptions configures the Redis connection.
type ClientOptions struct {
	PoolSize        int
	MinIdleConns    int
	ConnMaxIdleTime time.Duration
	MaxRetries      int
}

// NewClient creates a Redis client for a single instance. Redis connects
// lazily; the first command reports an unreachable server.
func NewClient(addr string, opts *ClientOptions) (redis.UniversalClient, error) {
	if addr == "" {
		return nil, errors.New("worldstate: redis address is required")
	}
	if opts == nil {
		opts = &ClientOptions{}
	}
	return redis.NewClient(&redis.Options{
		Addr:            addr,
		PoolSize:        opts.PoolSize,
		MinIdleConns:    opts.MinIdleConns,
		ConnMaxIdleTime: opts.ConnMaxIdleTime,
		MaxRetries:      opts.MaxRetries,
	}), nil
}
