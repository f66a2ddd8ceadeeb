//go:build integration

package containers

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// RedisContainer wraps a testcontainers Redis instance.
type RedisContainer struct {
	Container testcontainers.Container
	Addr      string
	Client    *redis.Client
}

var (
	redisOnce     sync.Once
	redisInstance *RedisContainer
	redisErr      error
)

// GetRedis starts (once per test binary) and returns the shared Redis
// container. Suites isolate through FlushAll.
func GetRedis(t *testing.T) *RedisContainer {
	t.Helper()

	redisOnce.Do(func() {
		ctx := context.Background()

		container, err := tcredis.Run(ctx, "redis:7-alpine")
		if err != nil {
			redisErr = fmt.Errorf("start redis container: %w", err)
			return
		}

		addr, err := container.ConnectionString(ctx)
		if err != nil {
			redisErr = fmt.Errorf("redis connection string: %w", err)
			return
		}

		opts, err := redis.ParseURL(addr)
		if err != nil {
			redisErr = fmt.Errorf("parse redis URL: %w", err)
			return
		}

		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			redisErr = fmt.Errorf("ping redis: %w", err)
			return
		}

		redisInstance = &RedisContainer{Container: container, Addr: addr, Client: client}
	})

	if redisErr != nil {
		t.Fatalf("redis container: %v", redisErr)
	}
	return redisInstance
}

// FlushAll removes all keys. Use between tests to ensure isolation.
func (r *RedisContainer) FlushAll(ctx context.Context) error {
	return r.Client.FlushAll(ctx).Err()
}
