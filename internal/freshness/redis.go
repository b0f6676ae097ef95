package freshness

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// advanceScript stores ARGV[1] under KEYS[1] when it is greater than the current
// value, so concurrent replicas agree on which request saw a change first.
var advanceScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local candidate = tonumber(ARGV[1])
if candidate > current then
	redis.call("SET", KEYS[1], ARGV[1])
	return 1
end
return 0
`)

// RedisStore shares records between service replicas through Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

type RedisConfig struct {
	Addr      string
	DB        int
	KeyPrefix string
}

// NewRedisStore connects to Redis and checks the connection.
func NewRedisStore(ctx context.Context, config RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: config.Addr,
		DB:   config.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", config.Addr, err)
	}
	return &RedisStore{client: client, prefix: config.KeyPrefix}, nil
}

func (s *RedisStore) Advance(ctx context.Context, key string, modTime int64) (bool, error) {
	advanced, err := advanceScript.Run(ctx, s.client, []string{s.prefix + key}, modTime).Int()
	if err != nil {
		return false, fmt.Errorf("advance %s: %w", key, err)
	}
	return advanced == 1, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
