package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection settings. Zero fields take the tagged defaults.
type RedisConfig struct {
	Addr         string        `default:"localhost:6379"`
	Password     string
	DB           int
	PoolSize     int           `default:"4"`
	MinIdleConns int           `default:"1"`
	DialTimeout  time.Duration `default:"5s"`
	// Prefix is prepended verbatim to every key, e.g. "tickpulse:".
	Prefix string `default:"tickpulse:"`
}

// RedisCache implements Service on Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects and pings Redis.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("redis config: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return &RedisCache{client: client, prefix: cfg.Prefix}, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.client.Set(ctx, c.prefix+key, data, expiration).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return decode(data, dest)
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	return c.client.Unlink(ctx, full...).Err()
}

// Close closes the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
