package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	defaultRedisPrefix = "hfit:"
	redisOpTimeout     = 3 * time.Second
)

// RedisCache is a Redis-backed translation cache.
type RedisCache struct {
	client    redis.UniversalClient
	ttl       time.Duration
	keyPrefix string
}

// RedisConfig holds configuration for the Redis cache.
type RedisConfig struct {
	URL       string        // Connection URL, e.g. "redis://localhost:6379/0"
	TTL       time.Duration // 0 = no expiration
	KeyPrefix string        // Prefix for all keys (default: "hfit:")
}

// NewRedisCache connects to Redis and checks the connection.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewRedisCacheFromClient(client, cfg.TTL, cfg.KeyPrefix), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client redis.UniversalClient, ttl time.Duration, keyPrefix string) *RedisCache {
	if keyPrefix == "" {
		keyPrefix = defaultRedisPrefix
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisCache{client: client, ttl: ttl, keyPrefix: keyPrefix}
}

// Get retrieves a value. Connection errors are logged and count as misses.
func (c *RedisCache) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	val, err := c.client.Get(ctx, c.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Redis cache lookup failed")
		return "", false
	}
	return val, true
}

// Set stores a value with the configured TTL.
func (c *RedisCache) Set(key string, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return c.client.Set(ctx, c.keyPrefix+key, value, c.ttl).Err()
}

// Entries scans every key under the prefix.
func (c *RedisCache) Entries() (map[string]string, error) {
	ctx := context.Background()
	out := make(map[string]string)

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		if len(keys) > 0 {
			vals, err := c.client.MGet(ctx, keys...).Result()
			if err != nil {
				return nil, err
			}
			for i, k := range keys {
				if s, ok := vals[i].(string); ok {
					out[strings.TrimPrefix(k, c.keyPrefix)] = s
				}
			}
		}
		cursor = next
		if cursor == 0 {
			return out, nil
		}
	}
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ping tests the Redis connection.
func (c *RedisCache) Ping() error {
	return c.client.Ping(context.Background()).Err()
}

var (
	_ TranslationCache = (*RedisCache)(nil)
	_ Lister           = (*RedisCache)(nil)
)
