// Package cache keeps rendered public pages in Redis. Entries are keyed by a
// per-host version number, so invalidating a host is one INCR and stale
// entries simply age out.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "microsite:"
	// IndexHost is the pseudo host under which the marketing index is cached.
	IndexHost = "_index"
)

// Connect creates a Redis client and verifies connectivity.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

type RedisCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisCache(rdb redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func versionKey(host string) string {
	return keyPrefix + "ver:" + host
}

func entryKey(host string, version int64, key string) string {
	return fmt.Sprintf("%spage:%s:v%d:%s", keyPrefix, host, version, key)
}

func (c *RedisCache) version(ctx context.Context, host string) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey(host)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Get decodes the cached value for (host, key) into dest and reports whether
// there was one, along with the host version it looked under. A caller that
// fills the entry after a miss passes that version back to Set.
func (c *RedisCache) Get(ctx context.Context, host, key string, dest any) (bool, int64, error) {
	version, err := c.version(ctx, host)
	if err != nil {
		return false, 0, err
	}

	raw, err := c.rdb.Get(ctx, entryKey(host, version, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, version, nil
	}
	if err != nil {
		return false, version, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, version, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, version, nil
}

// Set stores value under the given host version. A value built before an
// Invalidate lands on a version that is no longer read.
func (c *RedisCache) Set(ctx context.Context, host string, version int64, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.rdb.Set(ctx, entryKey(host, version, key), raw, c.ttl).Err()
}

// Invalidate bumps the version of every host so earlier entries are no longer
// read.
func (c *RedisCache) Invalidate(ctx context.Context, hosts ...string) error {
	if len(hosts) == 0 {
		return nil
	}
	_, err := c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, h := range hosts {
			pipe.Incr(ctx, versionKey(h))
		}
		return nil
	})
	return err
}

// Nop is used when no Redis URL is configured.
type Nop struct{}

func (Nop) Get(context.Context, string, string, any) (bool, int64, error) { return false, 0, nil }
func (Nop) Set(context.Context, string, int64, string, any) error         { return nil }
func (Nop) Invalidate(context.Context, ...string) error                   { return nil }
