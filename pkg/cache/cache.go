// Package cache is a Redis-backed JSON cache for public read endpoints.
// Every method is safe on a nil *Cache, which behaves as an always-miss cache.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const versionKey = "listings:cache:version"

type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// New connects to addr and verifies it with a PING.
func New(ctx context.Context, addr, password string, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return NewWithClient(client, ttl), nil
}

func NewWithClient(client redis.UniversalClient, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{client: client, ttl: ttl, prefix: "listings"}
}

func (c *Cache) Client() redis.UniversalClient {
	if c == nil {
		return nil
	}
	return c.client
}

// version is bumped by Invalidate; it is part of every key so a bump
// orphans all earlier entries.
func (c *Cache) version(ctx context.Context) (string, error) {
	v, err := c.client.Get(ctx, versionKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return v, err
}

func (c *Cache) fullKey(ctx context.Context, key string) (string, error) {
	v, err := c.version(ctx)
	if err != nil {
		return "", err
	}
	return c.prefix + ":v" + v + ":" + key, nil
}

// Get decodes the cached value into dest. It reports false on a miss.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}
	full, err := c.fullKey(ctx, key)
	if err != nil {
		return false, err
	}
	data, err := c.client.Get(ctx, full).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, dest)
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	full, err := c.fullKey(ctx, key)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, full, data, c.ttl).Err()
}

// Invalidate drops every cached entry by moving to a new key version.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Incr(ctx, versionKey).Err()
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// Key builds a stable key from prefix and params, independent of map order.
func Key(prefix string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for i, k := range keys {
		if i > 0 {
			builder.WriteString(":")
		}
		builder.WriteString(k)
		builder.WriteString("=")
		builder.WriteString(params[k])
	}

	hash := md5.Sum([]byte(builder.String()))
	return prefix + ":" + hex.EncodeToString(hash[:])
}
