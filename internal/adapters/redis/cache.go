package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/pageflow/pkg/domain"
)

// Cache implements ports.SequenceCache using Redis.
type Cache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Cache)

// WithTTL sets the expiration for cached sequences.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix for cached sequences.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// New creates a new Redis cache with options.
func New(address, password string, db int, opts ...Option) *Cache {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis cache from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Cache {
	cache := &Cache{
		client: client,
		prefix: "pageflow:sequence:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

func (c *Cache) key(key string) string {
	return c.prefix + key
}

func (c *Cache) indexKey() string {
	return c.prefix + "index"
}

// Put stores the result as JSON.
func (c *Cache) Put(ctx context.Context, key string, res domain.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	pipe := c.client.Pipeline()

	// Use 0 for no expiration if ttl is not set.
	pipe.Set(ctx, c.key(key), data, c.ttl)

	// Index (ZSET) scored by expiry, for Keys and Purge.
	score := float64(time.Now().Add(c.ttl).Unix())
	if c.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, c.indexKey(), backend.Z{
		Score:  score,
		Member: key,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Get retrieves a result from Redis.
func (c *Cache) Get(ctx context.Context, key string) (domain.Result, error) {
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.Result{}, domain.ErrCacheMiss
		}
		return domain.Result{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	var res domain.Result
	if err := json.Unmarshal(val, &res); err != nil {
		return domain.Result{}, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return res, nil
}

// Delete removes a cached result.
func (c *Cache) Delete(ctx context.Context, key string) error {
	pipe := c.client.Pipeline()

	pipe.Del(ctx, c.key(key))
	pipe.ZRem(ctx, c.indexKey(), key)

	_, err := pipe.Exec(ctx)
	return err
}

// Keys returns the live cache keys, pruning expired index entries first.
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := c.client.ZRemRangeByScore(ctx, c.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired keys: %w", err)
	}

	keys, err := c.client.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

// Purge removes every cached result under the prefix.
func (c *Cache) Purge(ctx context.Context) error {
	keys, err := c.client.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}

	pipe := c.client.Pipeline()
	for _, k := range keys {
		pipe.Del(ctx, c.key(k))
	}
	pipe.Del(ctx, c.indexKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to purge redis cache: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
