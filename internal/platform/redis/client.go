package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration.
type Config struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration.
func DefaultConfig() Config {
	return Config{
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Client wraps the go-redis client with health checking capabilities.
type Client struct {
	*redis.Client
}

// New creates a new Redis client from the provided configuration.
// Returns nil if the URL is empty (Redis not configured).
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

// Health checks if the Redis connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.Client.Close()
}

// CountCache caches the audit export row count so the export endpoint does
// not COUNT(*) the log table on every admin page view. The cache is
// invalidated whenever a record is appended or swept.
type CountCache struct {
	client *Client
	key    string
	ttl    time.Duration
}

// NewCountCache builds a CountCache. Returns nil when the client is nil so
// callers can stay nil-safe when Redis is not configured.
func NewCountCache(client *Client, key string, ttl time.Duration) *CountCache {
	if client == nil {
		return nil
	}
	return &CountCache{client: client, key: key, ttl: ttl}
}

// Get returns the cached count, or ok=false on miss or error.
func (c *CountCache) Get(ctx context.Context) (int64, bool) {
	if c == nil {
		return 0, false
	}
	n, err := c.client.Get(ctx, c.key).Int64()
	if err != nil {
		return 0, false
	}
	return n, true
}

// Set stores the count with the configured TTL. Errors are ignored: the
// cache is advisory.
func (c *CountCache) Set(ctx context.Context, n int64) {
	if c == nil {
		return
	}
	_ = c.client.Set(ctx, c.key, n, c.ttl).Err()
}

// Invalidate drops the cached count.
func (c *CountCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	_ = c.client.Del(ctx, c.key).Err()
}
