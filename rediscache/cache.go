// Package rediscache stores simplification results in Redis so that several
// engine processes can share them. It is usually placed behind an in-memory
// tier with symcore.NewTieredCache.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/njchilds90/symcore"
	"github.com/njchilds90/symcore/internal/logging"
	backend "github.com/redis/go-redis/v9"
)

// Cache implements symcore.Cache on top of Redis. Redis failures are logged
// and treated as misses; the engine never depends on the cache for
// correctness.
type Cache struct {
	client  backend.UniversalClient
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger
}

type Option func(*Cache)

// WithTTL sets the expiration of stored entries. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

func WithPrefix(prefix string) Option {
	return func(c *Cache) { c.prefix = prefix }
}

// WithTimeout bounds Len and Reset, which have no caller context.
func WithTimeout(d time.Duration) Option {
	return func(c *Cache) { c.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New wraps an existing client.
func New(client backend.UniversalClient, opts ...Option) *Cache {
	c := &Cache{
		client:  client,
		prefix:  "symcore:cache:",
		timeout: 5 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects to a single Redis server.
func Dial(address, password string, db int, opts ...Option) *Cache {
	return New(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("rediscache: ping: %w", err)
	}
	return nil
}

func (c *Cache) Close() error { return c.client.Close() }

func (c *Cache) key(k uint64) string {
	return c.prefix + strconv.FormatUint(k, 16)
}

type record struct {
	Input  map[string]any `json:"input"`
	Output map[string]any `json:"output"`
	Guard  uint8          `json:"guard"`
}

func (c *Cache) Get(ctx context.Context, key uint64) (symcore.CacheEntry, bool) {
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, backend.Nil) {
			c.logger.Warn("redis cache get failed", "key", c.key(key), "err", err)
		}
		return symcore.CacheEntry{}, false
	}
	entry, err := decodeRecord(val)
	if err != nil {
		c.logger.Warn("redis cache entry unreadable", "key", c.key(key), "err", err)
		return symcore.CacheEntry{}, false
	}
	return entry, true
}

func decodeRecord(val []byte) (symcore.CacheEntry, error) {
	var rec record
	if err := json.Unmarshal(val, &rec); err != nil {
		return symcore.CacheEntry{}, err
	}
	in, err := symcore.UnmarshalExpr(rec.Input)
	if err != nil {
		return symcore.CacheEntry{}, fmt.Errorf("input: %w", err)
	}
	out, err := symcore.UnmarshalExpr(rec.Output)
	if err != nil {
		return symcore.CacheEntry{}, fmt.Errorf("output: %w", err)
	}
	return symcore.CacheEntry{Input: in, Output: out, Guard: symcore.Guard(rec.Guard)}, nil
}

func (c *Cache) Put(ctx context.Context, key uint64, entry symcore.CacheEntry) {
	data, err := json.Marshal(record{
		Input:  symcore.MarshalExpr(entry.Input),
		Output: symcore.MarshalExpr(entry.Output),
		Guard:  uint8(entry.Guard),
	})
	if err != nil {
		c.logger.Warn("redis cache encode failed", "err", err)
		return
	}
	if err := c.client.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		c.logger.Warn("redis cache put failed", "key", c.key(key), "err", err)
	}
}

// scan visits every key under the prefix.
func (c *Cache) scan(ctx context.Context, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", 256).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Len counts the entries under the prefix. Errors count as zero.
func (c *Cache) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	n := 0
	err := c.scan(ctx, func(keys []string) error {
		n += len(keys)
		return nil
	})
	if err != nil {
		c.logger.Warn("redis cache scan failed", "err", err)
		return 0
	}
	return n
}

// Reset deletes every entry under the prefix.
func (c *Cache) Reset() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	err := c.scan(ctx, func(keys []string) error {
		return c.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		c.logger.Warn("redis cache reset failed", "err", err)
	}
}

var _ symcore.Cache = (*Cache)(nil)
