// Package cache provides the two-tier search result cache: an in-process L1 backed by an optional Redis L2.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/desertthunder/snaplist/internal/shared"
)

// Cache stores opaque byte payloads by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte)
}

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Tiered checks L1 (memory) first, then L2 (Redis). An L2 hit repopulates L1.
//
// Redis errors never surface to callers; they are logged and treated as misses.
// Expired L1 entries are swept at most once per TTL, on Set.
type Tiered struct {
	l1     sync.Map
	rdb    *redis.Client
	ttl    time.Duration
	logger *log.Logger
	now    func() time.Time

	sweepMu   sync.Mutex
	nextSweep time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// New builds a cache from cfg. A malformed or unreachable redis_url leaves L2 disabled.
func New(ctx context.Context, cfg shared.CacheConfig, logger *log.Logger) *Tiered {
	c := &Tiered{ttl: cfg.Duration(), logger: logger, now: time.Now}

	if cfg.RedisURL == "" {
		return c
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("invalid redis URL, L2 disabled", "error", err)
		return c
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, L2 disabled", "addr", opts.Addr, "error", err)
		rdb.Close()
		return c
	}

	logger.Info("redis cache connected", "addr", opts.Addr, "ttl", c.ttl)
	c.rdb = rdb
	return c
}

// NewMemory returns a cache with only the in-process tier.
func NewMemory(ttl time.Duration, logger *log.Logger) *Tiered {
	return &Tiered{ttl: ttl, logger: logger, now: time.Now}
}

// Key builds a deterministic, fixed-length key from parts.
func Key(prefix string, parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("snaplist:%s:%x", prefix, sum[:12])
}

func (c *Tiered) Get(ctx context.Context, key string) ([]byte, bool) {
	if v, ok := c.l1.Load(key); ok {
		e := v.(*entry)
		if c.now().Before(e.expiresAt) {
			c.hits.Add(1)
			return e.data, true
		}
		c.l1.Delete(key)
	}

	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			c.l1.Store(key, &entry{data: data, expiresAt: c.now().Add(c.ttl)})
			c.hits.Add(1)
			return data, true
		case err != redis.Nil:
			c.logger.Debug("redis get failed", "key", key, "error", err)
		}
	}

	c.misses.Add(1)
	return nil, false
}

func (c *Tiered) Set(ctx context.Context, key string, data []byte) {
	now := c.now()
	c.sweep(now)
	c.l1.Store(key, &entry{data: data, expiresAt: now.Add(c.ttl)})

	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Debug("redis set failed", "key", key, "error", err)
		}
	}
}

// sweep drops expired L1 entries once the previous sweep is a TTL old.
func (c *Tiered) sweep(now time.Time) {
	c.sweepMu.Lock()
	if now.Before(c.nextSweep) {
		c.sweepMu.Unlock()
		return
	}
	c.nextSweep = now.Add(c.ttl)
	c.sweepMu.Unlock()

	removed := 0
	c.l1.Range(func(k, v any) bool {
		if !now.Before(v.(*entry).expiresAt) {
			c.l1.Delete(k)
			removed++
		}
		return true
	})
	if removed > 0 {
		c.logger.Debug("cache sweep", "removed", removed)
	}
}

// Stats returns the hit and miss counts since creation.
func (c *Tiered) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Redis reports whether the L2 tier is active.
func (c *Tiered) Redis() bool { return c.rdb != nil }

// Close releases the Redis connection, if any.
func (c *Tiered) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
