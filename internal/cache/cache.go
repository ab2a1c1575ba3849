// Package cache holds rendered channel views. Keys carry the list version
// of the owning state, so an entry goes stale as soon as the list changes
// and is simply never read again.
package cache

import (
	"time"

	"github.com/coocood/freecache"

	"github.com/MrSnakeDoc/minichannels/internal/logger"
	"github.com/MrSnakeDoc/minichannels/internal/metrics"
)

// Cache stores encoded views by key.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

type Config struct {
	Enabled bool
	// SizeMB is the freecache arena size. freecache enforces a 512KB floor.
	SizeMB int
	TTL    time.Duration
}

type viewCache struct {
	cache *freecache.Cache
	ttl   int
}

// New returns a freecache-backed cache, or a no-op one when disabled.
func New(cfg Config, log logger.Logger) Cache {
	if !cfg.Enabled || cfg.SizeMB <= 0 {
		log.Info("view cache disabled")
		return noopCache{}
	}

	ttl := max(int(cfg.TTL.Seconds()), 1)
	log.Info("view cache initialized",
		logger.Int("size_mb", cfg.SizeMB),
		logger.Int("ttl_seconds", ttl),
	)
	return &viewCache{
		cache: freecache.NewCache(cfg.SizeMB * 1024 * 1024),
		ttl:   ttl,
	}
}

// NewInstrumented wraps New with hit and miss counters. A disabled cache is
// returned unwrapped so it does not report phantom misses.
func NewInstrumented(cfg Config, log logger.Logger, m metrics.Provider) Cache {
	inner := New(cfg, log)
	if _, ok := inner.(noopCache); ok {
		return inner
	}
	return &instrumented{inner: inner, metrics: m}
}

func (c *viewCache) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *viewCache) Set(key string, value []byte) {
	_ = c.cache.Set([]byte(key), value, c.ttl)
}

type instrumented struct {
	inner   Cache
	metrics metrics.Provider
}

func (c *instrumented) Get(key string) ([]byte, bool) {
	val, ok := c.inner.Get(key)
	if ok {
		c.metrics.IncCacheHits()
	} else {
		c.metrics.IncCacheMisses()
	}
	return val, ok
}

func (c *instrumented) Set(key string, value []byte) { c.inner.Set(key, value) }

type noopCache struct{}

func (noopCache) Get(string) ([]byte, bool) { return nil, false }
func (noopCache) Set(string, []byte)        {}
