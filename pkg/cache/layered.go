package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// LayeredCache implements a two-level cache: L1 in memory, L2 durable (disk or
// Redis). The L2 copy is authoritative across restarts; L1 is a warm-start
// optimization refilled on L2 hits.
type LayeredCache struct {
	memCache   *MemoryCache
	durable    Service
	promoteTTL time.Duration
}

// NewLayeredCache creates a layered cache over the given durable tier.
func NewLayeredCache(durable Service, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{
		MemoryMaxSize: 1000,
		PromoteTTL:    10 * time.Minute,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &LayeredCache{
		memCache:   NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		durable:    durable,
		promoteTTL: cfg.PromoteTTL,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	// Write-through: durable tier first, then memory, so both copies agree.
	if err := lc.durable.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	_ = lc.memCache.Set(ctx, key, value, expiration)
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.memCache.Get(ctx, key, dest); err == nil {
		return nil
	}

	var raw json.RawMessage
	if err := lc.durable.Get(ctx, key, &raw); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return ErrCacheMiss
		}
		return err
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		// Durable copy that cannot be decoded is dropped, not surfaced.
		_ = lc.durable.Delete(ctx, key)
		return ErrCacheMiss
	}

	// Promote into memory for next time.
	_ = lc.memCache.Set(ctx, key, raw, lc.promoteTTL)
	return nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.memCache.Delete(ctx, keys...)
	return lc.durable.Delete(ctx, keys...)
}

func (lc *LayeredCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	_ = lc.memCache.DeleteByPrefix(ctx, prefix)
	return lc.durable.DeleteByPrefix(ctx, prefix)
}

func (lc *LayeredCache) Clear(ctx context.Context) error {
	_ = lc.memCache.Clear(ctx)
	return lc.durable.Clear(ctx)
}

// Close closes both cache layers.
func (lc *LayeredCache) Close() error {
	_ = lc.memCache.Close()
	return lc.durable.Close()
}
