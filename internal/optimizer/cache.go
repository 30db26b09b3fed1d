package optimizer

import (
	"context"
	"time"

	"github.com/ariefcatur/go-repair-shop/internal/redisx"
	"github.com/ariefcatur/go-repair-shop/internal/repairs"
	"go.uber.org/zap"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Cached serves the last ranking from the cache until it expires or is
// invalidated. Failed passes are never cached.
type Cached struct {
	next  Selector
	cache Cache
	ttl   time.Duration
	log   *zap.Logger
}

func NewCached(next Selector, cache Cache, ttl time.Duration, log *zap.Logger) *Cached {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cached{next: next, cache: cache, ttl: ttl, log: log}
}

func (c *Cached) SelectOrdersByProfit(ctx context.Context) ([]repairs.OptimizedOrder, error) {
	if c.ttl <= 0 {
		return c.next.SelectOrdersByProfit(ctx)
	}

	var cached []repairs.OptimizedOrder
	hit, err := c.cache.GetJSON(ctx, redisx.KeyOptimizedOrders, &cached)
	if err != nil {
		c.log.Warn("ranking cache read failed", zap.Error(err))
	}
	if hit {
		if cached == nil {
			cached = []repairs.OptimizedOrder{}
		}
		return cached, nil
	}

	out, err := c.next.SelectOrdersByProfit(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetJSON(ctx, redisx.KeyOptimizedOrders, out, c.ttl); err != nil {
		c.log.Warn("ranking cache write failed", zap.Error(err))
	}
	return out, nil
}

// Invalidate drops the cached ranking so the next call runs a fresh pass.
func (c *Cached) Invalidate(ctx context.Context) error {
	return c.cache.Delete(ctx, redisx.KeyOptimizedOrders)
}
