// Package pricecache keeps a cached copy of the wrapped exchange's last
// ticker so read-heavy consumers (dashboards, health checks) don't each
// trigger their own upstream call. It is adapted from the teacher's
// pricefeed package, generalized from a multi-market float64 cache to this
// module's single-pair fixed.D Ticker.
package pricecache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arborfi/simtrade/internal/sim"
)

// TickerSource is the one capability the updater needs from the wrapped
// exchange.
type TickerSource interface {
	Ticker(ctx context.Context) (sim.Ticker, error)
}

// Cache stores the most recently fetched ticker in memory.
type Cache struct {
	mu    sync.RWMutex
	last  sim.Ticker
	fresh bool
}

// New returns an empty cache; Get returns ok=false until the first refresh.
func New() *Cache {
	return &Cache{}
}

// Set stores t as the latest ticker.
func (c *Cache) Set(t sim.Ticker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = t
	c.fresh = true
}

// Get returns the latest cached ticker, or ok=false if none has been
// fetched yet.
func (c *Cache) Get() (sim.Ticker, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last, c.fresh
}

// StartUpdater periodically refreshes the cache from source until ctx is
// cancelled.
func StartUpdater(ctx context.Context, source TickerSource, cache *Cache, interval time.Duration, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	refreshOnce(ctx, source, cache, logger)

	for {
		select {
		case <-ticker.C:
			refreshOnce(ctx, source, cache, logger)
		case <-ctx.Done():
			return
		}
	}
}

func refreshOnce(ctx context.Context, source TickerSource, cache *Cache, logger *zap.Logger) {
	t, err := source.Ticker(ctx)
	if err != nil {
		logger.Warn("price cache refresh failed", zap.Error(err))
		return
	}
	cache.Set(t)
	logger.Debug("price cache refreshed", zap.String("last_price", t.LastPrice.String()))
}
