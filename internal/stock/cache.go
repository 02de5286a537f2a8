package stock

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/cache"
)

// DefaultBuildTimeout bounds a shared closing stock rebuild.
const DefaultBuildTimeout = 30 * time.Second

// Cache memoises the closing stock report and collapses concurrent rebuilds.
type Cache struct {
	store        *cache.Versioned
	group        singleflight.Group
	buildTimeout time.Duration
}

// NewCache wraps a versioned store. A nil store still collapses concurrent
// rebuilds but keeps nothing between calls.
func NewCache(store *cache.Versioned) *Cache {
	return &Cache{store: store, buildTimeout: DefaultBuildTimeout}
}

// ClosingStock returns the cached report or builds it with load. The build is
// shared by every concurrent caller, so it runs detached from the caller that
// started it and is bounded by the build timeout instead.
func (c *Cache) ClosingStock(ctx context.Context, load func(context.Context) (Report, error)) (Report, error) {
	key, err := c.store.BuildKey(ctx, "closing")
	if err != nil {
		return Report{}, err
	}
	ch := c.group.DoChan(key, func() (any, error) {
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.buildTimeout)
		defer cancel()
		var report Report
		err := c.store.FetchJSON(buildCtx, key, &report, func(ctx context.Context) (any, error) {
			return load(ctx)
		})
		return report, err
	})
	select {
	case <-ctx.Done():
		return Report{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Report{}, res.Err
		}
		return res.Val.(Report), nil
	}
}

// Invalidate drops every cached report.
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.store.Bump(ctx)
}

// BillsChanged drops cached reports after a bill write.
func (c *Cache) BillsChanged(ctx context.Context) error {
	return c.Invalidate(ctx)
}
