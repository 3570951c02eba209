// Package swr implements the stale-while-revalidate fetch coordinator: reads
// are served from the resource cache immediately when possible, while a
// deduplicated background refresh keeps the entry fresh. At most one refresh
// is in flight per key, no matter how many callers ask concurrently.
package swr

import (
	"context"
	"encoding/json"

	"github.com/cinaverse/go-client/pkg/cache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// FetchFunc produces the fresh value for a key, normally by calling the
// remote API through the request executor.
type FetchFunc func(ctx context.Context) (json.RawMessage, error)

// Coordinator ties the resource cache to deduplicated refreshes.
type Coordinator struct {
	cache  *cache.ResourceCache
	group  singleflight.Group
	logger zerolog.Logger
}

// NewCoordinator creates a coordinator over the given resource cache.
func NewCoordinator(rc *cache.ResourceCache, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		cache:  rc,
		logger: logger.With().Str("component", "FetchCoordinator").Logger(),
	}
}

// GetOrRefresh returns the cached value for key when one exists, ensuring a
// refresh is in flight unless one already is; the refresh outcome is then
// invisible to this caller (stale data wins over a failed refresh). When no
// cached value exists the caller joins the single in-flight refresh and the
// refresh outcome, success or failure, is the caller's outcome.
//
// On settlement the cache is updated only if the payload differs from the
// current entry, the in-flight marker is dropped unconditionally, and the
// cache is never altered on failure. Settlements apply in the order they
// land, even when an older, slower refresh settles last.
func (c *Coordinator) GetOrRefresh(ctx context.Context, key string, fetch FetchFunc) (json.RawMessage, error) {
	cached, ok := c.cache.Get(key)

	// The refresh is detached from the triggering caller's cancellation:
	// other callers may be sharing this flight, and an abandoned refresh
	// would leave them all empty-handed.
	refreshCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		value, err := fetch(refreshCtx)
		if err != nil {
			return nil, err
		}
		c.cache.Put(refreshCtx, key, value)
		return value, nil
	})

	if ok {
		go func() {
			result := <-ch
			if result.Err != nil {
				c.logger.Debug().Err(result.Err).Str("key", key).Msg("Background refresh failed; serving stale value.")
			}
		}()
		return cached, nil
	}

	result := <-ch
	if result.Err != nil {
		return nil, result.Err
	}
	return result.Val.(json.RawMessage), nil
}

// Invalidate removes a key from the cache so the next read fetches fresh.
// It does not cancel an in-flight refresh for that key; if one settles
// afterwards its value is still applied.
func (c *Coordinator) Invalidate(ctx context.Context, key string) {
	c.cache.Invalidate(ctx, key)
}
