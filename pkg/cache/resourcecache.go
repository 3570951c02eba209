// Package cache provides the keyed resource cache for the Cinaverse sync
// layer: last-known-good JSON payloads addressed by opaque resource keys
// (e.g. "movie_42"), persisted through the key-value bridge so warm data
// survives process restarts.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"time"

	"github.com/cinaverse/go-client/pkg/kvstore"
	"github.com/rs/zerolog"
)

// persistTimeout bounds the background write of the cache snapshot to the
// key-value bridge.
const persistTimeout = 10 * time.Second

// ResourceCache maps resource keys to their last-known-good JSON values.
// Absence of a key means "unknown", never "empty". It is owned exclusively
// by the sync layer; consumers only ever see values through accessors.
type ResourceCache struct {
	mu      sync.RWMutex
	entries map[string]json.RawMessage
	subs    []func(key string)
	// gen increases on every mutation and stamps the snapshot each one
	// produces, so out-of-order background persists can be detected.
	gen uint64

	// persistMu serializes all writes and deletes of the persisted
	// snapshot. persistedGen is the generation currently on disk; a
	// snapshot older than it is never written.
	persistMu    sync.Mutex
	persistedGen uint64

	store  kvstore.Store
	logger zerolog.Logger
}

// NewResourceCache creates a cache persisting to store. Call Rehydrate to
// load any previously persisted snapshot before first use.
func NewResourceCache(store kvstore.Store, logger zerolog.Logger) *ResourceCache {
	return &ResourceCache{
		entries: make(map[string]json.RawMessage),
		store:   store,
		logger:  logger.With().Str("component", "ResourceCache").Logger(),
	}
}

// Rehydrate loads the persisted snapshot. A missing or corrupt snapshot
// leaves the cache empty; it is never an error.
func (c *ResourceCache) Rehydrate(ctx context.Context) {
	var entries map[string]json.RawMessage
	err := kvstore.GetJSON(ctx, c.store, kvstore.SlotResourceCache, &entries)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			c.logger.Warn().Err(err).Msg("Failed to rehydrate resource cache; starting empty.")
		}
		return
	}
	c.mu.Lock()
	c.entries = entries
	if c.entries == nil {
		c.entries = make(map[string]json.RawMessage)
	}
	c.mu.Unlock()
	c.logger.Debug().Int("entries", len(entries)).Msg("Rehydrated resource cache.")
}

// Subscribe registers a hook fired with the key of every real change: a
// differing write, an invalidation, or each key removed by Clear. Suppressed
// no-op writes fire nothing.
func (c *ResourceCache) Subscribe(fn func(key string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// Get returns the cached value for a key, if any.
func (c *ResourceCache) Get(key string) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[key]
	return value, ok
}

// Keys returns the keys currently present.
func (c *ResourceCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return keys
}

// Len returns the number of cached entries.
func (c *ResourceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Put stores a value for a key unless the current value is structurally
// equal, in which case nothing happens: no write, no notification, no
// persistence. It reports whether a write occurred.
func (c *ResourceCache) Put(ctx context.Context, key string, value json.RawMessage) bool {
	c.mu.Lock()
	if current, ok := c.entries[key]; ok && jsonEqual(current, value) {
		c.mu.Unlock()
		return false
	}
	c.entries[key] = value
	snapshot, gen := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(key)
	c.persist(ctx, snapshot, gen)
	return true
}

// Invalidate removes a key so the next read triggers a fresh fetch.
func (c *ResourceCache) Invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	_, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.entries, key)
	snapshot, gen := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(key)
	c.persist(ctx, snapshot, gen)
}

// Clear removes every entry and deletes the persisted snapshot. Used at
// logout: no cached data may leak across identities.
func (c *ResourceCache) Clear(ctx context.Context) {
	c.mu.Lock()
	removed := make([]string, 0, len(c.entries))
	for key := range c.entries {
		removed = append(removed, key)
	}
	c.entries = make(map[string]json.RawMessage)
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	for _, key := range removed {
		c.notify(key)
	}

	// The delete advances persistedGen past every snapshot taken before
	// the clear, so an in-flight persist of pre-clear data becomes a
	// no-op instead of resurrecting it.
	c.persistMu.Lock()
	defer c.persistMu.Unlock()
	if err := c.store.Delete(ctx, kvstore.SlotResourceCache); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to delete persisted resource cache.")
	}
	c.persistedGen = gen
}

func (c *ResourceCache) notify(key string) {
	c.mu.RLock()
	subs := make([]func(string), len(c.subs))
	copy(subs, c.subs)
	c.mu.RUnlock()

	for _, fn := range subs {
		fn(key)
	}
}

// snapshotLocked copies the map and stamps it with the next generation.
// Callers must hold mu.
func (c *ResourceCache) snapshotLocked() (map[string]json.RawMessage, uint64) {
	c.gen++
	snapshot := make(map[string]json.RawMessage, len(c.entries))
	for key, value := range c.entries {
		snapshot[key] = value
	}
	return snapshot, c.gen
}

// persist writes a stamped snapshot to the bridge in the background, off the
// caller's path. Writes are serialized and a snapshot older than the one
// already on disk (or than a clear) is dropped, so the persisted state never
// moves backwards. Persistence failures degrade to an unpersisted cache and
// are only logged.
func (c *ResourceCache) persist(ctx context.Context, snapshot map[string]json.RawMessage, gen uint64) {
	go func() {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		defer cancel()

		c.persistMu.Lock()
		defer c.persistMu.Unlock()
		if gen <= c.persistedGen {
			return
		}
		if err := kvstore.SetJSON(writeCtx, c.store, kvstore.SlotResourceCache, snapshot); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to persist resource cache in background.")
			return
		}
		c.persistedGen = gen
	}()
}

// jsonEqual reports whether two JSON payloads are structurally equal,
// ignoring key order and whitespace.
func jsonEqual(a, b json.RawMessage) bool {
	if bytes.Equal(a, b) {
		return true
	}
	var av, bv any
	if json.Unmarshal(a, &av) != nil || json.Unmarshal(b, &bv) != nil {
		return false
	}
	return reflect.DeepEqual(av, bv)
}
