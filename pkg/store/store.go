// Package store is the top-level surface of the Cinaverse sync layer. It
// wires the request executor, resource cache, fetch coordinator and session
// manager together and exposes the named resource accessors and mutations
// the UI consumes. Reads go through stale-while-revalidate caching; writes
// apply optimistic edits, reconcile with the server's answer, and invalidate
// exactly the cache keys derived from the mutated resource.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cinaverse/go-client/pkg/apiclient"
	"github.com/cinaverse/go-client/pkg/cache"
	"github.com/cinaverse/go-client/pkg/kvstore"
	"github.com/cinaverse/go-client/pkg/session"
	"github.com/cinaverse/go-client/pkg/swr"
	"github.com/rs/zerolog"
)

// defaultWatchlistTTL is how long a watchlist snapshot is served without a
// refetch. Watchlist membership checks are read-heavy and tolerate short
// staleness.
const defaultWatchlistTTL = 60 * time.Second

// Options configures a Store.
type Options struct {
	// BaseURL is the root of the Cinaverse API. Required.
	BaseURL string
	// HTTPClient overrides the transport used for API calls.
	HTTPClient *http.Client
	// UserAgent is sent with every API request when non-empty.
	UserAgent string
	// Durable is the persistent key-value bridge for credential, identity,
	// theme and cache state. Required; see kvstore.NewBadgerStore.
	Durable kvstore.Store
	// Ephemeral holds the credential when a login opts out of "remember
	// me". Defaults to an in-memory store scoped to this process.
	Ephemeral kvstore.Store
	// WatchlistTTL overrides the watchlist snapshot lifetime.
	WatchlistTTL time.Duration
	// Logger is the root logger; components derive their own from it.
	Logger zerolog.Logger
}

// Store is the client-resident sync layer. Construct it once at process
// start; teardown is Session().Logout.
type Store struct {
	client    *apiclient.Client
	coord     *swr.Coordinator
	resources *cache.ResourceCache
	session   *session.Manager
	logger    zerolog.Logger

	watchlistTTL time.Duration

	// mu guards the observable collections and the watchlist snapshot.
	mu           sync.Mutex
	watchlist    watchlistSnapshot
	reviews      map[string][]Review
	adminUsers   []AdminUser
	adminReviews []Review
}

// New builds a fully wired Store and rehydrates cache and session state from
// the durable store.
func New(ctx context.Context, opts *Options) (*Store, error) {
	if opts.Durable == nil {
		return nil, fmt.Errorf("store: a durable kvstore is required")
	}
	ephemeral := opts.Ephemeral
	if ephemeral == nil {
		ephemeral = kvstore.NewInMemoryStore()
	}
	watchlistTTL := opts.WatchlistTTL
	if watchlistTTL <= 0 {
		watchlistTTL = defaultWatchlistTTL
	}

	resources := cache.NewResourceCache(opts.Durable, opts.Logger)
	resources.Rehydrate(ctx)

	manager := session.NewManager(opts.Durable, ephemeral, resources, opts.Logger)
	manager.Rehydrate(ctx)

	client, err := apiclient.New(&apiclient.Config{
		BaseURL:    opts.BaseURL,
		HTTPClient: opts.HTTPClient,
		UserAgent:  opts.UserAgent,
	}, manager, opts.Logger)
	if err != nil {
		return nil, err
	}
	manager.AttachExecutor(client)

	s := &Store{
		client:       client,
		coord:        swr.NewCoordinator(resources, opts.Logger),
		resources:    resources,
		session:      manager,
		logger:       opts.Logger.With().Str("component", "Store").Logger(),
		watchlistTTL: watchlistTTL,
		reviews:      make(map[string][]Review),
	}
	manager.OnLogin(s.prefetchAfterLogin)
	return s, nil
}

// Session exposes the session manager for auth operations and identity
// reads.
func (s *Store) Session() *session.Manager {
	return s.session
}

// SubscribeChanges registers a hook fired with the cache key of every real
// resource change, so a UI can re-render affected views. Unchanged refreshes
// fire nothing.
func (s *Store) SubscribeChanges(fn func(key string)) {
	s.resources.Subscribe(fn)
}

// fetchAs runs a GET for path through the fetch coordinator under key and
// decodes the (possibly cached) payload into T.
func fetchAs[T any](ctx context.Context, s *Store, key, path string) (T, error) {
	var zero T
	raw, err := s.coord.GetOrRefresh(ctx, key, func(fetchCtx context.Context) (json.RawMessage, error) {
		var payload json.RawMessage
		if err := s.client.Do(fetchCtx, http.MethodGet, path, nil, &payload); err != nil {
			return nil, err
		}
		return payload, nil
	})
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("failed to decode cached payload for %q: %w", key, err)
	}
	return out, nil
}
