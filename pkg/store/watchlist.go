package store

import (
	"context"
	"net/http"
	"time"

	"github.com/cinaverse/go-client/pkg/apiclient"
)

// watchlistSnapshot is the separately timed watchlist cache: a single entry
// with its own TTL, outside the keyed resource cache.
type watchlistSnapshot struct {
	data      []WatchlistItem
	fetchedAt time.Time
}

// Watchlist returns the user's watchlist, serving a snapshot younger than
// the configured TTL unless force is set.
func (s *Store) Watchlist(ctx context.Context, force bool) ([]WatchlistItem, error) {
	s.mu.Lock()
	if !force && s.watchlist.data != nil && time.Since(s.watchlist.fetchedAt) < s.watchlistTTL {
		items := append([]WatchlistItem(nil), s.watchlist.data...)
		s.mu.Unlock()
		return items, nil
	}
	s.mu.Unlock()

	var items []WatchlistItem
	if err := s.client.Do(ctx, http.MethodGet, apiclient.PathWatchlist, nil, &items); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.watchlist = watchlistSnapshot{data: items, fetchedAt: time.Now()}
	s.mu.Unlock()
	return append([]WatchlistItem(nil), items...), nil
}

// AddToWatchlist adds a movie and resets the snapshot so the next read
// refetches. Status defaults to "pending" server-side semantics when empty.
func (s *Store) AddToWatchlist(ctx context.Context, id int64, status, category string) (WatchlistItem, error) {
	if status == "" {
		status = "pending"
	}
	body := map[string]string{"movieId": movieID(id), "status": status, "category": category}

	var item WatchlistItem
	if err := s.client.Do(ctx, http.MethodPost, apiclient.PathWatchlist, body, &item); err != nil {
		return WatchlistItem{}, err
	}
	s.resetWatchlistSnapshot()
	return item, nil
}

// RemoveFromWatchlist deletes an entry and resets the snapshot.
func (s *Store) RemoveFromWatchlist(ctx context.Context, id string) error {
	res, err := s.client.DoRaw(ctx, http.MethodDelete, apiclient.WatchlistItemPath(id), nil)
	if err != nil {
		return err
	}
	_ = res.Body.Close()
	s.resetWatchlistSnapshot()
	return nil
}

// UpdateWatchlist patches an entry and resets the snapshot.
func (s *Store) UpdateWatchlist(ctx context.Context, id string, update WatchlistUpdate) (WatchlistItem, error) {
	var item WatchlistItem
	if err := s.client.Do(ctx, http.MethodPatch, apiclient.WatchlistItemPath(id), update, &item); err != nil {
		return WatchlistItem{}, err
	}
	s.resetWatchlistSnapshot()
	return item, nil
}

func (s *Store) resetWatchlistSnapshot() {
	s.mu.Lock()
	s.watchlist = watchlistSnapshot{}
	s.mu.Unlock()
}
