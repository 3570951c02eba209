package store

import (
	"context"
	"net/http"

	"github.com/cinaverse/go-client/pkg/apiclient"
)

// AdminStats returns the dashboard aggregates.
func (s *Store) AdminStats(ctx context.Context) (AdminStats, error) {
	return fetchAs[AdminStats](ctx, s, keyAdminStats, apiclient.PathAdminStats)
}

// AdminUsers returns the user listing and seeds the observable admin user
// collection.
func (s *Store) AdminUsers(ctx context.Context) ([]AdminUser, error) {
	users, err := fetchAs[[]AdminUser](ctx, s, keyAdminUsers, apiclient.PathAdminUsers)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.adminUsers = append([]AdminUser(nil), users...)
	s.mu.Unlock()
	return users, nil
}

// AdminUsersSnapshot returns the observable admin user collection, including
// any optimistic role edits not yet confirmed.
func (s *Store) AdminUsersSnapshot() []AdminUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AdminUser(nil), s.adminUsers...)
}

// AdminUpdateUserRole changes a user's role, editing the fetched collection
// optimistically. On failure the collection is reloaded wholesale rather
// than rolled back entry by entry; admin mutations are rare enough that the
// extra fetch is acceptable.
func (s *Store) AdminUpdateUserRole(ctx context.Context, id, role string) error {
	s.mu.Lock()
	for i := range s.adminUsers {
		if s.adminUsers[i].ID == id {
			s.adminUsers[i].Role = role
			break
		}
	}
	s.mu.Unlock()

	err := s.client.Do(ctx, http.MethodPatch, apiclient.AdminUserRolePath(id), map[string]string{"role": role}, nil)
	if err != nil {
		s.reloadAdminUsers(ctx)
		return err
	}
	return nil
}

// AdminDeleteUser removes a user account.
func (s *Store) AdminDeleteUser(ctx context.Context, id string) error {
	res, err := s.client.DoRaw(ctx, http.MethodDelete, apiclient.AdminUserPath(id), nil)
	if err != nil {
		return err
	}
	_ = res.Body.Close()
	return nil
}

// AdminReviews returns the full review listing and seeds the observable
// admin review collection.
func (s *Store) AdminReviews(ctx context.Context) ([]Review, error) {
	reviews, err := fetchAs[[]Review](ctx, s, keyAdminReviews, apiclient.PathAdminReviews)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.adminReviews = append([]Review(nil), reviews...)
	s.mu.Unlock()
	return reviews, nil
}

// AdminReviewsSnapshot returns the observable admin review collection.
func (s *Store) AdminReviewsSnapshot() []Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Review(nil), s.adminReviews...)
}

// AdminDeleteReview removes any user's review and invalidates the admin
// listing.
func (s *Store) AdminDeleteReview(ctx context.Context, id string) error {
	res, err := s.client.DoRaw(ctx, http.MethodDelete, apiclient.AdminReviewPath(id), nil)
	if err != nil {
		return err
	}
	_ = res.Body.Close()
	s.coord.Invalidate(ctx, keyAdminReviews)
	return nil
}

// AdminToggleReviewVisibility flips a review's hidden flag, editing the
// fetched collection optimistically; on failure the collection is reloaded
// wholesale, as with role changes. On success the cached admin listing is
// invalidated so the next read refetches.
func (s *Store) AdminToggleReviewVisibility(ctx context.Context, id string) (Review, error) {
	s.mu.Lock()
	for i := range s.adminReviews {
		if s.adminReviews[i].ID == id {
			s.adminReviews[i].Hidden = !s.adminReviews[i].Hidden
			break
		}
	}
	s.mu.Unlock()

	var updated Review
	err := s.client.Do(ctx, http.MethodPatch, apiclient.AdminReviewVisibilityPath(id), nil, &updated)
	if err != nil {
		s.reloadAdminReviews(ctx)
		return Review{}, err
	}

	s.coord.Invalidate(ctx, keyAdminReviews)
	return updated, nil
}

// AdminLogs returns recent server logs. Logs are not cached; each read is a
// fresh fetch.
func (s *Store) AdminLogs(ctx context.Context) ([]AdminLogEntry, error) {
	var logs []AdminLogEntry
	if err := s.client.Do(ctx, http.MethodGet, apiclient.PathAdminLogs, nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// AdminWatchlists returns every user's watchlist for the monitoring tab.
func (s *Store) AdminWatchlists(ctx context.Context) ([]AdminWatchlistEntry, error) {
	return fetchAs[[]AdminWatchlistEntry](ctx, s, keyAdminWatchlists, apiclient.PathAdminWatchlists)
}

// reloadAdminUsers discards the cached listing and refetches it to restore a
// collection after a failed optimistic edit. A failed reload is only logged;
// the original mutation error is what the caller sees.
func (s *Store) reloadAdminUsers(ctx context.Context) {
	s.coord.Invalidate(ctx, keyAdminUsers)
	if _, err := s.AdminUsers(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to reload admin users after rejected mutation.")
	}
}

func (s *Store) reloadAdminReviews(ctx context.Context) {
	s.coord.Invalidate(ctx, keyAdminReviews)
	if _, err := s.AdminReviews(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to reload admin reviews after rejected mutation.")
	}
}
