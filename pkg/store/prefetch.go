package store

import (
	"context"

	"github.com/cinaverse/go-client/pkg/session"
)

// prefetchAfterLogin warms the caches a fresh session is about to need. It
// runs as a login hook, after the login itself has returned, and every task
// is scheduled independently with its failure swallowed: prefetching is pure
// opportunism and never part of the login contract.
func (s *Store) prefetchAfterLogin(ctx context.Context, user session.User) {
	type task struct {
		name string
		run  func(context.Context) error
	}

	tasks := []task{
		{"trending", func(ctx context.Context) error { _, err := s.TrendingMovies(ctx); return err }},
		{"latest", func(ctx context.Context) error { _, err := s.LatestMovies(ctx); return err }},
		{"plans", func(ctx context.Context) error { _, err := s.Plans(ctx); return err }},
		{"subscription", func(ctx context.Context) error { _, err := s.Subscription(ctx); return err }},
		{"watchlist", func(ctx context.Context) error { _, err := s.Watchlist(ctx, false); return err }},
		{"genres", func(ctx context.Context) error { _, err := s.Genres(ctx); return err }},
	}
	if user.Role == session.RoleParent {
		tasks = append(tasks, task{"child_profiles", func(ctx context.Context) error {
			_, err := s.ChildProfiles(ctx)
			return err
		}})
	}

	for _, tk := range tasks {
		go func(tk task) {
			if err := tk.run(ctx); err != nil {
				s.logger.Debug().Err(err).Str("resource", tk.name).Msg("Post-login prefetch failed.")
			}
		}(tk)
	}
}
