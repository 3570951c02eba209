package store

import (
	"context"
	"net/http"
	"strings"

	"github.com/cinaverse/go-client/pkg/apiclient"
	"github.com/google/uuid"
)

// tempIDPrefix marks optimistically created reviews awaiting the server's
// assigned id.
const tempIDPrefix = "tmp_"

// ReviewsByMovie returns the reviews for a movie through the
// stale-while-revalidate cache and seeds the observable review collection
// for that movie.
func (s *Store) ReviewsByMovie(ctx context.Context, id int64) ([]Review, error) {
	mid := movieID(id)
	list, err := fetchAs[[]Review](ctx, s, reviewsKey(mid), apiclient.ReviewsByMoviePath(mid))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	// Don't clobber optimistic entries a concurrent CreateReview is
	// still reconciling.
	if !hasPendingReview(s.reviews[mid]) {
		s.reviews[mid] = append([]Review(nil), list...)
	}
	s.mu.Unlock()
	return list, nil
}

// Reviews returns the observable review collection for a movie: what the UI
// renders, including any optimistic entries still awaiting confirmation.
func (s *Store) Reviews(id int64) []Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Review(nil), s.reviews[movieID(id)]...)
}

// CreateReview appends a temporary review to the movie's collection before
// the network call, so the UI reflects it with zero latency. On success the
// temporary entry is replaced in place by the server's object and the
// movie's cached review list is invalidated; on failure the temporary entry
// is removed and the error returned.
func (s *Store) CreateReview(ctx context.Context, input ReviewInput) (Review, error) {
	mid := movieID(input.MovieID)
	temp := Review{
		ID:      tempIDPrefix + uuid.NewString(),
		MovieID: mid,
		Rating:  input.Rating,
		Comment: input.Comment,
	}

	s.mu.Lock()
	s.reviews[mid] = append(s.reviews[mid], temp)
	s.mu.Unlock()

	body := map[string]any{"movieId": mid, "rating": input.Rating, "comment": input.Comment}
	var created Review
	err := s.client.Do(ctx, http.MethodPost, apiclient.PathReviews, body, &created)

	s.mu.Lock()
	list := s.reviews[mid]
	if err != nil {
		filtered := list[:0:0]
		for _, review := range list {
			if review.ID != temp.ID {
				filtered = append(filtered, review)
			}
		}
		s.reviews[mid] = filtered
		s.mu.Unlock()
		return Review{}, err
	}
	for i, review := range list {
		if review.ID == temp.ID {
			list[i] = created
			break
		}
	}
	s.mu.Unlock()

	s.coord.Invalidate(ctx, reviewsKey(mid))
	return created, nil
}

// UpdateReview replaces a review's rating and comment. The movie's cached
// review list is invalidated when the movie id is known.
func (s *Store) UpdateReview(ctx context.Context, id string, update ReviewUpdate) (Review, error) {
	body := map[string]any{"rating": update.Rating, "comment": update.Comment}
	if update.MovieID != 0 {
		body["movieId"] = movieID(update.MovieID)
	}

	var updated Review
	if err := s.client.Do(ctx, http.MethodPut, apiclient.ReviewPath(id), body, &updated); err != nil {
		return Review{}, err
	}
	if update.MovieID != 0 {
		s.coord.Invalidate(ctx, reviewsKey(movieID(update.MovieID)))
	}
	return updated, nil
}

// DeleteReview removes a review, invalidating the movie's cached review
// list when the movie id is known and the admin review listing in any case.
func (s *Store) DeleteReview(ctx context.Context, id string, forMovie int64) error {
	res, err := s.client.DoRaw(ctx, http.MethodDelete, apiclient.ReviewPath(id), nil)
	if err != nil {
		return err
	}
	_ = res.Body.Close()

	if forMovie != 0 {
		s.coord.Invalidate(ctx, reviewsKey(movieID(forMovie)))
	}
	s.coord.Invalidate(ctx, keyAdminReviews)
	return nil
}

func hasPendingReview(list []Review) bool {
	for _, review := range list {
		if strings.HasPrefix(review.ID, tempIDPrefix) {
			return true
		}
	}
	return false
}
