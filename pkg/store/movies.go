package store

import (
	"context"
	"strings"

	"github.com/cinaverse/go-client/pkg/apiclient"
)

// SearchMovies returns search results for the query. An empty query returns
// an empty result without touching the network; results are cached per
// lower-cased query.
func (s *Store) SearchMovies(ctx context.Context, query string) (MovieList, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return MovieList{Results: []Movie{}}, nil
	}
	return fetchAs[MovieList](ctx, s, searchKey(trimmed), apiclient.SearchMoviesPath(trimmed))
}

// TrendingMovies returns the trending listing.
func (s *Store) TrendingMovies(ctx context.Context) (MovieList, error) {
	return fetchAs[MovieList](ctx, s, keyTrending, apiclient.PathTrendingMovies)
}

// PopularMovies returns the popular listing.
func (s *Store) PopularMovies(ctx context.Context) (MovieList, error) {
	return fetchAs[MovieList](ctx, s, keyPopular, apiclient.PathPopularMovies)
}

// LatestMovies returns the latest listing.
func (s *Store) LatestMovies(ctx context.Context) (MovieList, error) {
	return fetchAs[MovieList](ctx, s, keyLatest, apiclient.PathLatestMovies)
}

// MovieDetails returns a single movie.
func (s *Store) MovieDetails(ctx context.Context, id int64) (Movie, error) {
	return fetchAs[Movie](ctx, s, movieKey(id), apiclient.MovieDetailsPath(movieID(id)))
}

// MovieTrailer returns the trailer for a movie.
func (s *Store) MovieTrailer(ctx context.Context, id int64) (Trailer, error) {
	return fetchAs[Trailer](ctx, s, trailerKey(id), apiclient.MovieTrailerPath(movieID(id)))
}

// SimilarMovies returns titles similar to a movie.
func (s *Store) SimilarMovies(ctx context.Context, id int64) (MovieList, error) {
	return fetchAs[MovieList](ctx, s, similarKey(id), apiclient.SimilarMoviesPath(movieID(id)))
}

// Genres returns the genre list.
func (s *Store) Genres(ctx context.Context) ([]Genre, error) {
	list, err := fetchAs[GenreList](ctx, s, keyGenres, apiclient.PathGenres)
	if err != nil {
		return nil, err
	}
	return list.Genres, nil
}
