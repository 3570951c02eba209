package apiclient

import "net/url"

// Paths for the fixed Cinaverse API endpoints.
const (
	PathLogin    = "/api/auth/login"
	PathRegister = "/api/auth/register"
	PathLogout   = "/api/auth/logout"

	PathProfile = "/api/users/profile"

	PathTrendingMovies = "/api/movies/trending"
	PathPopularMovies  = "/api/movies/popular"
	PathLatestMovies   = "/api/movies/latest"
	PathGenres         = "/api/movies/genres"

	PathWatchlist = "/api/watchlist"

	PathReviews = "/api/reviews"

	PathChildProfiles = "/api/child-profiles"

	PathAdminStats      = "/api/admin/stats"
	PathAdminUsers      = "/api/admin/users"
	PathAdminReviews    = "/api/admin/reviews"
	PathAdminLogs       = "/api/admin/logs"
	PathAdminWatchlists = "/api/admin/watchlists"

	PathPlans               = "/api/plans"
	PathSubscription        = "/api/subscription"
	PathCreatePaymentIntent = "/api/plans/create-payment-intent"
	PathVerifyPayment       = "/api/plans/verify-payment"
	PathUnsubscribe         = "/api/plans/unsubscribe"
)

// SearchMoviesPath returns the movie search path for a query.
func SearchMoviesPath(query string) string {
	return "/api/movies/search?q=" + url.QueryEscape(query)
}

// MovieDetailsPath returns the details path for a movie id.
func MovieDetailsPath(id string) string {
	return "/api/movies/" + url.PathEscape(id)
}

// MovieTrailerPath returns the trailer path for a movie id.
func MovieTrailerPath(id string) string {
	return "/api/movies/" + url.PathEscape(id) + "/trailer"
}

// SimilarMoviesPath returns the similar-movies path for a movie id.
func SimilarMoviesPath(id string) string {
	return "/api/movies/" + url.PathEscape(id) + "/similar"
}

// WatchlistItemPath returns the path for a single watchlist entry.
func WatchlistItemPath(id string) string {
	return PathWatchlist + "/" + url.PathEscape(id)
}

// ReviewsByMoviePath returns the review-listing path for a movie id.
func ReviewsByMoviePath(movieID string) string {
	return PathReviews + "/movie/" + url.PathEscape(movieID)
}

// ReviewPath returns the path for a single review.
func ReviewPath(id string) string {
	return PathReviews + "/" + url.PathEscape(id)
}

// ChildProfilePath returns the path for a single sub-profile.
func ChildProfilePath(id string) string {
	return PathChildProfiles + "/" + url.PathEscape(id)
}

// AdminUserPath returns the admin path for a single user.
func AdminUserPath(id string) string {
	return PathAdminUsers + "/" + url.PathEscape(id)
}

// AdminUserRolePath returns the admin role-update path for a user.
func AdminUserRolePath(id string) string {
	return PathAdminUsers + "/" + url.PathEscape(id) + "/role"
}

// AdminReviewPath returns the admin path for a single review.
func AdminReviewPath(id string) string {
	return PathAdminReviews + "/" + url.PathEscape(id)
}

// AdminReviewVisibilityPath returns the admin visibility-toggle path for a review.
func AdminReviewVisibilityPath(id string) string {
	return PathAdminReviews + "/" + url.PathEscape(id) + "/visibility"
}

// PlanPath returns the path for a single subscription plan.
func PlanPath(id string) string {
	return PathPlans + "/" + url.PathEscape(id)
}
