package store

import (
	"strconv"
	"strings"
)

// Fixed resource cache keys.
const (
	keyTrending        = "trending"
	keyPopular         = "popular"
	keyLatest          = "latest"
	keyGenres          = "genres"
	keyPlans           = "plans"
	keySubscription    = "subscription"
	keyAdminStats      = "admin_stats"
	keyAdminUsers      = "admin_users"
	keyAdminReviews    = "admin_reviews"
	keyAdminWatchlists = "admin_watchlists"
)

func movieID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func searchKey(query string) string {
	return "search_" + strings.ToLower(query)
}

func movieKey(id int64) string {
	return "movie_" + movieID(id)
}

func trailerKey(id int64) string {
	return "trailer_" + movieID(id)
}

func similarKey(id int64) string {
	return "similar_" + movieID(id)
}

func reviewsKey(id string) string {
	return "reviews_" + id
}

func planKey(id string) string {
	return "plan_" + id
}
