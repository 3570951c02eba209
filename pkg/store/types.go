package store

// Movie is a single title as returned by the movies endpoints.
type Movie struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Overview    string   `json:"overview,omitempty"`
	PosterURL   string   `json:"posterUrl,omitempty"`
	BackdropURL string   `json:"backdropUrl,omitempty"`
	ReleaseDate string   `json:"releaseDate,omitempty"`
	Rating      float64  `json:"rating,omitempty"`
	GenreIDs    []int64  `json:"genreIds,omitempty"`
	Genres      []string `json:"genres,omitempty"`
}

// MovieList is a page of movies.
type MovieList struct {
	Results      []Movie `json:"results"`
	Page         int     `json:"page,omitempty"`
	TotalResults int     `json:"totalResults,omitempty"`
}

// Trailer is the playable trailer for a movie.
type Trailer struct {
	MovieID int64  `json:"movieId"`
	Site    string `json:"site,omitempty"`
	Key     string `json:"key,omitempty"`
	URL     string `json:"url"`
}

// Genre is a movie genre.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// GenreList wraps the genre listing payload.
type GenreList struct {
	Genres []Genre `json:"genres"`
}

// WatchlistItem is a single entry on the authenticated user's watchlist.
// MovieID is a string on the wire.
type WatchlistItem struct {
	ID       string `json:"id"`
	MovieID  string `json:"movieId"`
	Status   string `json:"status"`
	Category string `json:"category,omitempty"`
	AddedAt  string `json:"addedAt,omitempty"`
}

// WatchlistUpdate carries the mutable fields of a watchlist entry.
type WatchlistUpdate struct {
	Status   string `json:"status,omitempty"`
	Category string `json:"category,omitempty"`
}

// Review is a user review of a movie. Optimistically created reviews carry a
// temporary id until the server assigns the real one.
type Review struct {
	ID        string `json:"id"`
	MovieID   string `json:"movieId"`
	UserID    string `json:"userId,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	Hidden    bool   `json:"hidden,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// ReviewInput are the inputs to CreateReview.
type ReviewInput struct {
	MovieID int64
	Rating  int
	Comment string
}

// ReviewUpdate are the inputs to UpdateReview. MovieID, when non-zero, names
// the movie whose cached review list must be invalidated.
type ReviewUpdate struct {
	MovieID int64
	Rating  int
	Comment string
}

// Plan is a subscription plan.
type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Interval string   `json:"interval,omitempty"`
	Features []string `json:"features,omitempty"`
}

// SubscriptionStatus is the authenticated user's current subscription.
type SubscriptionStatus struct {
	PlanID   string `json:"planId"`
	Status   string `json:"status"`
	RenewsAt string `json:"renewsAt,omitempty"`
}

// PaymentIntent is the handle returned when starting a plan purchase.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount,omitempty"`
	Currency     string `json:"currency,omitempty"`
}

// VerifyPaymentInput confirms a completed payment.
type VerifyPaymentInput struct {
	PaymentIntentID string `json:"paymentIntentId"`
	PlanID          string `json:"planId"`
}

// AdminStats is the admin dashboard aggregate.
type AdminStats struct {
	TotalUsers          int `json:"totalUsers"`
	TotalReviews        int `json:"totalReviews"`
	TotalWatchlists     int `json:"totalWatchlists"`
	ActiveSubscriptions int `json:"activeSubscriptions"`
}

// AdminUser is a user row in the admin listing.
type AdminUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// AdminLogEntry is a server log line exposed to admins.
type AdminLogEntry struct {
	ID        string `json:"id"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// AdminWatchlistEntry is one user's watchlist as seen by the monitoring tab.
type AdminWatchlistEntry struct {
	UserID    string          `json:"userId"`
	UserEmail string          `json:"userEmail"`
	Items     []WatchlistItem `json:"items"`
}
