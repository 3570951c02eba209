// Package session holds the client's identity state: the bearer credential,
// the authenticated user profile, and the optional active sub-profile. It
// owns the auth operations (login, register, logout, profile update) and is
// the consistency boundary between identities: logging out clears every
// cached resource.
package session

import "fmt"

// User roles returned by the API.
const (
	RoleUser   = "user"
	RoleParent = "parent"
	RoleAdmin  = "admin"
)

// Themes for the persisted display preference.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// User is the identity snapshot returned by the API. After a profile update
// the server's representation replaces the stored one wholesale; there is no
// local merge.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// ChildProfile is a sub-profile scoped under a parent account. Selecting one
// attaches its id to every request so the API can apply its restrictions.
type ChildProfile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	AgeLimit int    `json:"ageLimit,omitempty"`
}

// Credentials are the inputs to Login. Remember controls whether the
// credential is written to the durable store or only to the session-scoped
// one.
type Credentials struct {
	Email    string
	Password string
	Remember bool
}

// Registration are the inputs to Register. When ConfirmPassword is non-empty
// it must match Password; the check never reaches the network.
type Registration struct {
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
	Remember        bool
}

// AuthError reports a malformed or incomplete auth response, such as a login
// reply carrying no access token.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// ValidationError reports client-side input validation failures. These are
// raised before any request is issued.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
