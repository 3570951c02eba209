package session

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/cinaverse/go-client/pkg/apiclient"
	"github.com/cinaverse/go-client/pkg/cache"
	"github.com/cinaverse/go-client/pkg/kvstore"
	"github.com/rs/zerolog"
)

// Executor is the slice of the request executor the session layer needs.
// Satisfied by *apiclient.Client.
type Executor interface {
	Do(ctx context.Context, method, path string, body, out any) error
	DoWithHeaders(ctx context.Context, method, path string, headers http.Header, body, out any) error
}

// Manager owns the session state. It implements apiclient.SessionSource, so
// the executor reads the credential and active sub-profile from here on
// every request.
//
// Construction is two-step because the executor and the manager reference
// each other: create the manager, build the executor over it, then
// AttachExecutor. The store package does this wiring.
type Manager struct {
	mu            sync.RWMutex
	credential    string
	user          *User
	activeChildID string
	childProfiles []ChildProfile
	theme         string

	executor  Executor
	durable   kvstore.Store
	ephemeral kvstore.Store
	resources *cache.ResourceCache
	logger    zerolog.Logger

	hooksMu    sync.Mutex
	loginHooks []func(ctx context.Context, user User)
}

// NewManager creates a session manager persisting durable state (credential
// when remembered, identity snapshot, sub-profile selection, theme) to
// durable and session-only credentials to ephemeral. Call Rehydrate before
// first use to restore a previous session.
func NewManager(durable, ephemeral kvstore.Store, resources *cache.ResourceCache, logger zerolog.Logger) *Manager {
	return &Manager{
		theme:     ThemeDark,
		durable:   durable,
		ephemeral: ephemeral,
		resources: resources,
		logger:    logger.With().Str("component", "SessionManager").Logger(),
	}
}

// AttachExecutor wires the request executor. Must be called before any auth
// operation.
func (m *Manager) AttachExecutor(e Executor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executor = e
}

// OnLogin registers a hook run in the background after every successful
// login. Hooks are best-effort; their failures never affect the login.
func (m *Manager) OnLogin(hook func(ctx context.Context, user User)) {
	m.hooksMu.Lock()
	defer m.hooksMu.Unlock()
	m.loginHooks = append(m.loginHooks, hook)
}

// Rehydrate restores persisted session state. Corrupt or missing slots are
// treated as absent.
func (m *Manager) Rehydrate(ctx context.Context) {
	var credential string
	if err := kvstore.GetJSON(ctx, m.durable, kvstore.SlotToken, &credential); err != nil {
		credential = ""
		if err := kvstore.GetJSON(ctx, m.ephemeral, kvstore.SlotToken, &credential); err != nil {
			credential = ""
		}
	}

	var user *User
	if err := kvstore.GetJSON(ctx, m.durable, kvstore.SlotUser, &user); err != nil {
		user = nil
	}

	var childID string
	if err := kvstore.GetJSON(ctx, m.durable, kvstore.SlotChildID, &childID); err != nil {
		childID = ""
	}

	theme := ThemeDark
	if err := kvstore.GetJSON(ctx, m.durable, kvstore.SlotTheme, &theme); err != nil || theme == "" {
		theme = ThemeDark
	}

	m.mu.Lock()
	m.credential = credential
	m.user = user
	m.activeChildID = childID
	m.theme = theme
	m.mu.Unlock()

	if credential != "" && user != nil {
		m.logger.Debug().Str("email", user.Email).Msg("Restored previous session.")
	}
}

// Credential returns the bearer token, or "" when unauthenticated.
func (m *Manager) Credential() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.credential
}

// ActiveChildID returns the selected sub-profile id, or "".
func (m *Manager) ActiveChildID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeChildID
}

// User returns a copy of the authenticated user, or nil.
func (m *Manager) User() *User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	user := *m.user
	return &user
}

// IsAuthenticated reports whether both a credential and an identity are
// present.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.credential != "" && m.user != nil
}

// ChildProfiles returns a copy of the cached sub-profile list.
func (m *Manager) ChildProfiles() []ChildProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ChildProfile(nil), m.childProfiles...)
}

// SetChildProfiles replaces the cached sub-profile list. Called by the store
// after fetching or mutating profiles.
func (m *Manager) SetChildProfiles(profiles []ChildProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.childProfiles = append([]ChildProfile(nil), profiles...)
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

// Login authenticates against the API. A response missing the access token
// or the user profile fails with *AuthError and persists nothing; a session
// is only ever established whole. On success the credential and identity are
// stored (durably only when creds.Remember is set) and the registered login
// hooks run in the background.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*User, error) {
	executor, err := m.requireExecutor()
	if err != nil {
		return nil, err
	}

	var payload loginResponse
	body := map[string]string{"email": creds.Email, "password": creds.Password}
	if err := executor.Do(ctx, http.MethodPost, apiclient.PathLogin, body, &payload); err != nil {
		return nil, err
	}
	if payload.AccessToken == "" {
		return nil, &AuthError{Message: "no access token received"}
	}
	if payload.User == nil {
		return nil, &AuthError{Message: "no user profile received"}
	}

	m.mu.Lock()
	m.credential = payload.AccessToken
	m.user = payload.User
	m.mu.Unlock()

	m.persistCredential(ctx, payload.AccessToken, creds.Remember)
	m.persistJSON(ctx, kvstore.SlotUser, payload.User)

	m.runLoginHooks(ctx, *payload.User)
	result := *payload.User
	return &result, nil
}

// Register creates an account and chains into Login with the same
// credentials; a login failure after successful registration is reported as
// the login failure.
func (m *Manager) Register(ctx context.Context, reg Registration) (*User, error) {
	if reg.ConfirmPassword != "" && reg.ConfirmPassword != reg.Password {
		return nil, &ValidationError{Field: "confirmPassword", Message: "password confirmation does not match"}
	}

	executor, err := m.requireExecutor()
	if err != nil {
		return nil, err
	}

	body := map[string]string{
		"email":     reg.Email,
		"password":  reg.Password,
		"firstName": reg.FirstName,
		"lastName":  reg.LastName,
	}
	if err := executor.Do(ctx, http.MethodPost, apiclient.PathRegister, body, nil); err != nil {
		return nil, err
	}

	return m.Login(ctx, Credentials{Email: reg.Email, Password: reg.Password, Remember: reg.Remember})
}

// Logout tears the session down locally first: credential, identity,
// sub-profile selection and list, persisted slots, and the entire resource
// cache are cleared synchronously. The server is then notified best-effort;
// a failure there is ignored, so logout succeeds even offline.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	credential := m.credential
	executor := m.executor
	m.credential = ""
	m.user = nil
	m.activeChildID = ""
	m.childProfiles = nil
	m.mu.Unlock()

	for _, slot := range []string{kvstore.SlotToken, kvstore.SlotUser, kvstore.SlotChildID} {
		if err := m.durable.Delete(ctx, slot); err != nil {
			m.logger.Warn().Err(err).Str("slot", slot).Msg("Failed to clear persisted session slot.")
		}
	}
	if err := m.ephemeral.Delete(ctx, kvstore.SlotToken); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to clear session-scoped credential.")
	}

	m.resources.Clear(ctx)

	if executor == nil || credential == "" {
		return
	}
	notifyCtx := context.WithoutCancel(ctx)
	go func() {
		headers := http.Header{}
		headers.Set("Authorization", "Bearer "+credential)
		if err := executor.DoWithHeaders(notifyCtx, http.MethodPost, apiclient.PathLogout, headers, nil, nil); err != nil {
			m.logger.Debug().Err(err).Msg("Server logout notification failed; session is already cleared locally.")
		}
	}()
}

// UpdateProfile sends the given field updates and replaces the stored
// identity with the server's returned representation.
func (m *Manager) UpdateProfile(ctx context.Context, updates map[string]any) (*User, error) {
	executor, err := m.requireExecutor()
	if err != nil {
		return nil, err
	}

	var user User
	if err := executor.Do(ctx, http.MethodPut, apiclient.PathProfile, updates, &user); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.user = &user
	m.mu.Unlock()
	m.persistJSON(ctx, kvstore.SlotUser, &user)

	result := user
	return &result, nil
}

// SelectChildProfile makes the given sub-profile the active request context.
func (m *Manager) SelectChildProfile(ctx context.Context, id string) {
	m.mu.Lock()
	m.activeChildID = id
	m.mu.Unlock()
	m.persistJSON(ctx, kvstore.SlotChildID, id)
}

// ClearChildProfile clears the active sub-profile selection.
func (m *Manager) ClearChildProfile(ctx context.Context) {
	m.mu.Lock()
	m.activeChildID = ""
	m.mu.Unlock()
	if err := m.durable.Delete(ctx, kvstore.SlotChildID); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to clear persisted sub-profile selection.")
	}
}

// Theme returns the persisted display theme.
func (m *Manager) Theme() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.theme
}

// SetTheme stores and persists the display theme.
func (m *Manager) SetTheme(ctx context.Context, theme string) {
	m.mu.Lock()
	m.theme = theme
	m.mu.Unlock()
	m.persistJSON(ctx, kvstore.SlotTheme, theme)
}

// ToggleTheme flips between dark and light and returns the new theme.
func (m *Manager) ToggleTheme(ctx context.Context) string {
	m.mu.Lock()
	if m.theme == ThemeDark {
		m.theme = ThemeLight
	} else {
		m.theme = ThemeDark
	}
	theme := m.theme
	m.mu.Unlock()
	m.persistJSON(ctx, kvstore.SlotTheme, theme)
	return theme
}

func (m *Manager) requireExecutor() (Executor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.executor == nil {
		return nil, errors.New("session: no executor attached")
	}
	return m.executor, nil
}

// persistCredential writes the token to the durable store when remembered,
// otherwise to the session-scoped store only. The other slot is cleared so a
// previous session's credential cannot resurface.
func (m *Manager) persistCredential(ctx context.Context, credential string, remember bool) {
	if remember {
		m.persistJSON(ctx, kvstore.SlotToken, credential)
		if err := m.ephemeral.Delete(ctx, kvstore.SlotToken); err != nil {
			m.logger.Warn().Err(err).Msg("Failed to clear session-scoped credential.")
		}
		return
	}
	if err := kvstore.SetJSON(ctx, m.ephemeral, kvstore.SlotToken, credential); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to store session-scoped credential.")
	}
	if err := m.durable.Delete(ctx, kvstore.SlotToken); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to clear persisted credential.")
	}
}

// persistJSON writes a slot to the durable store. Persistence failures are
// logged and swallowed: they degrade restart behaviour, not the session.
func (m *Manager) persistJSON(ctx context.Context, slot string, v any) {
	if err := kvstore.SetJSON(ctx, m.durable, slot, v); err != nil {
		m.logger.Warn().Err(err).Str("slot", slot).Msg("Failed to persist session state.")
	}
}

// runLoginHooks schedules each registered hook on its own goroutine,
// detached from the login caller's context.
func (m *Manager) runLoginHooks(ctx context.Context, user User) {
	m.hooksMu.Lock()
	hooks := make([]func(context.Context, User), len(m.loginHooks))
	copy(hooks, m.loginHooks)
	m.hooksMu.Unlock()

	hookCtx := context.WithoutCancel(ctx)
	for _, hook := range hooks {
		go hook(hookCtx, user)
	}
}
