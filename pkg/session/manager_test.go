package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cinaverse/go-client/pkg/apiclient"
	"github.com/cinaverse/go-client/pkg/cache"
	"github.com/cinaverse/go-client/pkg/kvstore"
	"github.com/cinaverse/go-client/pkg/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	manager   *session.Manager
	resources *cache.ResourceCache
	durable   *kvstore.InMemoryStore
	ephemeral *kvstore.InMemoryStore
}

// newFixture wires a manager and executor against the given handler, the
// same way store.New does in production.
func newFixture(t *testing.T, handler http.Handler) *fixture {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	durable := kvstore.NewInMemoryStore()
	ephemeral := kvstore.NewInMemoryStore()
	resources := cache.NewResourceCache(durable, zerolog.Nop())
	manager := session.NewManager(durable, ephemeral, resources, zerolog.Nop())

	client, err := apiclient.New(&apiclient.Config{BaseURL: server.URL}, manager, zerolog.Nop())
	require.NoError(t, err)
	manager.AttachExecutor(client)

	return &fixture{manager: manager, resources: resources, durable: durable, ephemeral: ephemeral}
}

func loginHandler(t *testing.T, token string, user *session.User) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, apiclient.PathLogin, r.URL.Path)
		payload := map[string]any{}
		if token != "" {
			payload["access_token"] = token
		}
		if user != nil {
			payload["user"] = user
		}
		require.NoError(t, json.NewEncoder(w).Encode(payload))
	}
}

func TestManager_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("Success stores credential and identity", func(t *testing.T) {
		user := &session.User{ID: "u1", Email: "a@b.com", Role: session.RoleUser}
		f := newFixture(t, loginHandler(t, "tok-1", user))

		got, err := f.manager.Login(ctx, session.Credentials{Email: "a@b.com", Password: "x", Remember: true})
		require.NoError(t, err)
		assert.Equal(t, "u1", got.ID)

		assert.True(t, f.manager.IsAuthenticated())
		assert.Equal(t, "tok-1", f.manager.Credential())

		var persisted string
		require.NoError(t, kvstore.GetJSON(ctx, f.durable, kvstore.SlotToken, &persisted))
		assert.Equal(t, "tok-1", persisted)
	})

	t.Run("Missing access token fails with AuthError and persists nothing", func(t *testing.T) {
		f := newFixture(t, loginHandler(t, "", &session.User{ID: "u1"}))

		_, err := f.manager.Login(ctx, session.Credentials{Email: "a@b.com", Password: "x", Remember: true})
		var authErr *session.AuthError
		require.ErrorAs(t, err, &authErr)

		assert.False(t, f.manager.IsAuthenticated())
		_, err = f.durable.Get(ctx, kvstore.SlotToken)
		assert.ErrorIs(t, err, kvstore.ErrNotFound)
	})

	t.Run("Missing user profile fails with AuthError and persists nothing", func(t *testing.T) {
		f := newFixture(t, loginHandler(t, "tok-half", nil))

		hooked := make(chan session.User, 1)
		f.manager.OnLogin(func(_ context.Context, user session.User) {
			hooked <- user
		})

		_, err := f.manager.Login(ctx, session.Credentials{Email: "a@b.com", Password: "x", Remember: true})
		var authErr *session.AuthError
		require.ErrorAs(t, err, &authErr)

		assert.False(t, f.manager.IsAuthenticated())
		assert.Empty(t, f.manager.Credential(), "a session must only ever be established whole")
		_, err = f.durable.Get(ctx, kvstore.SlotToken)
		assert.ErrorIs(t, err, kvstore.ErrNotFound)

		select {
		case <-hooked:
			t.Fatal("login hooks must not run for a failed login")
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("Remember=false keeps the credential out of the durable store", func(t *testing.T) {
		f := newFixture(t, loginHandler(t, "tok-2", &session.User{ID: "u2"}))

		_, err := f.manager.Login(ctx, session.Credentials{Email: "a@b.com", Password: "x"})
		require.NoError(t, err)

		_, err = f.durable.Get(ctx, kvstore.SlotToken)
		assert.ErrorIs(t, err, kvstore.ErrNotFound)

		var ephemeralToken string
		require.NoError(t, kvstore.GetJSON(ctx, f.ephemeral, kvstore.SlotToken, &ephemeralToken))
		assert.Equal(t, "tok-2", ephemeralToken)
	})

	t.Run("HTTP failure surfaces the server message", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
		})
		f := newFixture(t, handler)

		_, err := f.manager.Login(ctx, session.Credentials{Email: "a@b.com", Password: "bad"})
		var reqErr *apiclient.RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, "invalid credentials", reqErr.Message)
	})

	t.Run("Login hooks run in the background with the user", func(t *testing.T) {
		f := newFixture(t, loginHandler(t, "tok-3", &session.User{ID: "u3", Role: session.RoleParent}))

		hooked := make(chan session.User, 1)
		f.manager.OnLogin(func(_ context.Context, user session.User) {
			hooked <- user
		})

		_, err := f.manager.Login(ctx, session.Credentials{Email: "a@b.com", Password: "x"})
		require.NoError(t, err)

		select {
		case user := <-hooked:
			assert.Equal(t, session.RoleParent, user.Role)
		case <-time.After(5 * time.Second):
			t.Fatal("login hook did not run")
		}
	})
}

func TestManager_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("Chains into login", func(t *testing.T) {
		var registered atomic.Bool
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case apiclient.PathRegister:
				registered.Store(true)
				w.WriteHeader(http.StatusCreated)
			case apiclient.PathLogin:
				loginHandler(t, "tok-r", &session.User{ID: "u-r"})(w, r)
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		})
		f := newFixture(t, handler)

		user, err := f.manager.Register(ctx, session.Registration{Email: "a@b.com", Password: "x", Remember: true})
		require.NoError(t, err)
		assert.True(t, registered.Load())
		assert.Equal(t, "u-r", user.ID)
		assert.True(t, f.manager.IsAuthenticated())
	})

	t.Run("Password confirmation mismatch never reaches the network", func(t *testing.T) {
		handler := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected request to %s", r.URL.Path)
		})
		f := newFixture(t, handler)

		_, err := f.manager.Register(ctx, session.Registration{Email: "a@b.com", Password: "x", ConfirmPassword: "y"})
		var valErr *session.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, "confirmPassword", valErr.Field)
	})
}

func TestManager_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("Clears state, slots and resource cache; notifies server best-effort", func(t *testing.T) {
		logoutCalls := make(chan string, 1)
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case apiclient.PathLogin:
				loginHandler(t, "tok-out", &session.User{ID: "u1"})(w, r)
			case apiclient.PathLogout:
				logoutCalls <- r.Header.Get("Authorization")
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		})
		f := newFixture(t, handler)

		_, err := f.manager.Login(ctx, session.Credentials{Email: "a@b.com", Password: "x", Remember: true})
		require.NoError(t, err)
		f.manager.SelectChildProfile(ctx, "child-1")
		f.resources.Put(ctx, "trending", json.RawMessage(`{"results":[]}`))

		f.manager.Logout(ctx)

		assert.False(t, f.manager.IsAuthenticated())
		assert.Empty(t, f.manager.Credential())
		assert.Empty(t, f.manager.ActiveChildID())
		assert.Equal(t, 0, f.resources.Len())

		for _, slot := range []string{kvstore.SlotToken, kvstore.SlotUser, kvstore.SlotChildID} {
			_, err := f.durable.Get(ctx, slot)
			assert.ErrorIs(t, err, kvstore.ErrNotFound, slot)
		}

		select {
		case auth := <-logoutCalls:
			assert.Equal(t, "Bearer tok-out", auth)
		case <-time.After(5 * time.Second):
			t.Fatal("server was not notified of logout")
		}
	})

	t.Run("Logout is locally effective when the server rejects the notify", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == apiclient.PathLogin {
				loginHandler(t, "tok-x", &session.User{ID: "u1"})(w, r)
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
		})
		f := newFixture(t, handler)
		_, err := f.manager.Login(ctx, session.Credentials{Email: "a@b.com", Password: "x"})
		require.NoError(t, err)

		f.manager.Logout(ctx)
		assert.False(t, f.manager.IsAuthenticated())
	})
}

func TestManager_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case apiclient.PathLogin:
			loginHandler(t, "tok-p", &session.User{ID: "u1", FirstName: "Old", Role: session.RoleUser})(w, r)
		case apiclient.PathProfile:
			require.Equal(t, http.MethodPut, r.Method)
			// Server representation replaces the local one wholesale.
			require.NoError(t, json.NewEncoder(w).Encode(session.User{ID: "u1", FirstName: "New", Role: session.RoleAdmin}))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	f := newFixture(t, handler)

	_, err := f.manager.Login(ctx, session.Credentials{Email: "a@b.com", Password: "x", Remember: true})
	require.NoError(t, err)

	updated, err := f.manager.UpdateProfile(ctx, map[string]any{"firstName": "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.FirstName)
	assert.Equal(t, session.RoleAdmin, f.manager.User().Role)

	var persisted session.User
	require.NoError(t, kvstore.GetJSON(ctx, f.durable, kvstore.SlotUser, &persisted))
	assert.Equal(t, "New", persisted.FirstName)
}

func TestManager_Rehydrate(t *testing.T) {
	ctx := context.Background()

	t.Run("Restores a remembered session", func(t *testing.T) {
		durable := kvstore.NewInMemoryStore()
		require.NoError(t, kvstore.SetJSON(ctx, durable, kvstore.SlotToken, "tok-old"))
		require.NoError(t, kvstore.SetJSON(ctx, durable, kvstore.SlotUser, session.User{ID: "u9", Email: "old@b.com"}))
		require.NoError(t, kvstore.SetJSON(ctx, durable, kvstore.SlotTheme, session.ThemeLight))

		resources := cache.NewResourceCache(durable, zerolog.Nop())
		manager := session.NewManager(durable, kvstore.NewInMemoryStore(), resources, zerolog.Nop())
		manager.Rehydrate(ctx)

		assert.True(t, manager.IsAuthenticated())
		assert.Equal(t, "tok-old", manager.Credential())
		assert.Equal(t, session.ThemeLight, manager.Theme())
	})

	t.Run("Corrupt slots degrade to a signed-out session", func(t *testing.T) {
		durable := kvstore.NewInMemoryStore()
		require.NoError(t, durable.Set(ctx, kvstore.SlotToken, []byte(`{broken`)))

		resources := cache.NewResourceCache(durable, zerolog.Nop())
		manager := session.NewManager(durable, kvstore.NewInMemoryStore(), resources, zerolog.Nop())
		manager.Rehydrate(ctx)

		assert.False(t, manager.IsAuthenticated())
	})
}

func TestManager_ThemeAndChildProfile(t *testing.T) {
	ctx := context.Background()
	durable := kvstore.NewInMemoryStore()
	resources := cache.NewResourceCache(durable, zerolog.Nop())
	manager := session.NewManager(durable, kvstore.NewInMemoryStore(), resources, zerolog.Nop())

	assert.Equal(t, session.ThemeDark, manager.Theme())
	assert.Equal(t, session.ThemeLight, manager.ToggleTheme(ctx))
	assert.Equal(t, session.ThemeDark, manager.ToggleTheme(ctx))

	manager.SelectChildProfile(ctx, "child-7")
	assert.Equal(t, "child-7", manager.ActiveChildID())

	var persisted string
	require.NoError(t, kvstore.GetJSON(ctx, durable, kvstore.SlotChildID, &persisted))
	assert.Equal(t, "child-7", persisted)

	manager.ClearChildProfile(ctx)
	assert.Empty(t, manager.ActiveChildID())
}
