package apiclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cinaverse/go-client/pkg/apiclient"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSession is a fixed SessionSource for executor tests.
type stubSession struct {
	credential string
	childID    string
}

func (s *stubSession) Credential() string    { return s.credential }
func (s *stubSession) ActiveChildID() string { return s.childID }

func newTestClient(t *testing.T, handler http.Handler, session apiclient.SessionSource) *apiclient.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := apiclient.New(&apiclient.Config{BaseURL: server.URL}, session, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestClient_HeaderInjection(t *testing.T) {
	ctx := context.Background()

	t.Run("Injects content type, bearer credential and sub-profile id", func(t *testing.T) {
		var got http.Header
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Clone()
			_, _ = w.Write([]byte(`{}`))
		})
		client := newTestClient(t, handler, &stubSession{credential: "tok-1", childID: "child-9"})

		var out map[string]any
		require.NoError(t, client.Do(ctx, http.MethodGet, "/api/movies/trending", nil, &out))

		assert.Equal(t, "application/json", got.Get("Content-Type"))
		assert.Equal(t, "Bearer tok-1", got.Get("Authorization"))
		assert.Equal(t, "child-9", got.Get("x-child-id"))
	})

	t.Run("Omits auth headers when session is empty", func(t *testing.T) {
		var got http.Header
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Clone()
			_, _ = w.Write([]byte(`{}`))
		})
		client := newTestClient(t, handler, &stubSession{})

		var out map[string]any
		require.NoError(t, client.Do(ctx, http.MethodGet, "/", nil, &out))

		assert.Empty(t, got.Get("Authorization"))
		assert.Empty(t, got.Get("x-child-id"))
	})

	t.Run("Caller-supplied headers take precedence", func(t *testing.T) {
		var got http.Header
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Clone()
			_, _ = w.Write([]byte(`{}`))
		})
		client := newTestClient(t, handler, &stubSession{credential: "tok-1"})

		headers := http.Header{}
		headers.Set("Authorization", "Bearer override")

		var out map[string]any
		require.NoError(t, client.DoWithHeaders(ctx, http.MethodPost, "/", headers, map[string]string{"a": "b"}, &out))

		assert.Equal(t, "Bearer override", got.Get("Authorization"))
	})
}

func TestClient_ErrorClassification(t *testing.T) {
	ctx := context.Background()

	t.Run("JSON body with message field", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"subscription required"}`))
		})
		client := newTestClient(t, handler, &stubSession{})

		err := client.Do(ctx, http.MethodGet, "/", nil, nil)
		var reqErr *apiclient.RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, http.StatusForbidden, reqErr.Status)
		assert.Equal(t, "subscription required", reqErr.Message)
	})

	t.Run("JSON body without message falls back to HTTP status", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":"nope"}`))
		})
		client := newTestClient(t, handler, &stubSession{})

		err := client.Do(ctx, http.MethodGet, "/", nil, nil)
		var reqErr *apiclient.RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, "HTTP 502", reqErr.Message)
	})

	t.Run("Malformed JSON body falls back to HTTP status", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{broken`))
		})
		client := newTestClient(t, handler, &stubSession{})

		err := client.Do(ctx, http.MethodGet, "/", nil, nil)
		var reqErr *apiclient.RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, "HTTP 500", reqErr.Message)
	})

	t.Run("Plain text body is used verbatim", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("movie not found"))
		})
		client := newTestClient(t, handler, &stubSession{})

		err := client.Do(ctx, http.MethodGet, "/", nil, nil)
		var reqErr *apiclient.RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, "movie not found", reqErr.Message)
	})

	t.Run("Empty body falls back to HTTP status", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
		client := newTestClient(t, handler, &stubSession{})

		err := client.Do(ctx, http.MethodGet, "/", nil, nil)
		var reqErr *apiclient.RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, "HTTP 418", reqErr.Message)
	})

	t.Run("Transport failure carries status zero", func(t *testing.T) {
		client, err := apiclient.New(&apiclient.Config{BaseURL: "http://127.0.0.1:1"}, &stubSession{}, zerolog.Nop())
		require.NoError(t, err)

		err = client.Do(ctx, http.MethodGet, "/", nil, nil)
		var reqErr *apiclient.RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, 0, reqErr.Status)
		assert.NotEmpty(t, reqErr.Message)
	})
}

func TestClient_DoRaw(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns the raw response for bodiless successes", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			w.WriteHeader(http.StatusNoContent)
		})
		client := newTestClient(t, handler, &stubSession{})

		res, err := client.DoRaw(ctx, http.MethodDelete, "/api/watchlist/w1", nil)
		require.NoError(t, err)
		defer func() { _ = res.Body.Close() }()
		assert.Equal(t, http.StatusNoContent, res.StatusCode)
	})

	t.Run("Still classifies non-2xx responses", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		client := newTestClient(t, handler, &stubSession{})

		_, err := client.DoRaw(ctx, http.MethodDelete, "/api/watchlist/w1", nil)
		var reqErr *apiclient.RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, http.StatusUnauthorized, reqErr.Status)
	})
}

func TestNew_Validation(t *testing.T) {
	_, err := apiclient.New(&apiclient.Config{}, &stubSession{}, zerolog.Nop())
	assert.Error(t, err)

	_, err = apiclient.New(&apiclient.Config{BaseURL: "http://example.com"}, nil, zerolog.Nop())
	assert.Error(t, err)
}
