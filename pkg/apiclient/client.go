// Package apiclient provides the authenticated request executor for the
// Cinaverse HTTP API. Every network call made by the client goes through it:
// it injects auth and sub-profile headers, decodes JSON responses, and
// classifies non-success responses into a single error type with a
// best-effort human-readable message.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// maxErrorBody bounds how much of an error response body is read when
// extracting a failure message.
const maxErrorBody = 64 * 1024

// SessionSource supplies the per-request identity context. It is implemented
// by session.Manager; the executor itself holds no session state.
type SessionSource interface {
	// Credential returns the bearer token, or "" when unauthenticated.
	Credential() string
	// ActiveChildID returns the selected sub-profile id, or "".
	ActiveChildID() string
}

// Config holds the configuration for the API client.
type Config struct {
	// BaseURL is the root of the Cinaverse API, e.g. "https://api.cinaverse.app".
	BaseURL string
	// HTTPClient is the transport used for all calls. Defaults to a client
	// with no timeout: the sync layer enforces none of its own, so any
	// deadline discipline belongs to the caller's context or transport.
	HTTPClient *http.Client
	// UserAgent is sent with every request when non-empty.
	UserAgent string
}

// RequestError is the single failure type for executor calls. Network-level
// failures carry Status 0; HTTP-level failures carry the response status and
// a message extracted from the body where possible. Callers cannot
// distinguish the two except by content, which mirrors the upstream API
// contract.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Client executes authenticated requests against the Cinaverse API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    SessionSource
	userAgent  string
	logger     zerolog.Logger
}

// New creates a new Client. The session source may not be nil; use a source
// returning empty strings for unauthenticated use.
func New(cfg *Config, session SessionSource, logger zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("apiclient: BaseURL is required")
	}
	if session == nil {
		return nil, errors.New("apiclient: session source is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		session:    session,
		userAgent:  cfg.UserAgent,
		logger:     logger.With().Str("component", "APIClient").Logger(),
	}, nil
}

// Do executes a request and decodes a 2xx JSON response body into out. A nil
// out discards the body. The request body, when non-nil, is marshalled to
// JSON.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	return c.DoWithHeaders(ctx, method, path, nil, body, out)
}

// DoWithHeaders is Do with caller-supplied headers, which take precedence
// over the executor's own (content-type, authorization, x-child-id).
func (c *Client) DoWithHeaders(ctx context.Context, method, path string, headers http.Header, body, out any) error {
	res, err := c.do(ctx, method, path, headers, body)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &RequestError{Status: res.StatusCode, Message: fmt.Sprintf("failed to decode response: %v", err)}
	}
	return nil
}

// DoRaw executes a request and returns the raw 2xx response for the caller
// to interpret. Used for operations whose success responses carry no body,
// such as deletes. The caller owns closing the response body.
func (c *Client) DoRaw(ctx context.Context, method, path string, body any) (*http.Response, error) {
	return c.do(ctx, method, path, nil, body)
}

func (c *Client) do(ctx context.Context, method, path string, headers http.Header, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	// Header precedence, lowest to highest: fixed content type, bearer
	// credential, sub-profile id, caller-supplied.
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Content-Type", "application/json")
	if cred := c.session.Credential(); cred != "" {
		req.Header.Set("Authorization", "Bearer "+cred)
	}
	if childID := c.session.ActiveChildID(); childID != "" {
		req.Header.Set("x-child-id", childID)
	}
	for name, values := range headers {
		for _, value := range values {
			req.Header.Set(name, value)
		}
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Message: err.Error()}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		message := extractErrorMessage(res)
		_ = res.Body.Close()
		c.logger.Debug().Int("status", res.StatusCode).Str("method", method).Str("path", path).Str("message", message).Msg("Request failed.")
		return nil, &RequestError{Status: res.StatusCode, Message: message}
	}
	return res, nil
}

// extractErrorMessage pulls a human-readable message out of a non-2xx
// response: the JSON "message" field when the content type says JSON, the
// body text otherwise, and a generic "HTTP <status>" string when neither
// yields anything. Extraction failures are swallowed into the fallback and
// never escape as a different error kind.
func extractErrorMessage(res *http.Response) string {
	fallback := fmt.Sprintf("HTTP %d", res.StatusCode)

	body, err := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	if err != nil {
		return fallback
	}

	if strings.Contains(res.Header.Get("Content-Type"), "application/json") {
		var payload struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
			return payload.Message
		}
		return fallback
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fallback
}
