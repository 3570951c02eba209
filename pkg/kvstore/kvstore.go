// Package kvstore provides the durable key-value bridge used to carry client
// state (credential, identity snapshot, theme, resource cache) across process
// restarts.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound is returned when a key has no stored value. A corrupt stored
// value is also reported as ErrNotFound: the bridge treats unreadable data as
// absent, never as fatal.
var ErrNotFound = errors.New("key not found in store")

// Fixed slot names for the state the client persists between runs.
const (
	SlotToken         = "cinaverse_token"
	SlotUser          = "cinaverse_user"
	SlotChildID       = "cinaverse_child_id"
	SlotTheme         = "cinaverse_theme"
	SlotResourceCache = "cinaverse_movie_cache"
)

// Store is the contract for a durable key-value backend. Values are opaque
// byte slices; JSON framing is layered on top via GetJSON and SetJSON.
type Store interface {
	// Get retrieves the value for a key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value for a key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Closer is included for implementations that manage files or connections.
	io.Closer
}

// GetJSON reads a key and unmarshals its value into out. A value that fails
// to decode is reported as ErrNotFound so that stale or corrupt persisted
// state degrades to "absent" rather than poisoning startup.
func GetJSON(ctx context.Context, s Store, key string, out any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("corrupt value for key %q: %w", key, ErrNotFound)
	}
	return nil
}

// SetJSON marshals v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %q: %w", key, err)
	}
	return s.Set(ctx, key, data)
}
