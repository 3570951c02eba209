package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// BadgerConfig holds the configuration for the embedded BadgerDB store.
type BadgerConfig struct {
	// Path is the directory holding the database files. Ignored when
	// InMemory is set.
	Path string
	// InMemory keeps the database entirely in memory. Intended for tests.
	InMemory bool
}

// BadgerStore is the default durable backend: an embedded BadgerDB database
// living alongside the host application, so persisted state survives process
// restarts without any external service.
type BadgerStore struct {
	db     *badger.DB
	logger zerolog.Logger
}

// NewBadgerStore opens (creating if necessary) the database at cfg.Path.
func NewBadgerStore(cfg *BadgerConfig, logger zerolog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	// Badger's own logger is noisy at Info; client state writes are tiny.
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store at %q: %w", cfg.Path, err)
	}

	return &BadgerStore{
		db:     db,
		logger: logger.With().Str("component", "BadgerStore").Logger(),
	}, nil
}

// Get retrieves the value for a key.
func (s *BadgerStore) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("badger get failed for key %q: %w", key, err)
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores a value for a key.
func (s *BadgerStore) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("badger set failed for key %q: %w", key, err)
	}
	return nil
}

// Delete removes a key.
func (s *BadgerStore) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("badger delete failed for key %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	s.logger.Debug().Msg("Closing badger store.")
	return s.db.Close()
}
