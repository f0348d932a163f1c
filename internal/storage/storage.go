// Package storage persists the expense collection as one JSON array under a
// single key of a key-value backend.
package storage

import (
	"context"
	"errors"
	"log/slog"

	"expenses/internal/core"
)

// DefaultKey is the key the collection is stored under.
const DefaultKey = "expenses"

var ErrClosed = errors.New("store closed")

// KV is the minimal key-value backend a Store needs.
type KV interface {
	// Get returns the raw value of key; ok is false when the key was never written.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Store loads and saves the full collection.
type Store struct {
	kv     KV
	key    string
	logger *slog.Logger
}

// New creates a Store over kv. An empty key means DefaultKey.
func New(kv KV, key string, logger *slog.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, key: key, logger: logger}
}

// Key returns the storage key in use.
func (s *Store) Key() string {
	return s.key
}

// Load returns the persisted collection. Missing, unreadable or corrupt data
// yields an empty collection so the application can always start.
func (s *Store) Load(ctx context.Context) []core.Expense {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read stored expenses, starting empty", "key", s.key, "error", err)
		return []core.Expense{}
	}
	if !ok {
		return []core.Expense{}
	}

	expenses, skipped, err := Decode(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "Stored expenses are corrupt, starting empty", "key", s.key, "error", err)
		return []core.Expense{}
	}
	if skipped > 0 {
		s.logger.WarnContext(ctx, "Skipped unreadable expense records", "key", s.key, "skipped", skipped)
	}
	s.logger.DebugContext(ctx, "Loaded expenses", "key", s.key, "count", len(expenses))
	return expenses
}

// Save replaces the persisted collection.
func (s *Store) Save(ctx context.Context, expenses []core.Expense) error {
	raw, err := Encode(expenses)
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, s.key, raw); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "Saved expenses", "key", s.key, "count", len(expenses))
	return nil
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.kv.Close()
}
