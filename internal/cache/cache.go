// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

// Package cache provides a BadgerDB-backed TTL cache. It fronts the
// explanation store so hot "why this article" lookups skip DuckDB, and
// survives restarts when configured with an on-disk path.
package cache

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/newswire/internal/config"
	"github.com/tomtom215/newswire/internal/models"
)

// Store is a TTL key-value cache on BadgerDB.
type Store struct {
	db  *badger.DB
	cfg *config.CacheConfig
}

// New opens the cache. An empty path means in-memory: contents are lost on
// restart but behavior is otherwise identical.
func New(cfg *config.CacheConfig) (*Store, error) {
	var opts badger.Options
	if cfg.Path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return &Store{db: db, cfg: cfg}, nil
}

// Get returns the cached value for key. The second return value reports
// whether the key was present and unexpired.
func (s *Store) Get(key string) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return out, true, nil
}

// Set stores a value under key with the configured TTL.
func (s *Store) Set(key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if s.cfg.TTL > 0 {
			entry = entry.WithTTL(s.cfg.TTL)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}

// Close flushes and closes the underlying store.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close cache: %w", err)
	}
	return nil
}

// ExplanationKey builds the cache key for an explanation payload. The key
// mirrors the store's uniqueness triple so cached and durable entries can
// never disagree about identity.
func ExplanationKey(articleID int64, method models.ExplanationMethod, modelVersion string) string {
	return fmt.Sprintf("explain:%d:%s:%s", articleID, method, modelVersion)
}
