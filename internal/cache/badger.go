// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/tomtom215/sanime/internal/logging"
)

// BadgerConfig configures a BadgerStore.
type BadgerConfig struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in RAM; used by tests.
	InMemory bool

	// Compression enables Snappy block compression.
	Compression bool

	// GCRatio is the discard ratio passed to RunValueLogGC.
	GCRatio float64
}

// BadgerStore is a Store backed by BadgerDB with native entry TTLs.
type BadgerStore struct {
	db      *badger.DB
	gcRatio float64

	mu     sync.RWMutex
	closed bool
}

// OpenBadger opens (or creates) a BadgerDB store.
func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("cache: badger path is required")
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	if cfg.Compression {
		opts.Compression = options.Snappy
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	ratio := cfg.GCRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.5
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Msg("Cache store opened")

	return &BadgerStore{db: db, gcRatio: ratio}, nil
}

// MGet implements Store.
func (s *BadgerStore) MGet(_ context.Context, keys []string) ([][]byte, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	defer s.mu.RUnlock()

	out := make([][]byte, len(keys))
	err := s.db.View(func(txn *badger.Txn) error {
		for i, k := range keys {
			item, err := txn.Get([]byte(k))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("get %s: %w", k, err)
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read %s: %w", k, err)
			}
			out[i] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MSet implements Store. Entries are written with a WriteBatch so large
// sets never exceed a single transaction's size limit.
func (s *BadgerStore) MSet(_ context.Context, entries map[string][]byte, ttl time.Duration) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	defer s.mu.RUnlock()

	wb := s.db.NewWriteBatch()
	for k, v := range entries {
		if err := wb.SetEntry(newEntry(k, v, ttl)); err != nil {
			wb.Cancel()
			return fmt.Errorf("batch set %s: %w", k, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush batch: %w", err)
	}
	return nil
}

// Set implements Store.
func (s *BadgerStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	defer s.mu.RUnlock()

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(newEntry(key, value, ttl))
	})
}

// RunGC reclaims value log space until Badger reports nothing to rewrite.
func (s *BadgerStore) RunGC() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	defer s.mu.RUnlock()

	for {
		err := s.db.RunValueLogGC(s.gcRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Close closes the database. Further calls return ErrClosed.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	logging.Info().Msg("Cache store closed")
	return nil
}

// checkOpen takes the read lock on success; callers must release it.
func (s *BadgerStore) checkOpen() error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	return nil
}

func newEntry(key string, value []byte, ttl time.Duration) *badger.Entry {
	e := badger.NewEntry([]byte(key), value)
	if ttl > 0 {
		e = e.WithTTL(ttl)
	}
	return e
}
