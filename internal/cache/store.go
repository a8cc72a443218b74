// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

// Package cache provides the key-value stores that back catalog and
// watchlist lookups.
//
// Values are opaque serialized records. A stored JSON "null" is a valid
// value (a confirmed-absent marker) and is distinct from a missing key,
// which MGet reports as a nil slice.
//
// Two backends implement Store:
//
//   - MemoryStore: process-local map, used in tests and when no data
//     directory is configured
//   - BadgerStore: durable BadgerDB store with native per-entry TTL
//
// Writes are idempotent and last-write-wins; no caller coordinates
// concurrent writers to the same key.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("cache: store closed")

// Store is a TTL key-value store.
type Store interface {
	// MGet returns one value per key in the same order; a nil element
	// means the key is missing or expired.
	MGet(ctx context.Context, keys []string) ([][]byte, error)

	// MSet writes every entry. A zero ttl means no expiry.
	MSet(ctx context.Context, entries map[string][]byte, ttl time.Duration) error

	// Set writes one entry. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
