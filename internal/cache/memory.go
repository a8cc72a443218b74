// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryStore is a thread-safe in-memory Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// SetClock replaces time.Now; used by tests.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// MGet implements Store. Expired entries are dropped as they are seen.
func (m *MemoryStore) MGet(_ context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	var expired []string

	m.mu.RLock()
	now := m.now()
	for i, k := range keys {
		e, ok := m.entries[k]
		if !ok {
			continue
		}
		if e.expired(now) {
			expired = append(expired, k)
			continue
		}
		out[i] = append([]byte(nil), e.value...)
	}
	m.mu.RUnlock()

	if len(expired) > 0 {
		m.mu.Lock()
		for _, k := range expired {
			if e, ok := m.entries[k]; ok && e.expired(m.now()) {
				delete(m.entries, k)
			}
		}
		m.mu.Unlock()
	}
	return out, nil
}

// MSet implements Store.
func (m *MemoryStore) MSet(_ context.Context, entries map[string][]byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp := m.expiry(ttl)
	for k, v := range entries {
		m.entries[k] = memoryEntry{value: append([]byte(nil), v...), expiresAt: exp}
	}
	return nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: append([]byte(nil), value...), expiresAt: m.expiry(ttl)}
	return nil
}

// Cleanup removes every expired entry and returns how many were removed.
func (m *MemoryStore) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// expiry must be called with mu held.
func (m *MemoryStore) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}
