// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// storeFactories runs the shared Store behaviour against both backends.
func storeFactories() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"badger": func(t *testing.T) Store {
			t.Helper()
			s, err := OpenBadger(BadgerConfig{InMemory: true})
			if err != nil {
				t.Fatalf("OpenBadger: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestStoreMGetMissingAndNull(t *testing.T) {
	t.Parallel()

	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s := factory(t)

			if err := s.MSet(ctx, map[string][]byte{
				"sanime:mal:v1:1": []byte(`{"id":"mal:1"}`),
				"sanime:mal:v1:2": []byte(`null`),
			}, 0); err != nil {
				t.Fatalf("MSet: %v", err)
			}

			got, err := s.MGet(ctx, []string{"sanime:mal:v1:1", "sanime:mal:v1:3", "sanime:mal:v1:2"})
			if err != nil {
				t.Fatalf("MGet: %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("MGet returned %d values, want 3", len(got))
			}
			if string(got[0]) != `{"id":"mal:1"}` {
				t.Errorf("got[0] = %q", got[0])
			}
			if got[1] != nil {
				t.Errorf("missing key returned %q, want nil", got[1])
			}
			if string(got[2]) != "null" {
				t.Errorf("confirmed-absent marker = %q, want null", got[2])
			}
		})
	}
}

func TestStoreSetOverwrites(t *testing.T) {
	t.Parallel()

	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s := factory(t)

			if err := s.Set(ctx, "k", []byte("a"), time.Minute); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := s.Set(ctx, "k", []byte("b"), time.Minute); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, err := s.MGet(ctx, []string{"k"})
			if err != nil {
				t.Fatalf("MGet: %v", err)
			}
			if string(got[0]) != "b" {
				t.Errorf("got %q, want b", got[0])
			}
		})
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var mu sync.Mutex
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.SetClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	})

	if err := s.Set(ctx, "watchlist", []byte("x"), 3*time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "forever", []byte("y"), 0); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()
	got, _ := s.MGet(ctx, []string{"watchlist"})
	if got[0] == nil {
		t.Fatal("entry expired early")
	}

	mu.Lock()
	now = now.Add(time.Minute)
	mu.Unlock()
	got, _ = s.MGet(ctx, []string{"watchlist", "forever"})
	if got[0] != nil {
		t.Errorf("entry still present at TTL boundary: %q", got[0])
	}
	if string(got[1]) != "y" {
		t.Errorf("entry without TTL lost: %q", got[1])
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d after expired read, want 1", s.Len())
	}
}

func TestMemoryStoreCleanup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Unix(1000, 0)
	s := NewMemoryStore()
	s.SetClock(func() time.Time { return now })

	_ = s.MSet(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, time.Second)
	_ = s.Set(ctx, "c", []byte("3"), 0)

	now = now.Add(2 * time.Second)
	if removed := s.Cleanup(); removed != 2 {
		t.Errorf("Cleanup() removed %d, want 2", removed)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()
	v := []byte("abc")
	_ = s.Set(ctx, "k", v, 0)
	v[0] = 'z'

	got, _ := s.MGet(ctx, []string{"k"})
	if string(got[0]) != "abc" {
		t.Errorf("stored value aliased caller slice: %q", got[0])
	}
}

func TestBadgerStoreClosed(t *testing.T) {
	t.Parallel()

	s, err := OpenBadger(BadgerConfig{InMemory: true})
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	if err := s.RunGC(); err != nil {
		t.Errorf("RunGC in memory mode: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := s.MGet(context.Background(), []string{"k"}); !errors.Is(err, ErrClosed) {
		t.Errorf("MGet after close = %v, want ErrClosed", err)
	}
}

func TestOpenBadgerRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := OpenBadger(BadgerConfig{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestBadgerStorePersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenBadger(BadgerConfig{Path: dir})
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	if err := s.MSet(ctx, map[string][]byte{"sanime:annict:v1:9": []byte(`{"id":"annict:9"}`)}, 0); err != nil {
		t.Fatalf("MSet: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenBadger(BadgerConfig{Path: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.MGet(ctx, []string{"sanime:annict:v1:9"})
	if err != nil {
		t.Fatalf("MGet: %v", err)
	}
	if string(got[0]) != `{"id":"annict:9"}` {
		t.Errorf("got %q after reopen", got[0])
	}
}
