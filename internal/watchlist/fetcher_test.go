// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package watchlist

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/sanime/internal/budget"
	"github.com/tomtom215/sanime/internal/cache"
	"github.com/tomtom215/sanime/internal/models"
	"github.com/tomtom215/sanime/internal/provider"
)

type fakeSource struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (s *fakeSource) Provider() models.Provider { return models.ProviderAniList }

func (s *fakeSource) FetchWatchlists(_ context.Context, _ *budget.Budget, usernames []string) ([]provider.Watchlist, error) {
	s.mu.Lock()
	s.calls = append(s.calls, append([]string(nil), usernames...))
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]provider.Watchlist, len(usernames))
	for i, name := range usernames {
		out[i] = provider.Watchlist{User: models.UserAggregate{
			ID: "anilist:" + name,
			Works: []models.UserWatchEntry{
				{SourceID: "anilist:1", MALID: models.Ptr(100), Status: models.StatusWatched},
			},
		}}
	}
	return out, nil
}

func userIDs(lists []provider.Watchlist) []string {
	out := make([]string, len(lists))
	for i, l := range lists {
		out[i] = l.User.ID
	}
	return out
}

func TestFetchCachesPerUsername(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	f := NewFetcher(src, cache.NewMemoryStore())
	ctx := context.Background()

	first, err := f.Fetch(ctx, budget.New(), []string{"alice", "bob"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !reflect.DeepEqual(userIDs(first), []string{"anilist:alice", "anilist:bob"}) {
		t.Errorf("unexpected users %v", userIDs(first))
	}

	second, err := f.Fetch(ctx, budget.New(), []string{"carol", "Alice", "bob"})
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if len(src.calls) != 2 {
		t.Fatalf("expected 2 provider calls, got %d", len(src.calls))
	}
	if !reflect.DeepEqual(src.calls[1], []string{"carol"}) {
		t.Errorf("only the uncached user should be fetched, got %v", src.calls[1])
	}
	if !reflect.DeepEqual(userIDs(second), []string{"anilist:carol", "anilist:alice", "anilist:bob"}) {
		t.Errorf("results not aligned with request: %v", userIDs(second))
	}
	if !reflect.DeepEqual(second[2], first[1]) {
		t.Errorf("cached list differs from fetched list")
	}
}

func TestFetchExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	store := cache.NewMemoryStore()
	store.SetClock(func() time.Time { return now })

	src := &fakeSource{}
	f := NewFetcher(src, store, WithTTL(time.Minute))
	ctx := context.Background()

	if _, err := f.Fetch(ctx, budget.New(), []string{"alice"}); err != nil {
		t.Fatal(err)
	}
	now = now.Add(30 * time.Second)
	if _, err := f.Fetch(ctx, budget.New(), []string{"alice"}); err != nil {
		t.Fatal(err)
	}
	if len(src.calls) != 1 {
		t.Errorf("list refetched before TTL: %d calls", len(src.calls))
	}
	now = now.Add(time.Minute)
	if _, err := f.Fetch(ctx, budget.New(), []string{"alice"}); err != nil {
		t.Fatal(err)
	}
	if len(src.calls) != 2 {
		t.Errorf("list not refetched after TTL: %d calls", len(src.calls))
	}
}

func TestFetchSinkSeesOnlyFreshLists(t *testing.T) {
	t.Parallel()

	var seen []string
	src := &fakeSource{}
	f := NewFetcher(src, cache.NewMemoryStore(), WithSink(func(_ context.Context, lists []provider.Watchlist) error {
		seen = append(seen, userIDs(lists)...)
		return nil
	}))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := f.Fetch(ctx, budget.New(), []string{"alice"}); err != nil {
			t.Fatal(err)
		}
	}
	if !reflect.DeepEqual(seen, []string{"anilist:alice"}) {
		t.Errorf("sink calls = %v", seen)
	}
}

func TestFetchSinkErrorAbortsBeforeCaching(t *testing.T) {
	t.Parallel()

	sinkErr := errors.New("prime failed")
	src := &fakeSource{}
	store := cache.NewMemoryStore()
	f := NewFetcher(src, store, WithSink(func(context.Context, []provider.Watchlist) error { return sinkErr }))

	if _, err := f.Fetch(context.Background(), budget.New(), []string{"alice"}); !errors.Is(err, sinkErr) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("failed fetch must not be cached")
	}
}

func TestFetchPropagatesProviderError(t *testing.T) {
	t.Parallel()

	src := &fakeSource{err: &provider.UserNotFoundError{Provider: models.ProviderAniList, Username: "ghost"}}
	f := NewFetcher(src, cache.NewMemoryStore())

	_, err := f.Fetch(context.Background(), budget.New(), []string{"ghost"})
	var nf *provider.UserNotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected UserNotFoundError, got %v", err)
	}
}

func TestFetchDiscardsInvalidCacheEntries(t *testing.T) {
	t.Parallel()

	store := cache.NewMemoryStore()
	ctx := context.Background()
	_ = store.Set(ctx, "sanime:watchlist:anilist:v1:alice", []byte(`{"user":{"id":"anilist:alice","works":[{"source_id":"anilist:1","status":"BINGING"}]}}`), 0)

	src := &fakeSource{}
	f := NewFetcher(src, store)
	lists, err := f.Fetch(ctx, budget.New(), []string{"alice"})
	if err != nil {
		t.Fatal(err)
	}
	if len(src.calls) != 1 {
		t.Errorf("invalid cache entry should be refetched")
	}
	if lists[0].User.Works[0].Status != models.StatusWatched {
		t.Errorf("expected fresh list, got %+v", lists[0])
	}
}

func TestFetchEmpty(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	f := NewFetcher(src, cache.NewMemoryStore())
	lists, err := f.Fetch(context.Background(), budget.New(), nil)
	if err != nil || lists != nil || len(src.calls) != 0 {
		t.Errorf("empty fetch should be a no-op, got %v %v", lists, err)
	}
}
