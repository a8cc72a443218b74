// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

// Package watchlist fetches users' watch lists through a short-lived cache.
package watchlist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sanime/internal/budget"
	"github.com/tomtom215/sanime/internal/cache"
	"github.com/tomtom215/sanime/internal/logging"
	"github.com/tomtom215/sanime/internal/metrics"
	"github.com/tomtom215/sanime/internal/models"
	"github.com/tomtom215/sanime/internal/provider"
)

// DefaultTTL is how long a fetched list is reused.
const DefaultTTL = 3 * time.Minute

// Source is a provider that can fetch several users' lists at once.
// Results must be aligned with usernames.
type Source interface {
	Provider() models.Provider
	FetchWatchlists(ctx context.Context, b *budget.Budget, usernames []string) ([]provider.Watchlist, error)
}

// Sink receives lists fetched from the network, before they are cached.
type Sink func(ctx context.Context, lists []provider.Watchlist) error

// Fetcher is the cache-through watch list fetcher for one provider.
type Fetcher struct {
	src   Source
	store cache.Store
	ttl   time.Duration
	sink  Sink
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(f *Fetcher) {
		if ttl > 0 {
			f.ttl = ttl
		}
	}
}

// WithSink registers a hook for freshly fetched lists.
func WithSink(s Sink) Option {
	return func(f *Fetcher) {
		f.sink = s
	}
}

// NewFetcher creates a Fetcher for src.
func NewFetcher(src Source, store cache.Store, opts ...Option) *Fetcher {
	f := &Fetcher{src: src, store: store, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Provider returns the wrapped source's provider.
func (f *Fetcher) Provider() models.Provider {
	return f.src.Provider()
}

func (f *Fetcher) key(username string) string {
	return "sanime:watchlist:" + string(f.src.Provider()) + ":v1:" + strings.ToLower(username)
}

// Fetch returns one list per username, in order. Cached lists are reused;
// the rest are fetched in a single provider call and cached.
func (f *Fetcher) Fetch(ctx context.Context, b *budget.Budget, usernames []string) ([]provider.Watchlist, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	p := string(f.src.Provider())

	keys := make([]string, len(usernames))
	for i, name := range usernames {
		keys[i] = f.key(name)
	}
	values, err := f.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("watchlist cache lookup %s: %w", p, err)
	}

	out := make([]provider.Watchlist, len(usernames))
	var missNames []string
	var missIdx []int
	for i, v := range values {
		if v != nil {
			if wl, ok := decodeCached(v); ok {
				out[i] = wl
				continue
			}
			logging.Ctx(ctx).Warn().Str("key", keys[i]).Msg("Discarding undecodable watchlist cache entry")
		}
		missNames = append(missNames, usernames[i])
		missIdx = append(missIdx, i)
	}
	metrics.RecordWatchlistCache(p, len(usernames)-len(missNames), len(missNames))

	if len(missNames) == 0 {
		return out, nil
	}

	logging.Ctx(ctx).Debug().Str("provider", p).Strs("usernames", missNames).Msg("Fetching watchlists")
	fetched, err := f.src.FetchWatchlists(ctx, b, missNames)
	if err != nil {
		return nil, fmt.Errorf("fetch %s watchlists: %w", p, err)
	}
	if len(fetched) != len(missNames) {
		return nil, fmt.Errorf("fetch %s watchlists: got %d lists for %d users", p, len(fetched), len(missNames))
	}

	if f.sink != nil {
		if err := f.sink(ctx, fetched); err != nil {
			return nil, err
		}
	}

	entries := make(map[string][]byte, len(fetched))
	for j, wl := range fetched {
		data, err := json.Marshal(wl)
		if err != nil {
			return nil, fmt.Errorf("encode %s watchlist: %w", p, err)
		}
		entries[keys[missIdx[j]]] = data
		out[missIdx[j]] = wl
	}
	if err := f.store.MSet(ctx, entries, f.ttl); err != nil {
		return nil, fmt.Errorf("watchlist cache write %s: %w", p, err)
	}
	return out, nil
}

// decodeCached rejects entries whose statuses left the shared vocabulary,
// e.g. after a format change.
func decodeCached(v []byte) (provider.Watchlist, bool) {
	var wl provider.Watchlist
	if err := json.Unmarshal(v, &wl); err != nil || wl.User.ID == "" {
		return provider.Watchlist{}, false
	}
	for _, w := range wl.User.Works {
		if !w.Status.Valid() {
			return provider.Watchlist{}, false
		}
	}
	if wl.User.Works == nil {
		wl.User.Works = []models.UserWatchEntry{}
	}
	return wl, true
}
