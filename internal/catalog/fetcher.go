// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sanime/internal/budget"
	"github.com/tomtom215/sanime/internal/cache"
	"github.com/tomtom215/sanime/internal/logging"
	"github.com/tomtom215/sanime/internal/metrics"
	"github.com/tomtom215/sanime/internal/models"
)

// ErrAmbiguousSingle is returned when a one-id request reports errors
// without reporting the id itself as missing. It cannot be bisected.
var ErrAmbiguousSingle = errors.New("ambiguous provider error for a single id")

// nullValue marks an id the provider confirmed does not exist.
var nullValue = []byte("null")

// Fetcher resolves ids against a Source through the cache.
type Fetcher struct {
	store cache.Store
	ttl   time.Duration
}

// NewFetcher creates a Fetcher. A ttl of zero stores entries without expiry.
func NewFetcher(store cache.Store, ttl time.Duration) *Fetcher {
	return &Fetcher{store: store, ttl: ttl}
}

// chunk is one pending unit of work on the resolve stack.
type chunk struct {
	ids          []int
	cacheChecked bool
}

// Resolve returns the records for ids in request order. Ids the provider
// does not know produce no record. Duplicate ids are resolved once.
func (f *Fetcher) Resolve(ctx context.Context, src Source, b *budget.Budget, ids []int) ([]*models.AnimeRecord, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	p := string(src.Provider())
	log := logging.Ctx(ctx).With().Str("component", "catalog").Str("namespace", src.Namespace()).Logger()

	found := make(map[int]*models.AnimeRecord, len(ids))
	stack := []chunk{{ids: ids}}
	requests := 0

	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !c.cacheChecked {
			misses, err := f.lookupCache(ctx, src, c.ids, found)
			if err != nil {
				return nil, err
			}
			metrics.RecordCatalogCache(p, len(c.ids)-len(misses), len(misses))
			log.Debug().Int("hits", len(c.ids)-len(misses)).Int("misses", len(misses)).Msg("Catalog cache lookup")
			if len(misses) == 0 {
				continue
			}
			c = chunk{ids: misses, cacheChecked: true}
		}

		if limit := src.MaxBatch(); len(c.ids) > limit {
			// Push in reverse so chunks run in request order.
			for end := len(c.ids); end > 0; {
				start := (end - 1) / limit * limit
				stack = append(stack, chunk{ids: c.ids[start:end], cacheChecked: true})
				end = start
			}
			continue
		}

		requests++
		batch, err := src.LookupBatch(ctx, b, c.ids)
		if err != nil {
			return nil, fmt.Errorf("resolve %s ids: %w", src.Namespace(), err)
		}

		if batch.Errors > 0 && batch.Errors != len(c.ids) {
			if len(c.ids) == 1 {
				return nil, fmt.Errorf("%s id %d: %w", src.Namespace(), c.ids[0], ErrAmbiguousSingle)
			}
			half := len(c.ids) / 2
			metrics.CatalogBisections.WithLabelValues(p).Inc()
			log.Info().Int("size", len(c.ids)).Int("errors", batch.Errors).Int("half", half).Msg("Bisecting ambiguous batch")
			stack = append(stack,
				chunk{ids: c.ids[half:]},
				chunk{ids: c.ids[:half]},
			)
			continue
		}

		allMissing := batch.Errors == len(c.ids)
		entries := make(map[string][]byte, len(c.ids))
		for _, id := range c.ids {
			rec := batch.Records[id]
			if allMissing || rec == nil {
				entries[f.key(src, id)] = nullValue
				continue
			}
			data, err := json.Marshal(rec)
			if err != nil {
				return nil, fmt.Errorf("encode %s%d: %w", src.Namespace(), id, err)
			}
			entries[f.key(src, id)] = data
			found[id] = rec
		}
		if err := f.store.MSet(ctx, entries, f.ttl); err != nil {
			return nil, fmt.Errorf("write-through %s: %w", src.Namespace(), err)
		}
	}

	log.Debug().Int("requested", len(ids)).Int("resolved", len(found)).Int("requests", requests).Msg("Catalog resolve complete")

	out := make([]*models.AnimeRecord, 0, len(found))
	for _, id := range ids {
		if rec, ok := found[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// lookupCache fills found with cached records and returns the ids that
// are not cached. Confirmed-absent entries count as hits.
func (f *Fetcher) lookupCache(ctx context.Context, src Source, ids []int, found map[int]*models.AnimeRecord) ([]int, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = f.key(src, id)
	}
	values, err := f.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("cache lookup %s: %w", src.Namespace(), err)
	}

	var misses []int
	for i, v := range values {
		if v == nil {
			misses = append(misses, ids[i])
			continue
		}
		var rec *models.AnimeRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("key", keys[i]).Msg("Discarding undecodable catalog cache entry")
			misses = append(misses, ids[i])
			continue
		}
		if rec != nil {
			found[ids[i]] = rec
		}
	}
	return misses, nil
}

// Prime writes records that arrived through another channel, keyed by the
// source's native id. The MAL watch list embeds full anime nodes this way.
func (f *Fetcher) Prime(ctx context.Context, src Source, records map[int]*models.AnimeRecord) error {
	if len(records) == 0 {
		return nil
	}
	entries := make(map[string][]byte, len(records))
	for id, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode %s%d: %w", src.Namespace(), id, err)
		}
		entries[f.key(src, id)] = data
	}
	if err := f.store.MSet(ctx, entries, f.ttl); err != nil {
		return fmt.Errorf("prime %s: %w", src.Namespace(), err)
	}
	return nil
}

func (f *Fetcher) key(src Source, id int) string {
	return src.Namespace() + strconv.Itoa(id)
}

func dedupe(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
