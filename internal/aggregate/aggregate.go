// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package aggregate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/tomtom215/sanime/internal/budget"
	"github.com/tomtom215/sanime/internal/cache"
	"github.com/tomtom215/sanime/internal/catalog"
	"github.com/tomtom215/sanime/internal/logging"
	"github.com/tomtom215/sanime/internal/merge"
	"github.com/tomtom215/sanime/internal/metrics"
	"github.com/tomtom215/sanime/internal/models"
	"github.com/tomtom215/sanime/internal/provider"
	"github.com/tomtom215/sanime/internal/ranking"
	"github.com/tomtom215/sanime/internal/watchlist"
)

// UnresolvedError lists canonical ids no provider could produce a record for.
type UnresolvedError struct {
	IDs []models.ServiceID
}

func (e *UnresolvedError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = string(id)
	}
	return "unresolved anime ids: " + strings.Join(ids, ", ")
}

// AniListClient is satisfied by *provider.AniListClient.
type AniListClient interface {
	watchlist.Source
	catalog.AniListLookuper
}

// AnnictClient is satisfied by *provider.AnnictClient.
type AnnictClient interface {
	watchlist.Source
	catalog.AnnictLookuper
}

// MALClient is satisfied by *provider.MALClient.
type MALClient interface {
	watchlist.Source
	catalog.MALLookuper
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	AniList AniListClient
	Annict  AnnictClient
	MAL     MALClient
	Store   cache.Store

	// WatchlistTTL defaults to watchlist.DefaultTTL. CatalogTTL of zero
	// keeps catalog entries forever.
	WatchlistTTL time.Duration
	CatalogTTL   time.Duration
}

// Orchestrator runs /show requests.
type Orchestrator struct {
	watchlists map[models.Provider]*watchlist.Fetcher
	catalog    *catalog.Fetcher

	anilistByMAL  catalog.Source
	anilistNative catalog.Source
	annict        catalog.Source
	mal           catalog.Source

	ranker      *ranking.Engine
	budgetLimit time.Duration
	now         func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithBudgetLimit overrides budget.DefaultLimit.
func WithBudgetLimit(limit time.Duration) Option {
	return func(o *Orchestrator) {
		o.budgetLimit = limit
	}
}

// WithClock replaces time.Now for both budgets and ranking.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New wires an Orchestrator.
func New(d Deps, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		catalog:       catalog.NewFetcher(d.Store, d.CatalogTTL),
		anilistByMAL:  catalog.AniListByMAL(d.AniList),
		anilistNative: catalog.AniListNative(d.AniList),
		annict:        catalog.Annict(d.Annict),
		mal:           catalog.MAL(d.MAL),
		budgetLimit:   budget.DefaultLimit,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.ranker = ranking.New(ranking.WithClock(o.now))

	ttl := watchlist.WithTTL(d.WatchlistTTL)
	o.watchlists = map[models.Provider]*watchlist.Fetcher{
		models.ProviderAniList: watchlist.NewFetcher(d.AniList, d.Store, ttl),
		models.ProviderAnnict:  watchlist.NewFetcher(d.Annict, d.Store, ttl),
		models.ProviderMAL:     watchlist.NewFetcher(d.MAL, d.Store, ttl, watchlist.WithSink(o.primeMAL)),
	}
	return o
}

// primeMAL caches the catalog records embedded in MAL list payloads.
func (o *Orchestrator) primeMAL(ctx context.Context, lists []provider.Watchlist) error {
	records := make(map[int]*models.AnimeRecord)
	for _, wl := range lists {
		for _, rec := range wl.Catalog {
			if rec.IDMal != nil {
				records[*rec.IDMal] = rec
			}
		}
	}
	return o.catalog.Prime(ctx, o.mal, records)
}

// Show fetches, merges and ranks the lists of users.
func (o *Orchestrator) Show(ctx context.Context, users []models.UserRef, opts ranking.Options) (*models.ShowResult, error) {
	log := logging.Ctx(ctx).With().Str("component", "aggregate").Logger()
	b := budget.New(budget.WithLimit(o.budgetLimit), budget.WithClock(o.now))

	aggregates, err := o.fetchUsers(ctx, b, users)
	if err != nil {
		return nil, err
	}

	var needed []models.ServiceID
	var malIDs, anilistIDs, annictIDs []int
	for _, u := range aggregates {
		for _, w := range u.Works {
			needed = append(needed, w.CanonicalID())
			if w.MALID != nil {
				malIDs = append(malIDs, *w.MALID)
			}
			p, id, err := models.ParseServiceID(w.SourceID)
			if err != nil {
				return nil, fmt.Errorf("watch entry of %s: %w", u.ID, err)
			}
			switch {
			case p == models.ProviderAnnict:
				annictIDs = append(annictIDs, id)
			case p == models.ProviderAniList && w.MALID == nil:
				anilistIDs = append(anilistIDs, id)
			}
		}
	}

	byMAL, err := o.catalog.Resolve(ctx, o.anilistByMAL, b, malIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve AniList by MAL id: %w", err)
	}
	native, err := o.catalog.Resolve(ctx, o.anilistNative, b, anilistIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve AniList by AniList id: %w", err)
	}
	annict, err := o.catalog.Resolve(ctx, o.annict, b, annictIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve Annict: %w", err)
	}

	m := merge.New(needed)
	m.AddAniList(byMAL)
	m.AddAniList(native)
	m.AddAnnict(annict)

	if residual := malPending(m.Pending()); len(residual) > 0 {
		log.Debug().Ints("mal_ids", residual).Msg("Resolving residual ids against MAL")
		recs, err := o.catalog.Resolve(ctx, o.mal, b, residual)
		if err != nil {
			return nil, fmt.Errorf("resolve MAL: %w", err)
		}
		m.AddResidual(recs)
	}

	if pending := m.Pending(); len(pending) > 0 {
		log.Error().Interface("ids", pending).Msg("Unresolved anime ids")
		return nil, &UnresolvedError{IDs: pending}
	}

	warnings := m.Warnings()
	for _, w := range warnings {
		log.Warn().Str("warning", w).Msg("Merge warning")
	}
	metrics.MergeWarnings.Add(float64(len(warnings)))

	animes := m.Animes()
	result := &models.ShowResult{
		Users:    aggregates,
		Animes:   animes,
		Warnings: warnings,
		Ranking:  o.ranker.Rank(aggregates, animes, m.Canonical, opts),
	}
	if aliases := m.Aliases(); len(aliases) > 0 {
		result.Aliases = aliases
	}

	log.Info().
		Int("users", len(aggregates)).
		Int("animes", len(animes)).
		Int("warnings", len(warnings)).
		Dur("elapsed", b.Elapsed()).
		Msg("Show request aggregated")
	return result, nil
}

// fetchUsers fetches every provider's lists concurrently and returns the
// aggregates in request order. The first error cancels the other fetches.
func (o *Orchestrator) fetchUsers(ctx context.Context, b *budget.Budget, users []models.UserRef) ([]models.UserAggregate, error) {
	byProvider := make(map[models.Provider][]string)
	slots := make(map[models.Provider][]int)
	for i, u := range users {
		if _, ok := o.watchlists[u.Provider]; !ok {
			return nil, fmt.Errorf("unsupported provider %q", u.Provider)
		}
		byProvider[u.Provider] = append(byProvider[u.Provider], u.Username)
		slots[u.Provider] = append(slots[u.Provider], i)
	}

	out := make([]models.UserAggregate, len(users))
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	for prov, names := range byProvider {
		f := o.watchlists[prov]
		idx := slots[prov]
		p.Go(func(ctx context.Context) error {
			lists, err := f.Fetch(ctx, b, names)
			if err != nil {
				return err
			}
			// Each goroutine owns a disjoint set of slots.
			for j, wl := range lists {
				out[idx[j]] = wl.User
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func malPending(pending []models.ServiceID) []int {
	var ids []int
	for _, id := range pending {
		p, n, err := models.ParseServiceID(id)
		if err == nil && p == models.ProviderMAL {
			ids = append(ids, n)
		}
	}
	return ids
}
