// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package catalog

import (
	"context"

	"github.com/tomtom215/sanime/internal/budget"
	"github.com/tomtom215/sanime/internal/models"
	"github.com/tomtom215/sanime/internal/provider"
)

// Source is one provider id space.
type Source interface {
	// Provider labels metrics and logs.
	Provider() models.Provider

	// Namespace prefixes every cache key, e.g. "sanime:anilist:v1:mal:".
	Namespace() string

	// MaxBatch is the largest id list LookupBatch accepts.
	MaxBatch() int

	// LookupBatch fetches at most MaxBatch ids in one request.
	LookupBatch(ctx context.Context, b *budget.Budget, ids []int) (*provider.Batch, error)
}

// AniListLookuper is satisfied by *provider.AniListClient.
type AniListLookuper interface {
	LookupMedia(ctx context.Context, b *budget.Budget, ids []int, byMAL bool) (*provider.Batch, error)
}

// AnnictLookuper is satisfied by *provider.AnnictClient.
type AnnictLookuper interface {
	LookupWorks(ctx context.Context, b *budget.Budget, ids []int) (*provider.Batch, error)
}

// MALLookuper is satisfied by *provider.MALClient.
type MALLookuper interface {
	LookupAnime(ctx context.Context, b *budget.Budget, ids []int) (*provider.Batch, error)
}

type anilistSource struct {
	client AniListLookuper
	byMAL  bool
}

// AniListByMAL looks AniList media up by MAL id.
func AniListByMAL(c AniListLookuper) Source {
	return &anilistSource{client: c, byMAL: true}
}

// AniListNative looks AniList media up by AniList id.
func AniListNative(c AniListLookuper) Source {
	return &anilistSource{client: c}
}

func (s *anilistSource) Provider() models.Provider { return models.ProviderAniList }

func (s *anilistSource) Namespace() string {
	if s.byMAL {
		return "sanime:anilist:v1:mal:"
	}
	return "sanime:anilist:v1:native:"
}

func (s *anilistSource) MaxBatch() int { return provider.AniListMaxBatch }

func (s *anilistSource) LookupBatch(ctx context.Context, b *budget.Budget, ids []int) (*provider.Batch, error) {
	return s.client.LookupMedia(ctx, b, ids, s.byMAL)
}

type annictSource struct {
	client AnnictLookuper
}

// Annict looks Annict works up by Annict id.
func Annict(c AnnictLookuper) Source {
	return &annictSource{client: c}
}

func (s *annictSource) Provider() models.Provider { return models.ProviderAnnict }
func (s *annictSource) Namespace() string         { return "sanime:annict:v1:" }
func (s *annictSource) MaxBatch() int             { return provider.AnnictMaxBatch }

func (s *annictSource) LookupBatch(ctx context.Context, b *budget.Budget, ids []int) (*provider.Batch, error) {
	return s.client.LookupWorks(ctx, b, ids)
}

type malSource struct {
	client MALLookuper
}

// MAL looks MAL anime up one id at a time.
func MAL(c MALLookuper) Source {
	return &malSource{client: c}
}

func (s *malSource) Provider() models.Provider { return models.ProviderMAL }
func (s *malSource) Namespace() string         { return "sanime:mal:v1:" }
func (s *malSource) MaxBatch() int             { return provider.MALMaxBatch }

func (s *malSource) LookupBatch(ctx context.Context, b *budget.Budget, ids []int) (*provider.Batch, error) {
	return s.client.LookupAnime(ctx, b, ids)
}
