// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package provider

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sanime/internal/budget"
	"github.com/tomtom215/sanime/internal/models"
)

// DefaultAniListEndpoint is the public AniList GraphQL endpoint.
const DefaultAniListEndpoint = "https://graphql.anilist.co/"

// AniListMaxBatch is the largest number of aliased Media lookups per query.
const AniListMaxBatch = 50

const anilistMediaFragment = `fragment fields on Media {
id
idMal
title { native }
season
seasonYear
coverImage { extraLarge }
format
}
`

const anilistListFragment = `fragment mlc on MediaListCollection {
user { name avatar { large } }
lists { entries { status media { id idMal } } }
}
`

var anilistFormats = map[string]models.AnimeType{
	"TV":       models.AnimeTypeTV,
	"TV_SHORT": models.AnimeTypeTV,
	"MOVIE":    models.AnimeTypeMovie,
	"SPECIAL":  models.AnimeTypeOthers,
	"OVA":      models.AnimeTypeOVA,
	"ONA":      models.AnimeTypeONA,
	"MUSIC":    models.AnimeTypeOthers,
	"MANGA":    models.AnimeTypeOthers,
	"NOVEL":    models.AnimeTypeOthers,
	"ONE_SHOT": models.AnimeTypeOthers,
}

var anilistSeasons = map[string]models.SeasonName{
	"WINTER": models.SeasonWinter,
	"SPRING": models.SeasonSpring,
	"SUMMER": models.SeasonSummer,
	"FALL":   models.SeasonAutumn,
}

var anilistStatuses = map[string]models.WatchStatus{
	"REPEATING": models.StatusRepeating,
	"COMPLETED": models.StatusWatched,
	"CURRENT":   models.StatusWatching,
	"PAUSED":    models.StatusPaused,
	"DROPPED":   models.StatusDropped,
	"PLANNING":  models.StatusWant,
}

type anilistMedia struct {
	ID    int  `json:"id"`
	IDMal *int `json:"idMal"`
	Title struct {
		Native *string `json:"native"`
	} `json:"title"`
	Season     *string `json:"season"`
	SeasonYear *int    `json:"seasonYear"`
	CoverImage *struct {
		ExtraLarge *string `json:"extraLarge"`
	} `json:"coverImage"`
	Format *string `json:"format"`
}

type anilistListCollection struct {
	User struct {
		Name   string `json:"name"`
		Avatar struct {
			Large string `json:"large"`
		} `json:"avatar"`
	} `json:"user"`
	Lists []struct {
		Entries []struct {
			Status string `json:"status"`
			Media  struct {
				ID    int  `json:"id"`
				IDMal *int `json:"idMal"`
			} `json:"media"`
		} `json:"entries"`
	} `json:"lists"`
}

// AniListClient talks to the AniList GraphQL API.
type AniListClient struct {
	endpoint string
	t        *transport
}

// NewAniListClient creates an AniList client.
func NewAniListClient(endpoint string, opts Options) *AniListClient {
	if endpoint == "" {
		endpoint = DefaultAniListEndpoint
	}
	return &AniListClient{endpoint: endpoint, t: newTransport(models.ProviderAniList, opts)}
}

// Provider returns models.ProviderAniList.
func (c *AniListClient) Provider() models.Provider { return models.ProviderAniList }

// LookupMedia resolves up to AniListMaxBatch ids in one aliased query.
// byMAL selects whether ids are MAL ids or AniList ids.
//
// AniList answers 404 with a global error list when any alias is unknown,
// and may then drop every result. Errors is reported so the caller can
// tell an all-missing batch from an ambiguous one.
func (c *AniListClient) LookupMedia(ctx context.Context, b *budget.Budget, ids []int, byMAL bool) (*Batch, error) {
	if len(ids) == 0 {
		return &Batch{Records: map[int]*models.AnimeRecord{}}, nil
	}
	if len(ids) > AniListMaxBatch {
		return nil, fmt.Errorf("anilist: batch of %d exceeds %d", len(ids), AniListMaxBatch)
	}

	arg := "id"
	if byMAL {
		arg = "idMal"
	}
	query := aliasedQuery("w", "Int", len(ids), func(v string) string {
		return "Media(" + arg + ": " + v + ", type: ANIME) { ...fields }"
	}, anilistMediaFragment)

	res, _, err := c.t.postGraphQL(ctx, b, c.endpoint, nil, graphQLRequest{
		Query:     query,
		Variables: aliasedVariables("w", ids),
	}, http.StatusNotFound)
	if err != nil {
		return nil, err
	}

	for _, e := range res.Errors {
		if e.Status != http.StatusNotFound {
			return nil, &GraphQLError{Provider: models.ProviderAniList, Message: e.Message, Status: e.Status}
		}
	}

	batch := &Batch{Records: make(map[int]*models.AnimeRecord, len(ids)), Errors: len(res.Errors)}
	if len(res.Data) == 0 || string(res.Data) == "null" {
		return batch, nil
	}

	var data map[string]*anilistMedia
	if err := json.Unmarshal(res.Data, &data); err != nil {
		return nil, &DecodeError{Provider: models.ProviderAniList, Field: "media", Err: err}
	}
	for alias, media := range data {
		i, ok := aliasIndex("w", alias)
		if !ok || i >= len(ids) {
			return nil, &DecodeError{Provider: models.ProviderAniList, Field: "alias", Value: alias}
		}
		if media == nil {
			continue
		}
		rec, err := media.toRecord()
		if err != nil {
			return nil, err
		}
		batch.Records[ids[i]] = rec
	}
	return batch, nil
}

func (m *anilistMedia) toRecord() (*models.AnimeRecord, error) {
	rec := &models.AnimeRecord{
		ID:        models.NewServiceID(models.ProviderAniList, m.ID),
		IDMal:     m.IDMal,
		IDAniList: models.Ptr(m.ID),
		Title:     m.Title.Native,
	}
	if m.IDMal != nil {
		rec.ID = models.NewServiceID(models.ProviderMAL, *m.IDMal)
	}
	if m.CoverImage != nil {
		rec.VerticalCoverURL = m.CoverImage.ExtraLarge
	}
	if m.Format != nil {
		t, ok := anilistFormats[*m.Format]
		if !ok {
			return nil, &DecodeError{Provider: models.ProviderAniList, Field: "format", Value: *m.Format}
		}
		rec.Type = &t
	}

	switch {
	case m.SeasonYear != nil:
		season := &models.Season{Year: *m.SeasonYear}
		if m.Season != nil {
			name, ok := anilistSeasons[*m.Season]
			if !ok {
				return nil, &DecodeError{Provider: models.ProviderAniList, Field: "season", Value: *m.Season}
			}
			season.Name = &name
		}
		rec.Season = season
	case m.Season != nil:
		return nil, &DecodeError{Provider: models.ProviderAniList, Field: "seasonYear", Value: "null with season " + *m.Season}
	}
	return rec, nil
}

// FetchWatchlists fetches every username's list in one aliased query.
// The result is aligned with usernames.
func (c *AniListClient) FetchWatchlists(ctx context.Context, b *budget.Budget, usernames []string) ([]Watchlist, error) {
	if len(usernames) == 0 {
		return nil, nil
	}

	query := aliasedQuery("u", "String", len(usernames), func(v string) string {
		return "MediaListCollection(userName: " + v + ", type: ANIME) { ...mlc }"
	}, anilistListFragment)

	res, _, err := c.t.postGraphQL(ctx, b, c.endpoint, nil, graphQLRequest{
		Query:     query,
		Variables: aliasedVariables("u", usernames),
	}, http.StatusNotFound)
	if err != nil {
		return nil, err
	}
	if err := userErrors(models.ProviderAniList, res.Errors, usernames); err != nil {
		return nil, err
	}

	var data map[string]*anilistListCollection
	if err := json.Unmarshal(res.Data, &data); err != nil {
		return nil, &DecodeError{Provider: models.ProviderAniList, Field: "media list collection", Err: err}
	}

	out := make([]Watchlist, len(usernames))
	for i, name := range usernames {
		mlc := data[fmt.Sprintf("u%d", i)]
		if mlc == nil {
			return nil, &UserNotFoundError{Provider: models.ProviderAniList, Username: name}
		}
		user, err := mlc.toUser()
		if err != nil {
			return nil, err
		}
		out[i] = Watchlist{User: user}
	}
	return out, nil
}

func (m *anilistListCollection) toUser() (models.UserAggregate, error) {
	user := models.UserAggregate{
		ID:        string(models.ProviderAniList) + ":" + m.User.Name,
		AvatarURL: m.User.Avatar.Large,
		Works:     []models.UserWatchEntry{},
	}
	for _, list := range m.Lists {
		for _, e := range list.Entries {
			status, ok := anilistStatuses[e.Status]
			if !ok {
				return models.UserAggregate{}, &DecodeError{Provider: models.ProviderAniList, Field: "status", Value: e.Status}
			}
			user.Works = append(user.Works, models.UserWatchEntry{
				SourceID: models.NewServiceID(models.ProviderAniList, e.Media.ID),
				MALID:    e.Media.IDMal,
				Status:   status,
			})
		}
	}
	return user, nil
}

// userErrors turns a GraphQL error list from an aliased user query into
// a UserNotFoundError when the first error is a 404 that can be pinned to
// one user, or a GraphQLError otherwise.
func userErrors(p models.Provider, errs []graphQLError, usernames []string) error {
	if len(errs) == 0 {
		return nil
	}
	e := errs[0]
	if e.Status == http.StatusNotFound {
		if i, ok := aliasIndex("u", e.alias()); ok && i < len(usernames) {
			return &UserNotFoundError{Provider: p, Username: usernames[i]}
		}
		if len(usernames) == 1 {
			return &UserNotFoundError{Provider: p, Username: usernames[0]}
		}
	}
	return &GraphQLError{Provider: p, Message: e.Message, Status: e.Status}
}
