// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package provider

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sanime/internal/budget"
	"github.com/tomtom215/sanime/internal/models"
)

// DefaultAnnictEndpoint is the public Annict GraphQL endpoint.
const DefaultAnnictEndpoint = "https://api.annict.com/graphql"

// AnnictMaxBatch is the largest annictIds list sent to searchWorks.
const AnnictMaxBatch = 50

const annictWorksQuery = `query ($ids: [Int!]) { works: searchWorks(annictIds: $ids) { nodes {
annictId
title
malAnimeId
seasonName
seasonYear
image { facebookOgImageUrl }
media
} } }`

var annictMedia = map[string]models.AnimeType{
	"TV":    models.AnimeTypeTV,
	"OVA":   models.AnimeTypeOVA,
	"MOVIE": models.AnimeTypeMovie,
	"WEB":   models.AnimeTypeONA,
	"OTHER": models.AnimeTypeOthers,
}

var annictSeasons = map[string]models.SeasonName{
	"WINTER": models.SeasonWinter,
	"SPRING": models.SeasonSpring,
	"SUMMER": models.SeasonSummer,
	"AUTUMN": models.SeasonAutumn,
}

// annictStates is ordered the way works are appended to a user's list.
var annictStates = []struct {
	state  string
	status models.WatchStatus
}{
	{"WANNA_WATCH", models.StatusWant},
	{"WATCHING", models.StatusWatching},
	{"WATCHED", models.StatusWatched},
	{"ON_HOLD", models.StatusPaused},
	{"STOP_WATCHING", models.StatusDropped},
}

type annictWork struct {
	AnnictID   int     `json:"annictId"`
	Title      string  `json:"title"`
	MalAnimeID *string `json:"malAnimeId"`
	SeasonName *string `json:"seasonName"`
	SeasonYear *int    `json:"seasonYear"`
	Image      *struct {
		FacebookOgImageURL *string `json:"facebookOgImageUrl"`
	} `json:"image"`
	Media *string `json:"media"`
}

type annictWorkIDs struct {
	Nodes []struct {
		AnnictID   int     `json:"annictId"`
		MalAnimeID *string `json:"malAnimeId"`
	} `json:"nodes"`
}

// AnnictClient talks to the Annict GraphQL API.
type AnnictClient struct {
	endpoint string
	token    string
	t        *transport
}

// NewAnnictClient creates an Annict client authenticating with token.
func NewAnnictClient(endpoint, token string, opts Options) *AnnictClient {
	if endpoint == "" {
		endpoint = DefaultAnnictEndpoint
	}
	return &AnnictClient{endpoint: endpoint, token: token, t: newTransport(models.ProviderAnnict, opts)}
}

// Provider returns models.ProviderAnnict.
func (c *AnnictClient) Provider() models.Provider { return models.ProviderAnnict }

func (c *AnnictClient) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.token)
	return h
}

// LookupWorks resolves up to AnnictMaxBatch Annict ids with searchWorks.
// Ids missing from the response were not found; Annict never reports them
// as errors, so Batch.Errors is always zero.
func (c *AnnictClient) LookupWorks(ctx context.Context, b *budget.Budget, ids []int) (*Batch, error) {
	if len(ids) == 0 {
		return &Batch{Records: map[int]*models.AnimeRecord{}}, nil
	}
	if len(ids) > AnnictMaxBatch {
		return nil, fmt.Errorf("annict: batch of %d exceeds %d", len(ids), AnnictMaxBatch)
	}

	res, _, err := c.t.postGraphQL(ctx, b, c.endpoint, c.header(), graphQLRequest{
		Query:     annictWorksQuery,
		Variables: map[string]any{"ids": ids},
	})
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		e := res.Errors[0]
		return nil, &GraphQLError{Provider: models.ProviderAnnict, Message: e.Message, Status: e.Status}
	}

	var data struct {
		Works struct {
			Nodes []annictWork `json:"nodes"`
		} `json:"works"`
	}
	if err := json.Unmarshal(res.Data, &data); err != nil {
		return nil, &DecodeError{Provider: models.ProviderAnnict, Field: "works", Err: err}
	}

	batch := &Batch{Records: make(map[int]*models.AnimeRecord, len(data.Works.Nodes))}
	for i := range data.Works.Nodes {
		rec, err := data.Works.Nodes[i].toRecord()
		if err != nil {
			return nil, err
		}
		batch.Records[data.Works.Nodes[i].AnnictID] = rec
	}
	return batch, nil
}

func (w *annictWork) toRecord() (*models.AnimeRecord, error) {
	malID, err := parseMalAnimeID(w.MalAnimeID)
	if err != nil {
		return nil, err
	}

	title := w.Title
	rec := &models.AnimeRecord{
		ID:       models.NewServiceID(models.ProviderAnnict, w.AnnictID),
		IDMal:    malID,
		IDAnnict: models.Ptr(w.AnnictID),
		Title:    &title,
	}
	if malID != nil {
		rec.ID = models.NewServiceID(models.ProviderMAL, *malID)
	}
	if w.Image != nil {
		rec.HorizontalCoverURL = w.Image.FacebookOgImageURL
	}
	if w.Media != nil {
		t, ok := annictMedia[*w.Media]
		if !ok {
			return nil, &DecodeError{Provider: models.ProviderAnnict, Field: "media", Value: *w.Media}
		}
		rec.Type = &t
	}

	switch {
	case w.SeasonYear != nil:
		season := &models.Season{Year: *w.SeasonYear}
		if w.SeasonName != nil {
			name, ok := annictSeasons[*w.SeasonName]
			if !ok {
				return nil, &DecodeError{Provider: models.ProviderAnnict, Field: "seasonName", Value: *w.SeasonName}
			}
			season.Name = &name
		}
		rec.Season = season
	case w.SeasonName != nil:
		return nil, &DecodeError{Provider: models.ProviderAnnict, Field: "seasonYear", Value: "null with season " + *w.SeasonName}
	}
	return rec, nil
}

// parseMalAnimeID converts Annict's string MAL id; empty means unknown.
func parseMalAnimeID(s *string) (*int, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	id, err := strconv.Atoi(strings.TrimSpace(*s))
	if err != nil {
		return nil, &DecodeError{Provider: models.ProviderAnnict, Field: "malAnimeId", Value: *s, Err: err}
	}
	return &id, nil
}

func annictUserQuery(n int) string {
	var frag strings.Builder
	frag.WriteString("fragment userObj on User {\nusername\navatarUrl\n")
	for _, s := range annictStates {
		frag.WriteString(s.state + ": works(state: " + s.state + ") { nodes { ...workIds } }\n")
	}
	frag.WriteString("}\nfragment workIds on Work {\nannictId\nmalAnimeId\n}\n")

	return aliasedQuery("u", "String!", n, func(v string) string {
		return "user(username: " + v + ") { ...userObj }"
	}, frag.String())
}

// FetchWatchlists fetches every username's list in one aliased query.
// The result is aligned with usernames.
func (c *AnnictClient) FetchWatchlists(ctx context.Context, b *budget.Budget, usernames []string) ([]Watchlist, error) {
	if len(usernames) == 0 {
		return nil, nil
	}

	res, _, err := c.t.postGraphQL(ctx, b, c.endpoint, c.header(), graphQLRequest{
		Query:     annictUserQuery(len(usernames)),
		Variables: aliasedVariables("u", usernames),
	})
	if err != nil {
		return nil, err
	}
	if err := userErrors(models.ProviderAnnict, res.Errors, usernames); err != nil {
		return nil, err
	}

	var data map[string]map[string]json.RawMessage
	if err := json.Unmarshal(res.Data, &data); err != nil {
		return nil, &DecodeError{Provider: models.ProviderAnnict, Field: "user", Err: err}
	}

	out := make([]Watchlist, len(usernames))
	for i, name := range usernames {
		raw := data[fmt.Sprintf("u%d", i)]
		if raw == nil {
			return nil, &UserNotFoundError{Provider: models.ProviderAnnict, Username: name}
		}
		user, err := annictUser(raw)
		if err != nil {
			return nil, err
		}
		out[i] = Watchlist{User: user}
	}
	return out, nil
}

func annictUser(raw map[string]json.RawMessage) (models.UserAggregate, error) {
	var username, avatar string
	if err := json.Unmarshal(raw["username"], &username); err != nil {
		return models.UserAggregate{}, &DecodeError{Provider: models.ProviderAnnict, Field: "username", Err: err}
	}
	if v, ok := raw["avatarUrl"]; ok && string(v) != "null" {
		if err := json.Unmarshal(v, &avatar); err != nil {
			return models.UserAggregate{}, &DecodeError{Provider: models.ProviderAnnict, Field: "avatarUrl", Err: err}
		}
	}

	user := models.UserAggregate{
		ID:        string(models.ProviderAnnict) + ":" + username,
		AvatarURL: avatar,
		Works:     []models.UserWatchEntry{},
	}
	for _, s := range annictStates {
		v, ok := raw[s.state]
		if !ok {
			return models.UserAggregate{}, &DecodeError{Provider: models.ProviderAnnict, Field: s.state, Value: "missing"}
		}
		var works annictWorkIDs
		if err := json.Unmarshal(v, &works); err != nil {
			return models.UserAggregate{}, &DecodeError{Provider: models.ProviderAnnict, Field: s.state, Err: err}
		}
		for _, n := range works.Nodes {
			malID, err := parseMalAnimeID(n.MalAnimeID)
			if err != nil {
				return models.UserAggregate{}, err
			}
			user.Works = append(user.Works, models.UserWatchEntry{
				SourceID: models.NewServiceID(models.ProviderAnnict, n.AnnictID),
				MALID:    malID,
				Status:   s.status,
			})
		}
	}
	return user, nil
}
