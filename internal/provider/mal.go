// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sanime/internal/budget"
	"github.com/tomtom215/sanime/internal/models"
)

// DefaultMALEndpoint is the MyAnimeList v2 REST base URL.
const DefaultMALEndpoint = "https://api.myanimelist.net/v2"

// MALMaxBatch is 1: the REST API has no multi-id lookup.
const MALMaxBatch = 1

// malListPageSize is the largest page the animelist endpoint serves.
const malListPageSize = 1000

const malAnimeFields = "id,title,main_picture,media_type,start_season"

var malMediaTypes = map[string]models.AnimeType{
	"tv":         models.AnimeTypeTV,
	"tv_special": models.AnimeTypeTV,
	"movie":      models.AnimeTypeMovie,
	"ova":        models.AnimeTypeOVA,
	"ona":        models.AnimeTypeONA,
	"special":    models.AnimeTypeOthers,
	"music":      models.AnimeTypeOthers,
	"unknown":    models.AnimeTypeOthers,
	"pv":         models.AnimeTypeOthers,
	"cm":         models.AnimeTypeOthers,
}

var malSeasons = map[string]models.SeasonName{
	"winter": models.SeasonWinter,
	"spring": models.SeasonSpring,
	"summer": models.SeasonSummer,
	"fall":   models.SeasonAutumn,
}

var malStatuses = map[string]models.WatchStatus{
	"completed":     models.StatusWatched,
	"watching":      models.StatusWatching,
	"on_hold":       models.StatusPaused,
	"dropped":       models.StatusDropped,
	"plan_to_watch": models.StatusWant,
}

type malAnime struct {
	ID          int     `json:"id"`
	Title       *string `json:"title"`
	MainPicture *struct {
		Medium *string `json:"medium"`
		Large  *string `json:"large"`
	} `json:"main_picture"`
	MediaType   *string `json:"media_type"`
	StartSeason *struct {
		Year   *int    `json:"year"`
		Season *string `json:"season"`
	} `json:"start_season"`
}

type malListPage struct {
	Data []struct {
		Node       malAnime `json:"node"`
		ListStatus struct {
			Status       string `json:"status"`
			IsRewatching bool   `json:"is_rewatching"`
		} `json:"list_status"`
	} `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

// MALClient talks to the MyAnimeList v2 REST API.
type MALClient struct {
	endpoint string
	clientID string
	t        *transport
}

// NewMALClient creates a MAL client sending clientID as X-MAL-CLIENT-ID.
func NewMALClient(endpoint, clientID string, opts Options) *MALClient {
	if endpoint == "" {
		endpoint = DefaultMALEndpoint
	}
	return &MALClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		clientID: clientID,
		t:        newTransport(models.ProviderMAL, opts),
	}
}

// Provider returns models.ProviderMAL.
func (c *MALClient) Provider() models.Provider { return models.ProviderMAL }

func (c *MALClient) get(ctx context.Context, b *budget.Budget, rawURL string) (*response, error) {
	return c.t.do(ctx, b, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-MAL-CLIENT-ID", c.clientID)
		return req, nil
	})
}

// GetAnime fetches one anime. A 404 returns (nil, nil).
func (c *MALClient) GetAnime(ctx context.Context, b *budget.Budget, id int) (*models.AnimeRecord, error) {
	u := c.endpoint + "/anime/" + strconv.Itoa(id) + "?" + url.Values{"fields": {malAnimeFields}}.Encode()
	res, err := c.get(ctx, b, u)
	if err != nil {
		return nil, err
	}
	switch res.status {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, c.t.statusError(res)
	}

	var a malAnime
	if err := json.Unmarshal(res.body, &a); err != nil {
		return nil, &DecodeError{Provider: models.ProviderMAL, Field: "anime", Err: err}
	}
	return a.toRecord()
}

// LookupAnime adapts GetAnime to the batch shape shared by the catalog.
func (c *MALClient) LookupAnime(ctx context.Context, b *budget.Budget, ids []int) (*Batch, error) {
	batch := &Batch{Records: make(map[int]*models.AnimeRecord, len(ids))}
	for _, id := range ids {
		rec, err := c.GetAnime(ctx, b, id)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			batch.Records[id] = rec
		}
	}
	return batch, nil
}

func (a *malAnime) toRecord() (*models.AnimeRecord, error) {
	rec := &models.AnimeRecord{
		ID:    models.NewServiceID(models.ProviderMAL, a.ID),
		IDMal: models.Ptr(a.ID),
		Title: a.Title,
	}
	if a.MainPicture != nil {
		rec.VerticalCoverURL = a.MainPicture.Large
		if rec.VerticalCoverURL == nil {
			rec.VerticalCoverURL = a.MainPicture.Medium
		}
	}
	if a.MediaType != nil {
		t, ok := malMediaTypes[*a.MediaType]
		if !ok {
			return nil, &DecodeError{Provider: models.ProviderMAL, Field: "media_type", Value: *a.MediaType}
		}
		rec.Type = &t
	}
	if s := a.StartSeason; s != nil {
		switch {
		case s.Year != nil:
			season := &models.Season{Year: *s.Year}
			if s.Season != nil {
				name, ok := malSeasons[*s.Season]
				if !ok {
					return nil, &DecodeError{Provider: models.ProviderMAL, Field: "start_season.season", Value: *s.Season}
				}
				season.Name = &name
			}
			rec.Season = season
		case s.Season != nil:
			return nil, &DecodeError{Provider: models.ProviderMAL, Field: "start_season.year", Value: "null with season " + *s.Season}
		}
	}
	return rec, nil
}

// FetchWatchlists fetches each user in turn, following paging.next until
// the list is exhausted. The result is aligned with usernames.
func (c *MALClient) FetchWatchlists(ctx context.Context, b *budget.Budget, usernames []string) ([]Watchlist, error) {
	out := make([]Watchlist, len(usernames))
	for i, name := range usernames {
		wl, err := c.fetchWatchlist(ctx, b, name)
		if err != nil {
			return nil, err
		}
		out[i] = wl
	}
	return out, nil
}

func (c *MALClient) fetchWatchlist(ctx context.Context, b *budget.Budget, username string) (Watchlist, error) {
	q := url.Values{
		"fields": {"list_status," + malAnimeFields},
		"limit":  {strconv.Itoa(malListPageSize)},
		"nsfw":   {"true"},
	}
	next := c.endpoint + "/users/" + url.PathEscape(username) + "/animelist?" + q.Encode()

	wl := Watchlist{User: models.UserAggregate{
		ID:    string(models.ProviderMAL) + ":" + username,
		Works: []models.UserWatchEntry{},
	}}

	for page := 0; next != ""; page++ {
		res, err := c.get(ctx, b, next)
		if err != nil {
			return Watchlist{}, err
		}
		switch res.status {
		case http.StatusOK:
		case http.StatusNotFound:
			return Watchlist{}, &UserNotFoundError{Provider: models.ProviderMAL, Username: username}
		default:
			return Watchlist{}, c.t.statusError(res)
		}

		var p malListPage
		if err := json.Unmarshal(res.body, &p); err != nil {
			return Watchlist{}, &DecodeError{Provider: models.ProviderMAL, Field: fmt.Sprintf("animelist page %d", page), Err: err}
		}
		for i := range p.Data {
			item := &p.Data[i]
			status, ok := malStatuses[item.ListStatus.Status]
			if !ok {
				return Watchlist{}, &DecodeError{Provider: models.ProviderMAL, Field: "list_status.status", Value: item.ListStatus.Status}
			}
			if item.ListStatus.IsRewatching {
				status = models.StatusRepeating
			}
			rec, err := item.Node.toRecord()
			if err != nil {
				return Watchlist{}, err
			}
			wl.Catalog = append(wl.Catalog, rec)
			wl.User.Works = append(wl.User.Works, models.UserWatchEntry{
				SourceID: rec.ID,
				MALID:    models.Ptr(item.Node.ID),
				Status:   status,
			})
		}
		next = p.Paging.Next
		if next != "" && !c.sameOrigin(next) {
			return Watchlist{}, &DecodeError{Provider: models.ProviderMAL, Field: "paging.next", Value: next}
		}
	}
	return wl, nil
}

// sameOrigin reports whether raw points at the configured endpoint's scheme
// and host. The client id header is only ever sent there.
func (c *MALClient) sameOrigin(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	base, err := url.Parse(c.endpoint)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, base.Scheme) && strings.EqualFold(u.Host, base.Host)
}
