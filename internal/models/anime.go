// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Provider identifies one of the supported tracking services.
type Provider string

const (
	ProviderAnnict  Provider = "annict"
	ProviderAniList Provider = "anilist"
	ProviderMAL     Provider = "mal"
)

// Providers lists every supported provider.
var Providers = []Provider{ProviderAnnict, ProviderAniList, ProviderMAL}

// Valid reports whether p is a supported provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderAnnict, ProviderAniList, ProviderMAL:
		return true
	}
	return false
}

// ServiceID is a provider-tagged identifier such as "mal:5114".
type ServiceID string

// NewServiceID builds the ServiceID for a numeric provider ID.
func NewServiceID(p Provider, id int) ServiceID {
	return ServiceID(string(p) + ":" + strconv.Itoa(id))
}

// ParseServiceID splits a ServiceID into its provider and numeric ID.
func ParseServiceID(s ServiceID) (Provider, int, error) {
	prefix, rest, ok := strings.Cut(string(s), ":")
	if !ok {
		return "", 0, fmt.Errorf("service id %q: missing provider prefix", s)
	}
	p := Provider(prefix)
	if !p.Valid() {
		return "", 0, fmt.Errorf("service id %q: unknown provider %q", s, prefix)
	}
	id, err := strconv.Atoi(rest)
	if err != nil {
		return "", 0, fmt.Errorf("service id %q: %w", s, err)
	}
	return p, id, nil
}

// Provider returns the provider prefix of the ID, or "" when malformed.
func (s ServiceID) Provider() Provider {
	prefix, _, _ := strings.Cut(string(s), ":")
	return Provider(prefix)
}

// URL returns the provider's public page for the ID.
func (s ServiceID) URL() string {
	p, id, err := ParseServiceID(s)
	if err != nil {
		return ""
	}
	switch p {
	case ProviderMAL:
		return "https://myanimelist.net/anime/" + strconv.Itoa(id)
	case ProviderAnnict:
		return "https://annict.com/works/" + strconv.Itoa(id)
	case ProviderAniList:
		return "https://anilist.co/anime/" + strconv.Itoa(id)
	}
	return ""
}

// AnimeType is the shared classification of a title.
type AnimeType string

const (
	AnimeTypeTV     AnimeType = "TV"
	AnimeTypeMovie  AnimeType = "MOVIE"
	AnimeTypeOVA    AnimeType = "OVA"
	AnimeTypeONA    AnimeType = "ONA"
	AnimeTypeOthers AnimeType = "OTHERS"
)

// SeasonName is one of the four broadcast seasons.
type SeasonName string

const (
	SeasonWinter SeasonName = "WINTER"
	SeasonSpring SeasonName = "SPRING"
	SeasonSummer SeasonName = "SUMMER"
	SeasonAutumn SeasonName = "AUTUMN"
)

// Season is a broadcast season. Name may be nil while Year is known;
// a nil *Season means the season is unknown altogether.
type Season struct {
	Year int         `json:"year"`
	Name *SeasonName `json:"name"`
}

// AnimeRecord is the normalized metadata of one title.
//
// Records are mutated only while IdentityMerger folds them together and
// are treated as immutable afterwards.
type AnimeRecord struct {
	ID                 ServiceID  `json:"id"`
	IDMal              *int       `json:"id_mal,omitempty"`
	IDAnnict           *int       `json:"id_annict,omitempty"`
	IDAniList          *int       `json:"id_anilist,omitempty"`
	Title              *string    `json:"title,omitempty"`
	HorizontalCoverURL *string    `json:"horizontal_cover_url,omitempty"`
	VerticalCoverURL   *string    `json:"vertical_cover_url,omitempty"`
	Type               *AnimeType `json:"type"`
	Season             *Season    `json:"season"`
}

// Clone returns a deep copy of the record.
func (a *AnimeRecord) Clone() *AnimeRecord {
	if a == nil {
		return nil
	}
	c := *a
	c.IDMal = clonePtr(a.IDMal)
	c.IDAnnict = clonePtr(a.IDAnnict)
	c.IDAniList = clonePtr(a.IDAniList)
	c.Title = clonePtr(a.Title)
	c.HorizontalCoverURL = clonePtr(a.HorizontalCoverURL)
	c.VerticalCoverURL = clonePtr(a.VerticalCoverURL)
	c.Type = clonePtr(a.Type)
	if a.Season != nil {
		s := Season{Year: a.Season.Year, Name: clonePtr(a.Season.Name)}
		c.Season = &s
	}
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
