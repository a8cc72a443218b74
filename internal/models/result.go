// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package models

// UserStatus is one user's status on a ranked anime.
type UserStatus struct {
	User   string      `json:"user"`
	Status WatchStatus `json:"status"`
}

// RankedAnime is one row of the ranked view.
type RankedAnime struct {
	ID       ServiceID    `json:"id"`
	Score    int          `json:"score"`
	Statuses []UserStatus `json:"statuses"`
}

// ShowResult is the aggregated view for one /show request.
type ShowResult struct {
	Users    []UserAggregate            `json:"users"`
	Animes   map[ServiceID]*AnimeRecord `json:"animes"`
	Warnings []string                   `json:"warnings"`
	Ranking  []RankedAnime              `json:"ranking"`

	// Aliases maps watch entry ids that were folded under a different
	// canonical id, e.g. an AniList id whose media carries a MAL id.
	Aliases map[ServiceID]ServiceID `json:"aliases,omitempty"`
}
