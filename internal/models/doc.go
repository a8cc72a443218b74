// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

/*
Package models defines the data structures shared across Sanime.

Provider clients own their raw response shapes privately. Only the
normalized types in this package cross package boundaries:

  - ServiceID: provider-tagged identifier ("mal:5114", "annict:1234", "anilist:21")
  - AnimeRecord: one title's metadata, merged from up to three providers
  - WatchStatus: the shared watch status vocabulary with a fixed precedence
  - UserWatchEntry / UserAggregate: one user's normalized watch list
  - ShowResult / RankedAnime: the aggregated view returned by /show

Canonical IDs:

MyAnimeList IDs are the cross-reference space. Whenever a MAL ID is known
for a title it is the canonical ID; otherwise the originating provider's
own ID is used.
*/
package models
