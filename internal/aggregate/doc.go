// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

/*
Package aggregate builds the combined view for one /show request.

A request runs in five steps under a single request budget:

 1. Watch lists are fetched for every provider concurrently. Lists fetched
    from MAL carry catalog metadata, which is written straight into the MAL
    catalog cache.
 2. Every MAL id referenced by any list is looked up on AniList.
 3. AniList ids without a MAL id are looked up on AniList directly.
 4. Every Annict id is looked up on Annict.
 5. The three result sets are merged in that order. Canonical ids that are
    still missing and carry a MAL id are resolved against MAL; anything left
    after that is an *UnresolvedError.

The merged map is then ranked. Merge warnings are logged and returned.
*/
package aggregate
