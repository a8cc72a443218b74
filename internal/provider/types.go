// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package provider

import "github.com/tomtom215/sanime/internal/models"

// Batch is the outcome of one multi-id catalog request.
type Batch struct {
	// Records holds every requested id the provider returned, keyed by the
	// id as requested. Ids absent from the map were not found.
	Records map[int]*models.AnimeRecord

	// Errors is the length of the provider's error list. When it is
	// non-zero and differs from the number of requested ids, the batch is
	// ambiguous and Records must not be trusted.
	Errors int
}

// Watchlist is one user's list as returned by a provider.
type Watchlist struct {
	User models.UserAggregate `json:"user"`

	// Catalog holds anime metadata embedded in the list payload. Only the
	// MAL list endpoint returns it.
	Catalog []*models.AnimeRecord `json:"catalog,omitempty"`
}
