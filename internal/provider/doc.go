// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

/*
Package provider implements the HTTP clients for the three upstream services.

Clients:

  - AniListClient: anonymous GraphQL. Aliased Media lookups by MAL id or
    native id, aliased MediaListCollection watch lists.
  - AnnictClient: GraphQL with a Bearer token. searchWorks catalog lookups,
    aliased user watch lists split by watch state.
  - MALClient: REST with X-MAL-CLIENT-ID. Per-id anime lookups and cursor
    paginated user anime lists.

Every request goes through one transport per provider, which layers:

 1. client-side pacing (golang.org/x/time/rate)
 2. a circuit breaker (sony/gobreaker) that trips on transport errors and 5xx
 3. an unbounded fixed-delay retry on HTTP 429 (avast/retry-go), gated only
    by the caller's request budget

On a 429 the transport asks the budget whether waiting Retry-After seconds
still fits. If it does not, the *budget.ExhaustedError is returned as is and
no further attempt is made. Any other non-success status is returned as a
*StatusError and never retried locally.

Raw provider payloads never leave this package. Each client normalizes into
models.AnimeRecord and models.UserAggregate through fixed mapping tables; a
value outside a table is a *DecodeError.
*/
package provider
