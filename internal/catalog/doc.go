// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

/*
Package catalog resolves anime ids into normalized records through a shared
cache, one provider id space at a time.

Every provider is wrapped in a Source that knows its cache namespace and
largest batch. Fetcher.Resolve runs the same algorithm for all of them:

 1. Look every id up in the cache. A cached "null" is a confirmed absence.
 2. Split the misses into chunks no larger than the source's batch size.
 3. Send one request per chunk. 429 handling lives in the provider
    transport and is gated by the request budget.
 4. When a provider reports some but not all ids as errors, the chunk is
    ambiguous: it is halved and each half is resolved again, starting from
    the cache. An ambiguous single-id chunk is fatal (ErrAmbiguousSingle).
 5. Write every id of a successful chunk back to the cache, found or not.

Pending chunks live on an explicit stack rather than in recursive calls, so
a long run of bisections never grows the goroutine stack.
*/
package catalog
