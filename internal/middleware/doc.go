// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

// Package middleware provides HTTP middleware shared by the API router:
// request id propagation into the logging context and Prometheus request
// instrumentation. Both use the chi signature func(http.Handler) http.Handler.
package middleware
