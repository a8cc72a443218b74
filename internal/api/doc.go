// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

/*
Package api serves the HTTP surface using the chi router.

Routes:

	GET /                 usage string
	GET /show             aggregated, ranked view for ?users=provider:name,...
	GET /healthz          liveness
	GET /metrics          Prometheus exposition
	GET /wp-login.php     418
	GET /wp-admin/*       418

JSON bodies use the models.APIResponse envelope. Errors from the
aggregation core map to status codes as follows:

	*budget.ExhaustedError       503 BUDGET_EXHAUSTED, Refresh and Retry-After headers
	provider.ErrCircuitOpen      503 PROVIDER_UNAVAILABLE
	*provider.UserNotFoundError  404 USER_NOT_FOUND
	*aggregate.UnresolvedError   500 UNRESOLVED_ANIME
	other provider failures      502 PROVIDER_ERROR
*/
package api
