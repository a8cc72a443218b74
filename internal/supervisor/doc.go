// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

/*
Package supervisor runs the long-lived parts of the server under a suture v4
supervisor tree.

The tree has two layers below the root:

	sanime
	├── cache-layer   (cache GC)
	└── api-layer     (HTTP server)

A service that returns an error is restarted with suture's failure backoff.
A crash in the cache layer does not stop the API layer from serving.

Supervisor events are logged through sutureslog into the zerolog-backed
slog adapter from the logging package.
*/
package supervisor
