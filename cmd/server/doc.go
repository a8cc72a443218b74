// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

/*
Package main is the entry point for the sanime server.

sanime fetches the watch lists of several users from Annict, AniList and
MyAnimeList, resolves every title to one canonical record and ranks what the
group could watch together.

# Application Architecture

	RootSupervisor ("sanime")
	├── CacheSupervisor ("cache-layer")
	│   └── Cache GC
	└── APISupervisor ("api-layer")
	    └── HTTP Server (/, /healthz, /metrics, /show)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config file and environment
 2. Logging: zerolog, configured from the logging section
 3. Cache store: BadgerDB on disk, or the in-process memory store
 4. Provider clients: AniList, Annict and MAL with rate limiting, circuit
    breakers and 429 retries
 5. Aggregation: the /show orchestrator
 6. HTTP Server: Chi router under the supervisor tree

# Configuration

Highest priority wins:
  - Environment variables (ANNICT_TOKEN, MAL_CLIENT_ID, HTTP_PORT, CACHE_BACKEND, ...)
  - Config file (CONFIG_PATH, or config.yaml in the working directory)
  - Built-in defaults

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
in-flight requests for server.shutdown_timeout, then the cache store is
closed.

# Example Usage

	export ANNICT_TOKEN=your-annict-token
	export MAL_CLIENT_ID=your-mal-client-id
	./sanime
	curl 'http://localhost:3000/show?users=anilist:foo,annict:bar'
*/
package main
