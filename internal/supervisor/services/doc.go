// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

/*
Package services provides suture.Service wrappers for sanime components.

Each wrapper translates a component's lifecycle into suture's context-aware
Serve pattern:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts the ListenAndServe pattern to Serve

Cache GC (CacheGCService):
  - Runs a collection pass on every tick
  - Works with BadgerStore.RunGC and MemoryStore.Cleanup through the
    Collector adapters

Every wrapper implements fmt.Stringer so suture can name it in logs.
*/
package services
