// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

/*
Package config loads the server configuration with Koanf v2.

Sources are layered, later ones winning:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: $CONFIG_PATH, else the first of DefaultConfigPaths
 3. Environment variables listed in envMappings

Unknown environment variables are ignored. Load validates the result and
fails on the first invalid setting.

Example config.yaml:

	server:
	  port: 3000
	  cors_origins: ["https://example.com"]
	budget:
	  limit: 5s
	cache:
	  backend: badger
	  path: /data/cache
	annict:
	  token: "..."
	mal:
	  client_id: "..."
*/
package config
