// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if c.Budget.Limit <= 0 {
		return fmt.Errorf("REQUEST_BUDGET must be positive, got %s", c.Budget.Limit)
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	if c.Users.Max < 1 || c.Users.Max > 100 {
		return fmt.Errorf("MAX_USERS must be between 1 and 100, got %d", c.Users.Max)
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if c.Server.RateLimitRequests < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must not be negative, got %d", c.Server.RateLimitRequests)
	}
	if c.Server.RateLimitRequests > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendBadger:
		if c.Cache.Path == "" {
			return fmt.Errorf("CACHE_PATH is required when CACHE_BACKEND=badger")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be %q or %q, got %q", CacheBackendMemory, CacheBackendBadger, c.Cache.Backend)
	}
	if c.Cache.GCInterval <= 0 {
		return fmt.Errorf("CACHE_GC_INTERVAL must be positive, got %s", c.Cache.GCInterval)
	}
	if c.Cache.WatchlistTTL <= 0 {
		return fmt.Errorf("WATCHLIST_TTL must be positive, got %s", c.Cache.WatchlistTTL)
	}
	if c.Cache.CatalogTTL < 0 {
		return fmt.Errorf("CATALOG_TTL must not be negative, got %s", c.Cache.CatalogTTL)
	}
	return nil
}

func (c *Config) validateProviders() error {
	for name, endpoint := range map[string]string{
		"ANILIST_ENDPOINT": c.AniList.Endpoint,
		"ANNICT_ENDPOINT":  c.Annict.Endpoint,
		"MAL_ENDPOINT":     c.MAL.Endpoint,
	} {
		if err := validateHTTPURL(endpoint); err != nil {
			return fmt.Errorf("%s is invalid: %w", name, err)
		}
	}
	if c.Provider.Timeout <= 0 || c.Provider.RateLimitWait <= 0 || c.Provider.BreakerTimeout <= 0 {
		return fmt.Errorf("provider timeouts must be positive")
	}
	if c.Provider.RequestsPerSecond < 0 {
		return fmt.Errorf("PROVIDER_RPS must not be negative")
	}
	if c.Provider.BreakerFailures == 0 {
		return fmt.Errorf("PROVIDER_BREAKER_FAILURES must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// Warnings lists settings that are valid but will make some requests fail.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Annict.Token == "" {
		warnings = append(warnings, "ANNICT_TOKEN is not set; requests for annict users will fail")
	}
	if c.MAL.ClientID == "" {
		warnings = append(warnings, "MAL_CLIENT_ID is not set; requests for mal users will fail")
	}
	return warnings
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}
