// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/sanime/internal/provider"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/sanime/config.yaml",
	"/etc/sanime/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	p := provider.DefaultOptions()
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              3000,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			RateLimitRequests: 60,
			RateLimitWindow:   time.Minute,
			CORSOrigins:       []string{"*"},
		},
		Budget: BudgetConfig{
			Limit: 5 * time.Second,
		},
		Cache: CacheConfig{
			Backend:      CacheBackendBadger,
			Path:         "/data/cache",
			GCInterval:   10 * time.Minute,
			WatchlistTTL: 3 * time.Minute,
			CatalogTTL:   0,
		},
		AniList: AniListConfig{
			Endpoint: "https://graphql.anilist.co/",
		},
		Annict: AnnictConfig{
			Endpoint: "https://api.annict.com/graphql",
		},
		MAL: MALConfig{
			Endpoint: "https://api.myanimelist.net/v2",
		},
		Provider: ProviderConfig{
			Timeout:           p.Timeout,
			RateLimitWait:     p.RateLimitWait,
			RequestsPerSecond: p.RequestsPerSecond,
			BreakerFailures:   p.BreakerFailures,
			BreakerTimeout:    p.BreakerTimeout,
		},
		Users: UsersConfig{
			Max: 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration with Koanf v2: defaults, then the optional YAML
// file, then environment variables. The result is validated.
func Load() (*Config, error) {
	return load(findConfigFile())
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"http_host":                 "server.host",
	"http_port":                 "server.port",
	"server_read_timeout":       "server.read_timeout",
	"server_write_timeout":      "server.write_timeout",
	"server_shutdown_timeout":   "server.shutdown_timeout",
	"rate_limit_requests":       "server.rate_limit_requests",
	"rate_limit_window":         "server.rate_limit_window",
	"cors_origins":              "server.cors_origins",
	"request_budget":            "budget.limit",
	"cache_backend":             "cache.backend",
	"cache_path":                "cache.path",
	"cache_gc_interval":         "cache.gc_interval",
	"watchlist_ttl":             "cache.watchlist_ttl",
	"catalog_ttl":               "cache.catalog_ttl",
	"anilist_endpoint":          "anilist.endpoint",
	"annict_endpoint":           "annict.endpoint",
	"annict_token":              "annict.token",
	"mal_endpoint":              "mal.endpoint",
	"mal_client_id":             "mal.client_id",
	"provider_timeout":          "provider.timeout",
	"provider_rate_limit_wait":  "provider.rate_limit_wait",
	"provider_rps":              "provider.requests_per_second",
	"provider_breaker_failures": "provider.breaker_failures",
	"provider_breaker_timeout":  "provider.breaker_timeout",
	"max_users":                 "users.max",
	"log_level":                 "logging.level",
	"log_format":                "logging.format",
	"log_caller":                "logging.caller",
}

// envTransformFunc maps an environment variable name to its config path.
// Unmapped names return "" and are skipped.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - ANNICT_TOKEN -> annict.token
//   - REQUEST_BUDGET -> budget.limit
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
