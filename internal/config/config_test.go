// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Budget.Limit != 5*time.Second {
		t.Errorf("Budget.Limit = %v, want 5s", cfg.Budget.Limit)
	}
	if cfg.Cache.WatchlistTTL != 3*time.Minute {
		t.Errorf("Cache.WatchlistTTL = %v, want 3m", cfg.Cache.WatchlistTTL)
	}
	if cfg.Cache.CatalogTTL != 0 {
		t.Errorf("Cache.CatalogTTL = %v, want 0 (no expiry)", cfg.Cache.CatalogTTL)
	}
	if cfg.Users.Max != 20 {
		t.Errorf("Users.Max = %d, want 20", cfg.Users.Max)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoad_EnvOverridesFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 8080
  cors_origins: ["https://a.example"]
cache:
  backend: memory
annict:
  token: from-file
users:
  max: 10
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("REQUEST_BUDGET", "7s")
	t.Setenv("CORS_ORIGINS", "https://b.example, https://c.example")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, env should win", cfg.Server.Port)
	}
	if cfg.Budget.Limit != 7*time.Second {
		t.Errorf("Budget.Limit = %v, want 7s", cfg.Budget.Limit)
	}
	if want := []string{"https://b.example", "https://c.example"}; !reflect.DeepEqual(cfg.Server.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %q, want %q", cfg.Server.CORSOrigins, want)
	}
	if cfg.Cache.Backend != CacheBackendMemory {
		t.Errorf("Cache.Backend = %q, file should win over default", cfg.Cache.Backend)
	}
	if cfg.Annict.Token != "from-file" || cfg.Users.Max != 10 {
		t.Errorf("file values not applied: %+v %+v", cfg.Annict, cfg.Users)
	}
	if cfg.AniList.Endpoint != "https://graphql.anilist.co/" {
		t.Errorf("AniList.Endpoint = %q, default should survive", cfg.AniList.Endpoint)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"HTTP_PORT":      "server.port",
		"ANNICT_TOKEN":   "annict.token",
		"MAL_CLIENT_ID":  "mal.client_id",
		"PROVIDER_RPS":   "provider.requests_per_second",
		"log_level":      "logging.level",
		"PATH":           "",
		"CACHE_BACKEND2": "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "HTTP_PORT"},
		{"zero budget", func(c *Config) { c.Budget.Limit = 0 }, "REQUEST_BUDGET"},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "redis" }, "CACHE_BACKEND"},
		{"badger without path", func(c *Config) { c.Cache.Path = "" }, "CACHE_PATH"},
		{"zero watchlist ttl", func(c *Config) { c.Cache.WatchlistTTL = 0 }, "WATCHLIST_TTL"},
		{"negative catalog ttl", func(c *Config) { c.Cache.CatalogTTL = -time.Second }, "CATALOG_TTL"},
		{"bad endpoint", func(c *Config) { c.MAL.Endpoint = "ftp://x" }, "MAL_ENDPOINT"},
		{"no breaker failures", func(c *Config) { c.Provider.BreakerFailures = 0 }, "PROVIDER_BREAKER_FAILURES"},
		{"max users", func(c *Config) { c.Users.Max = 0 }, "MAX_USERS"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error mentioning %s", err, tt.wantErr)
			}
		})
	}

	t.Run("memory backend needs no path", func(t *testing.T) {
		t.Parallel()
		cfg := defaultConfig()
		cfg.Cache.Backend = CacheBackendMemory
		cfg.Cache.Path = ""
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestWarnings(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if got := len(cfg.Warnings()); got != 2 {
		t.Errorf("expected warnings for missing Annict token and MAL client id, got %d", got)
	}
	cfg.Annict.Token = "t"
	cfg.MAL.ClientID = "c"
	if got := cfg.Warnings(); len(got) != 0 {
		t.Errorf("unexpected warnings %q", got)
	}
}

func TestServerAddr(t *testing.T) {
	t.Parallel()

	s := ServerConfig{Host: "0.0.0.0", Port: 3000}
	if got := s.Addr(); got != "0.0.0.0:3000" {
		t.Errorf("Addr() = %q", got)
	}
}
