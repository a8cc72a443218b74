// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package config

import (
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/sanime/internal/provider"
)

// Config is the complete server configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Budget   BudgetConfig   `koanf:"budget"`
	Cache    CacheConfig    `koanf:"cache"`
	AniList  AniListConfig  `koanf:"anilist"`
	Annict   AnnictConfig   `koanf:"annict"`
	MAL      MALConfig      `koanf:"mal"`
	Provider ProviderConfig `koanf:"provider"`
	Users    UsersConfig    `koanf:"users"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// Addr returns host:port for net.Listen.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// BudgetConfig bounds the wall-clock time of one /show request.
type BudgetConfig struct {
	Limit time.Duration `koanf:"limit"`
}

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendBadger = "badger"
)

// CacheConfig selects and tunes the cache store.
type CacheConfig struct {
	Backend      string        `koanf:"backend"`
	Path         string        `koanf:"path"`
	GCInterval   time.Duration `koanf:"gc_interval"`
	WatchlistTTL time.Duration `koanf:"watchlist_ttl"`

	// CatalogTTL of zero keeps catalog entries forever.
	CatalogTTL time.Duration `koanf:"catalog_ttl"`
}

// AniListConfig needs no credentials.
type AniListConfig struct {
	Endpoint string `koanf:"endpoint"`
}

// AnnictConfig authenticates with a personal access token.
type AnnictConfig struct {
	Endpoint string `koanf:"endpoint"`
	Token    string `koanf:"token"`
}

// MALConfig authenticates with an API client id.
type MALConfig struct {
	Endpoint string `koanf:"endpoint"`
	ClientID string `koanf:"client_id"`
}

// ProviderConfig is shared by all three provider clients.
type ProviderConfig struct {
	Timeout           time.Duration `koanf:"timeout"`
	RateLimitWait     time.Duration `koanf:"rate_limit_wait"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	BreakerFailures   uint32        `koanf:"breaker_failures"`
	BreakerTimeout    time.Duration `koanf:"breaker_timeout"`
}

// Options converts the section to provider client options.
func (p ProviderConfig) Options() provider.Options {
	return provider.Options{
		Timeout:           p.Timeout,
		RateLimitWait:     p.RateLimitWait,
		RequestsPerSecond: p.RequestsPerSecond,
		BreakerFailures:   p.BreakerFailures,
		BreakerTimeout:    p.BreakerTimeout,
	}
}

// UsersConfig limits /show requests.
type UsersConfig struct {
	Max int `koanf:"max"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
