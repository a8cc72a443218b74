// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/sanime/internal/aggregate"
	"github.com/tomtom215/sanime/internal/api"
	"github.com/tomtom215/sanime/internal/cache"
	"github.com/tomtom215/sanime/internal/config"
	"github.com/tomtom215/sanime/internal/logging"
	"github.com/tomtom215/sanime/internal/provider"
	"github.com/tomtom215/sanime/internal/supervisor"
	"github.com/tomtom215/sanime/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("cache_backend", cfg.Cache.Backend).
		Dur("budget", cfg.Budget.Limit).
		Int("max_users", cfg.Users.Max).
		Msg("Configuration loaded")
	for _, w := range cfg.Warnings() {
		logging.Warn().Msg(w)
	}

	store, collector, closer, err := openCache(&cfg.Cache)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open cache store")
	}
	defer func() {
		if err := closer.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing cache store")
		}
	}()

	opts := cfg.Provider.Options()
	orch := aggregate.New(aggregate.Deps{
		AniList:      provider.NewAniListClient(cfg.AniList.Endpoint, opts),
		Annict:       provider.NewAnnictClient(cfg.Annict.Endpoint, cfg.Annict.Token, opts),
		MAL:          provider.NewMALClient(cfg.MAL.Endpoint, cfg.MAL.ClientID, opts),
		Store:        store,
		WatchlistTTL: cfg.Cache.WatchlistTTL,
		CatalogTTL:   cfg.Cache.CatalogTTL,
	}, aggregate.WithBudgetLimit(cfg.Budget.Limit))

	router := api.NewRouter(
		api.NewHandler(orch, cfg.Users.Max),
		api.NewChiMiddleware(&api.ChiMiddlewareConfig{
			CORSAllowedOrigins: cfg.Server.CORSOrigins,
			CORSMaxAge:         86400,
			RateLimitRequests:  cfg.Server.RateLimitRequests,
			RateLimitWindow:    cfg.Server.RateLimitWindow,
		}),
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout + time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.AddCacheService(services.NewCacheGCService(collector, cfg.Cache.GCInterval))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}
	logging.Info().Msg("Shutdown complete")
}

// openCache opens the configured store along with its GC collector.
func openCache(cfg *config.CacheConfig) (cache.Store, services.Collector, io.Closer, error) {
	if cfg.Backend == config.CacheBackendMemory {
		store := cache.NewMemoryStore()
		logging.Info().Msg("Using in-process memory cache")
		return store, services.MemoryCollector(store), io.NopCloser(nil), nil
	}

	store, err := cache.OpenBadger(cache.BadgerConfig{
		Path:        cfg.Path,
		Compression: true,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return store, services.BadgerCollector(store), store, nil
}
