// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package services

import (
	"context"
	"time"

	"github.com/tomtom215/sanime/internal/cache"
	"github.com/tomtom215/sanime/internal/logging"
	"github.com/tomtom215/sanime/internal/metrics"
)

// Collector runs one garbage collection pass over a cache store.
type Collector interface {
	Collect() error
	Backend() string
}

type badgerCollector struct{ store *cache.BadgerStore }

func (c badgerCollector) Collect() error  { return c.store.RunGC() }
func (c badgerCollector) Backend() string { return "badger" }

// BadgerCollector reclaims value log space of a BadgerStore.
func BadgerCollector(store *cache.BadgerStore) Collector {
	return badgerCollector{store: store}
}

type memoryCollector struct{ store *cache.MemoryStore }

func (c memoryCollector) Collect() error {
	if n := c.store.Cleanup(); n > 0 {
		logging.Debug().Int("removed", n).Msg("Expired cache entries removed")
	}
	return nil
}

func (c memoryCollector) Backend() string { return "memory" }

// MemoryCollector drops expired entries of a MemoryStore.
func MemoryCollector(store *cache.MemoryStore) Collector {
	return memoryCollector{store: store}
}

// CacheGCService runs a Collector on a fixed interval.
//
// A failed pass is logged and counted; the service keeps running so a
// transient GC error never restarts the cache layer.
type CacheGCService struct {
	collector Collector
	interval  time.Duration
	name      string
}

// NewCacheGCService creates the service. A non-positive interval becomes
// 10 minutes.
func NewCacheGCService(collector Collector, interval time.Duration) *CacheGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &CacheGCService{
		collector: collector,
		interval:  interval,
		name:      "cache-gc",
	}
}

// Serve implements suture.Service.
func (s *CacheGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	backend := s.collector.Backend()
	log := logging.WithComponent("cache-gc").With().Str("backend", backend).Logger()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.collector.Collect(); err != nil {
				metrics.CacheGCRuns.WithLabelValues(backend, "error").Inc()
				log.Warn().Err(err).Msg("Cache GC failed")
				continue
			}
			metrics.CacheGCRuns.WithLabelValues(backend, "ok").Inc()
		}
	}
}

// String implements fmt.Stringer.
func (s *CacheGCService) String() string {
	return s.name
}
