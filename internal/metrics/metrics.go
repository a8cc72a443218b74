// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Provider Metrics
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sanime_provider_requests_total",
			Help: "Total number of upstream provider HTTP requests",
		},
		[]string{"provider", "status"},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sanime_provider_request_duration_seconds",
			Help:    "Duration of upstream provider HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	ProviderRateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sanime_provider_rate_limited_total",
			Help: "Total number of 429 responses received from providers",
		},
		[]string{"provider"},
	)

	// Catalog Metrics
	CatalogCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sanime_catalog_cache_lookups_total",
			Help: "Catalog id lookups by cache result",
		},
		[]string{"provider", "result"}, // result: "hit", "miss"
	)

	CatalogBisections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sanime_catalog_bisections_total",
			Help: "Total number of ambiguous catalog batches split in half",
		},
		[]string{"provider"},
	)

	// Watchlist Metrics
	WatchlistCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sanime_watchlist_cache_lookups_total",
			Help: "Watchlist username lookups by cache result",
		},
		[]string{"provider", "result"},
	)

	CacheGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sanime_cache_gc_runs_total",
			Help: "Cache garbage collection passes by outcome",
		},
		[]string{"backend", "result"},
	)

	// Request Metrics
	BudgetExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sanime_budget_exhausted_total",
			Help: "Total number of requests abandoned because the request budget ran out",
		},
	)

	MergeWarnings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sanime_merge_warnings_total",
			Help: "Total number of identity merge warnings emitted",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sanime_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 0.5=half-open, 1=open)",
		},
		[]string{"provider"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sanime_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"provider", "from_state", "to_state"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sanime_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sanime_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sanime_http_active_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)
)

// RecordProviderRequest records one upstream round trip. A status of 0
// means the request failed before a response arrived.
func RecordProviderRequest(provider string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	ProviderRequests.WithLabelValues(provider, label).Inc()
	ProviderRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordCatalogCache records hit and miss counts for one resolve call.
func RecordCatalogCache(provider string, hits, misses int) {
	if hits > 0 {
		CatalogCacheLookups.WithLabelValues(provider, "hit").Add(float64(hits))
	}
	if misses > 0 {
		CatalogCacheLookups.WithLabelValues(provider, "miss").Add(float64(misses))
	}
}

// RecordWatchlistCache records hit and miss counts for one fetch call.
func RecordWatchlistCache(provider string, hits, misses int) {
	if hits > 0 {
		WatchlistCacheLookups.WithLabelValues(provider, "hit").Add(float64(hits))
	}
	if misses > 0 {
		WatchlistCacheLookups.WithLabelValues(provider, "miss").Add(float64(misses))
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, path, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
