// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/sanime/internal/budget"
	"github.com/tomtom215/sanime/internal/logging"
	"github.com/tomtom215/sanime/internal/metrics"
	"github.com/tomtom215/sanime/internal/models"
)

const (
	// maxErrorBodySize bounds how much of an error body ends up in a StatusError.
	maxErrorBodySize = 64 * 1024

	// maxBodySize bounds successful payloads; a 1000-entry MAL page is well below it.
	maxBodySize = 32 << 20

	// defaultRetryAfter is used when a 429 carries no usable Retry-After.
	defaultRetryAfter = 1
)

// errRateLimited marks an attempt that hit 429 and may be re-issued.
var errRateLimited = errors.New("rate limited")

// errServerStatus marks a 5xx so the breaker counts it as a failure.
var errServerStatus = errors.New("server error status")

// Options configures a provider client.
type Options struct {
	// HTTPClient overrides the default client; its Timeout is left untouched.
	HTTPClient *http.Client

	// Timeout applies to each HTTP attempt when HTTPClient is nil.
	Timeout time.Duration

	// RateLimitWait is the fixed pause between a 429 and its re-issue.
	RateLimitWait time.Duration

	// RequestsPerSecond paces outgoing requests; zero disables pacing.
	RequestsPerSecond float64

	// BreakerFailures consecutive failures open the breaker.
	BreakerFailures uint32

	// BreakerTimeout is how long the breaker stays open before probing.
	BreakerTimeout time.Duration
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:           10 * time.Second,
		RateLimitWait:     2 * time.Second,
		RequestsPerSecond: 5,
		BreakerFailures:   5,
		BreakerTimeout:    30 * time.Second,
	}
}

// response is a fully read HTTP response.
type response struct {
	status int
	header http.Header
	body   []byte
}

// transport is the per-provider request pipeline shared by every call a
// client makes.
type transport struct {
	provider      models.Provider
	client        *http.Client
	limiter       *rate.Limiter
	breaker       *gobreaker.CircuitBreaker[*response]
	rateLimitWait time.Duration
}

func newTransport(p models.Provider, opts Options) *transport {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.RateLimitWait < 0 {
		opts.RateLimitWait = 0
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = def.BreakerFailures
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = def.BreakerTimeout
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	name := string(p)
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	failures := opts.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			log := logging.WithComponent("provider")
			log.Warn().Str("provider", name).Str("from", fromStr).Str("to", toStr).Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &transport{
		provider:      p,
		client:        client,
		limiter:       limiter,
		breaker:       breaker,
		rateLimitWait: opts.RateLimitWait,
	}
}

// do sends the request built by build, re-issuing it after every 429 for
// as long as the budget allows. build is called once per attempt so that
// request bodies are fresh. The returned response may carry any status
// other than 429 and 5xx; callers decide which statuses they accept.
func (t *transport) do(ctx context.Context, b *budget.Budget, build func(context.Context) (*http.Request, error)) (*response, error) {
	attempt := func() (*response, error) {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		req, err := build(ctx)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		res, err := t.roundTrip(req)
		if err != nil {
			return nil, err
		}
		if res.status != http.StatusTooManyRequests {
			return res, nil
		}

		metrics.ProviderRateLimited.WithLabelValues(string(t.provider)).Inc()
		retryAfter := parseRetryAfter(res.header.Get("Retry-After"), time.Now())
		logging.Ctx(ctx).Info().
			Str("provider", string(t.provider)).
			Float64("retry_after", retryAfter).
			Dur("elapsed", b.Elapsed()).
			Msg("Provider rate limited")
		if err := b.CheckOrSignalBackoff(retryAfter); err != nil {
			metrics.BudgetExhausted.Inc()
			return nil, err
		}
		return nil, errRateLimited
	}

	res, err := retry.DoWithData(attempt,
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(t.rateLimitWait),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, errRateLimited)
		}),
	)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// roundTrip runs one HTTP exchange through the circuit breaker.
func (t *transport) roundTrip(req *http.Request) (*response, error) {
	var out *response
	_, err := t.breaker.Execute(func() (*response, error) {
		start := time.Now()
		resp, err := t.client.Do(req)
		if err != nil {
			metrics.RecordProviderRequest(string(t.provider), 0, time.Since(start))
			return nil, fmt.Errorf("%s request failed: %w", t.provider, err)
		}
		defer resp.Body.Close()

		limit := int64(maxBodySize)
		if resp.StatusCode >= 400 {
			limit = maxErrorBodySize
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
		metrics.RecordProviderRequest(string(t.provider), resp.StatusCode, time.Since(start))
		if err != nil {
			return nil, fmt.Errorf("%s read body: %w", t.provider, err)
		}

		out = &response{status: resp.StatusCode, header: resp.Header, body: body}
		if resp.StatusCode >= 500 {
			return out, errServerStatus
		}
		return out, nil
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%s: %w", t.provider, ErrCircuitOpen)
	case errors.Is(err, errServerStatus):
		return nil, t.statusError(out)
	case err != nil:
		return nil, err
	}
	return out, nil
}

func (t *transport) statusError(res *response) *StatusError {
	body := string(res.body)
	if len(res.body) >= maxErrorBodySize {
		body += "\n... (truncated)"
	}
	return &StatusError{Provider: t.provider, StatusCode: res.status, Body: body}
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) float64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return defaultRetryAfter
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return secs
	}
	if at, err := http.ParseTime(v); err == nil {
		return at.Sub(now).Seconds()
	}
	return defaultRetryAfter
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 0.5
	case gobreaker.StateOpen:
		return 1
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
