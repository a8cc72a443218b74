// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

// Package budget enforces the wall-clock ceiling of one inbound request.
//
// A Budget is created when a /show request arrives and is handed to every
// provider call made on its behalf, including 429 re-issues and bisected
// sub-batches. It is never recreated or reset partway through. When a
// provider asks the caller to back off for longer than the remaining
// budget allows, CheckOrSignalBackoff returns an *ExhaustedError; callers
// must treat it as terminal and surface it without retrying.
package budget

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultLimit is the ceiling applied when none is configured.
const DefaultLimit = 5 * time.Second

// ExhaustedError signals that the request must be abandoned and the
// client asked to retry after RetryAfter seconds.
type ExhaustedError struct {
	Elapsed    time.Duration
	RetryAfter int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("request budget exhausted after %s (retry after %ds)", e.Elapsed.Round(time.Millisecond), e.RetryAfter)
}

// IsExhausted reports whether err carries an *ExhaustedError.
func IsExhausted(err error) (*ExhaustedError, bool) {
	var ex *ExhaustedError
	if errors.As(err, &ex) {
		return ex, true
	}
	return nil, false
}

// Budget tracks elapsed time against a fixed ceiling.
type Budget struct {
	start time.Time
	limit time.Duration
	now   func() time.Time
}

// Option configures a Budget.
type Option func(*Budget)

// WithLimit overrides DefaultLimit.
func WithLimit(limit time.Duration) Option {
	return func(b *Budget) {
		if limit > 0 {
			b.limit = limit
		}
	}
}

// WithClock replaces time.Now; used by tests.
func WithClock(now func() time.Time) Option {
	return func(b *Budget) {
		b.now = now
	}
}

// New starts a budget at the current instant.
func New(opts ...Option) *Budget {
	b := &Budget{limit: DefaultLimit, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	b.start = b.now()
	return b
}

// Elapsed returns the time spent since the budget started.
func (b *Budget) Elapsed() time.Duration {
	return b.now().Sub(b.start)
}

// Limit returns the configured ceiling.
func (b *Budget) Limit() time.Duration {
	return b.limit
}

// CheckOrSignalBackoff returns an *ExhaustedError when waiting
// suggestedDelay seconds would push the request past its ceiling.
// Negative delays are clamped to zero.
func (b *Budget) CheckOrSignalBackoff(suggestedDelay float64) error {
	if math.IsNaN(suggestedDelay) {
		suggestedDelay = 1
	}
	// Anything past a day is treated as a day; it exceeds any sane limit.
	delay := int(math.Floor(math.Min(math.Max(0, suggestedDelay), 86400)))
	elapsed := b.Elapsed()
	if elapsed+time.Duration(delay)*time.Second > b.limit {
		retryAfter := delay
		if retryAfter < 1 {
			retryAfter = 1
		}
		return &ExhaustedError{Elapsed: elapsed, RetryAfter: retryAfter}
	}
	return nil
}
