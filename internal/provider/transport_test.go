// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/sanime/internal/budget"
)

const singleMediaResponse = `{"data":{"w0":{"id":1,"idMal":100,"title":{"native":"A"},"season":"SPRING","seasonYear":2024,"coverImage":{"extraLarge":"https://img/a.jpg"},"format":"TV"}}}`

func TestTransportRetriesAfterRateLimit(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t, nil,
		scripted{status: http.StatusTooManyRequests, header: map[string]string{"Retry-After": "0"}},
		scripted{status: http.StatusTooManyRequests, header: map[string]string{"Retry-After": "1"}},
		ok(singleMediaResponse),
	)
	c := NewAniListClient(srv.URL, testOptions())

	batch, err := c.LookupMedia(context.Background(), budget.New(), []int{100}, true)
	if err != nil {
		t.Fatalf("LookupMedia: %v", err)
	}
	if got := srv.calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
	if batch.Records[100] == nil {
		t.Error("record for 100 missing after retries")
	}
}

func TestTransportBudgetExhaustedOnRateLimit(t *testing.T) {
	t.Parallel()

	clock := &stepClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := budget.New(budget.WithClock(clock.Now))
	clock.now = clock.now.Add(4500 * time.Millisecond)

	srv := newFakeServer(t, nil,
		scripted{status: http.StatusTooManyRequests, header: map[string]string{"Retry-After": "1"}},
		ok(singleMediaResponse),
	)
	c := NewAniListClient(srv.URL, testOptions())

	_, err := c.LookupMedia(context.Background(), b, []int{100}, true)
	ex, isExhausted := budget.IsExhausted(err)
	if !isExhausted {
		t.Fatalf("expected budget exhaustion, got %v", err)
	}
	if ex.RetryAfter != 1 {
		t.Errorf("RetryAfter: expected 1, got %d", ex.RetryAfter)
	}
	if got := srv.calls.Load(); got != 1 {
		t.Errorf("exhausted budget must not re-issue, got %d calls", got)
	}
}

func TestTransportServerErrorIsFatal(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t, nil, scripted{status: http.StatusBadGateway, body: "upstream down"})
	c := NewAniListClient(srv.URL, testOptions())

	_, err := c.LookupMedia(context.Background(), budget.New(), []int{1}, false)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %T (%v)", err, err)
	}
	if se.StatusCode != http.StatusBadGateway || !strings.Contains(se.Body, "upstream down") {
		t.Errorf("unexpected status error: %+v", se)
	}
	if got := srv.calls.Load(); got != 1 {
		t.Errorf("5xx must not be retried, got %d calls", got)
	}
}

func TestTransportCircuitBreakerOpens(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t, nil, scripted{status: http.StatusInternalServerError})
	opts := testOptions()
	opts.BreakerFailures = 2
	c := NewMALClient(srv.URL, "id", opts)

	for i := 0; i < 2; i++ {
		_, err := c.GetAnime(context.Background(), budget.New(), 1)
		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("call %d: expected *StatusError, got %v", i, err)
		}
	}

	_, err := c.GetAnime(context.Background(), budget.New(), 1)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if got := srv.calls.Load(); got != 2 {
		t.Errorf("open breaker must not reach the server, got %d calls", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		value string
		want  float64
	}{
		{"empty", "", 1},
		{"seconds", "3", 3},
		{"fractional", "1.5", 1.5},
		{"http date", now.Add(4 * time.Second).Format(http.TimeFormat), 4},
		{"garbage", "soon", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := parseRetryAfter(tt.value, now); got != tt.want {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestAliasedQuery(t *testing.T) {
	t.Parallel()

	q := aliasedQuery("w", "Int", 2, func(v string) string {
		return "Media(id: " + v + ") { ...f }"
	}, "fragment f on Media { id }\n")

	want := "query ($w0: Int, $w1: Int) {\nw0: Media(id: $w0) { ...f }\nw1: Media(id: $w1) { ...f }\n}\nfragment f on Media { id }\n"
	if q != want {
		t.Errorf("aliasedQuery:\n got %q\nwant %q", q, want)
	}

	vars := aliasedVariables("w", []int{7, 9})
	if vars["w0"] != 7 || vars["w1"] != 9 || len(vars) != 2 {
		t.Errorf("aliasedVariables = %v", vars)
	}

	for alias, want := range map[string]int{"w0": 0, "w12": 12} {
		if i, ok := aliasIndex("w", alias); !ok || i != want {
			t.Errorf("aliasIndex(%q) = %d, %v", alias, i, ok)
		}
	}
	for _, alias := range []string{"u0", "w", "wx", "w-1"} {
		if _, ok := aliasIndex("w", alias); ok {
			t.Errorf("aliasIndex(%q) should fail", alias)
		}
	}
}
