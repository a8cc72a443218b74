// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package provider

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sanime/internal/models"
)

// testOptions disables pacing and waits so tests never sleep.
func testOptions() Options {
	return Options{
		Timeout:         5 * time.Second,
		BreakerFailures: 100,
		BreakerTimeout:  time.Minute,
	}
}

// fakeServer serves scripted responses in order and records requests.
type fakeServer struct {
	*httptest.Server
	calls atomic.Int32
}

type scripted struct {
	status int
	header map[string]string
	body   string
}

func newFakeServer(t *testing.T, check func(r *http.Request, body []byte), responses ...scripted) *fakeServer {
	t.Helper()
	fs := &fakeServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(fs.calls.Add(1)) - 1
		body, _ := io.ReadAll(r.Body)
		if check != nil {
			check(r, body)
		}
		if n >= len(responses) {
			n = len(responses) - 1
		}
		resp := responses[n]
		for k, v := range resp.header {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.status)
		_, _ = w.Write([]byte(resp.body))
	}))
	t.Cleanup(fs.Close)
	return fs
}

func ok(body string) scripted {
	return scripted{status: http.StatusOK, body: body}
}

// decodeGraphQL parses a captured GraphQL request body.
func decodeGraphQL(t *testing.T, body []byte) graphQLRequest {
	t.Helper()
	var req graphQLRequest
	if err := json.Unmarshal(body, &req); err != nil {
		t.Errorf("request body is not a graphql document: %v", err)
	}
	return req
}

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

func checkIntPtrEqual(t *testing.T, fieldName string, ptr *int, want int) {
	t.Helper()
	if ptr == nil {
		t.Errorf("%s should not be nil, expected %d", fieldName, want)
		return
	}
	if *ptr != want {
		t.Errorf("%s: expected %d, got %d", fieldName, want, *ptr)
	}
}

func checkStringPtrEqual(t *testing.T, fieldName string, ptr *string, want string) {
	t.Helper()
	if ptr == nil {
		t.Errorf("%s should not be nil, expected %q", fieldName, want)
		return
	}
	if *ptr != want {
		t.Errorf("%s: expected %q, got %q", fieldName, want, *ptr)
	}
}

func checkType(t *testing.T, rec *models.AnimeRecord, want models.AnimeType) {
	t.Helper()
	if rec.Type == nil || *rec.Type != want {
		t.Errorf("type: expected %s, got %v", want, rec.Type)
	}
}

func checkSeason(t *testing.T, rec *models.AnimeRecord, year int, name models.SeasonName) {
	t.Helper()
	if rec.Season == nil {
		t.Fatalf("season should not be nil")
	}
	if rec.Season.Year != year {
		t.Errorf("season year: expected %d, got %d", year, rec.Season.Year)
	}
	if name == "" {
		if rec.Season.Name != nil {
			t.Errorf("season name: expected nil, got %s", *rec.Season.Name)
		}
		return
	}
	if rec.Season.Name == nil || *rec.Season.Name != name {
		t.Errorf("season name: expected %s, got %v", name, rec.Season.Name)
	}
}
