// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

// Package ranking scores merged anime by how strongly the requested users
// are into them.
package ranking

import (
	"sort"
	"time"

	"github.com/tomtom215/sanime/internal/models"
)

// seasonSlack widens a season window on both sides for early premieres
// and late finales.
const seasonSlack = 14

// Options filters the ranked view.
type Options struct {
	// HideOnlyWant drops anime whose every status is WANT.
	HideOnlyWant bool

	// MinViewers drops anime with fewer WATCHED, WATCHING or REPEATING users.
	MinViewers int
}

// DefaultOptions hides want-only anime and applies no viewer floor.
func DefaultOptions() Options {
	return Options{HideOnlyWant: true}
}

// Engine ranks anime relative to a clock.
type Engine struct {
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// seasonStartMonth is the first month of each season. A missing name
// starts in January and spans the year.
func seasonStartMonth(name *models.SeasonName) time.Month {
	if name == nil {
		return time.January
	}
	switch *name {
	case models.SeasonSpring:
		return time.April
	case models.SeasonSummer:
		return time.July
	case models.SeasonAutumn:
		return time.November
	default:
		return time.January
	}
}

// SeasonWindow returns the half-open interval [start, end) during which s
// counts as airing: from seasonSlack days before its first month to
// seasonSlack days after its last month. A missing name covers the year.
func SeasonWindow(s models.Season, loc *time.Location) (start, end time.Time) {
	month := seasonStartMonth(s.Name)
	first := time.Date(s.Year, month, 1, 0, 0, 0, 0, loc)
	start = first.AddDate(0, 0, -seasonSlack)

	months := 3
	if s.Name == nil {
		months = 12
	}
	end = first.AddDate(0, months, seasonSlack)
	return start, end
}

// IsNearCurrentOrAfter reports whether now falls inside s's window.
func IsNearCurrentOrAfter(s models.Season, now time.Time) bool {
	start, end := SeasonWindow(s, now.Location())
	return !now.Before(start) && now.Before(end)
}

// Strength is one status's contribution to an anime's score.
func (e *Engine) Strength(status models.WatchStatus, season *models.Season) int {
	switch {
	case status == models.StatusDropped:
		return -1
	case status == models.StatusRepeating, status == models.StatusWatched:
		return 10
	case status == models.StatusWatching && season != nil && IsNearCurrentOrAfter(*season, e.now()):
		return 10
	default:
		return status.Rank()
	}
}

// Score sums the strengths of statuses.
func (e *Engine) Score(statuses []models.UserStatus, season *models.Season) int {
	score := 0
	for _, s := range statuses {
		score += e.Strength(s.Status, season)
	}
	return score
}

// Rank builds the ranked view. canonical maps each watch entry to its key
// in animes. A user listing one anime twice, typically through two
// providers, keeps the stronger status. Ties keep discovery order.
func (e *Engine) Rank(users []models.UserAggregate, animes map[models.ServiceID]*models.AnimeRecord, canonical func(models.ServiceID) models.ServiceID, opts Options) []models.RankedAnime {
	if canonical == nil {
		canonical = func(id models.ServiceID) models.ServiceID { return id }
	}

	var order []models.ServiceID
	byAnime := make(map[models.ServiceID][]models.UserStatus)

	for _, u := range users {
		for _, w := range u.Works {
			id := canonical(w.CanonicalID())
			season := seasonOf(animes, id)

			statuses, seen := byAnime[id]
			if !seen {
				order = append(order, id)
			}
			if i := indexOfUser(statuses, u.ID); i >= 0 {
				if e.Strength(w.Status, season) > e.Strength(statuses[i].Status, season) {
					statuses[i].Status = w.Status
				}
				continue
			}
			byAnime[id] = append(statuses, models.UserStatus{User: u.ID, Status: w.Status})
		}
	}

	ranked := make([]models.RankedAnime, 0, len(order))
	for _, id := range order {
		statuses := byAnime[id]
		if !keep(statuses, opts) {
			continue
		}
		ranked = append(ranked, models.RankedAnime{
			ID:       id,
			Score:    e.Score(statuses, seasonOf(animes, id)),
			Statuses: statuses,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func keep(statuses []models.UserStatus, opts Options) bool {
	onlyWant := true
	viewers := 0
	for _, s := range statuses {
		if s.Status != models.StatusWant {
			onlyWant = false
		}
		switch s.Status {
		case models.StatusWatched, models.StatusWatching, models.StatusRepeating:
			viewers++
		}
	}
	if opts.HideOnlyWant && onlyWant {
		return false
	}
	return viewers >= opts.MinViewers
}

func seasonOf(animes map[models.ServiceID]*models.AnimeRecord, id models.ServiceID) *models.Season {
	if rec := animes[id]; rec != nil {
		return rec.Season
	}
	return nil
}

func indexOfUser(statuses []models.UserStatus, user string) int {
	for i, s := range statuses {
		if s.User == user {
			return i
		}
	}
	return -1
}
