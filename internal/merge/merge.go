// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

// Package merge folds catalog records from every provider into one map
// keyed by canonical id.
//
// Folds must run in a fixed order: AniList records looked up by MAL id,
// then AniList-only records, then Annict records, and finally any records
// from the residual MAL pass. Earlier folds are treated as richer, so later
// ones only fill fields that are still empty. Records passed in are never
// modified; the map holds copies.
package merge

import (
	"fmt"
	"sort"

	"github.com/tomtom215/sanime/internal/models"
)

// Merger accumulates one request's canonical map.
type Merger struct {
	animes        map[models.ServiceID]*models.AnimeRecord
	anilistTitles map[models.ServiceID]string
	aliases       map[models.ServiceID]models.ServiceID
	warnings      []string
	pending       map[models.ServiceID]struct{}
}

// New starts a merge. needed lists every canonical id referenced by a
// watch entry; ids are crossed off as records arrive.
func New(needed []models.ServiceID) *Merger {
	m := &Merger{
		animes:        make(map[models.ServiceID]*models.AnimeRecord),
		anilistTitles: make(map[models.ServiceID]string),
		aliases:       make(map[models.ServiceID]models.ServiceID),
		warnings:      []string{},
		pending:       make(map[models.ServiceID]struct{}, len(needed)),
	}
	for _, id := range needed {
		m.pending[id] = struct{}{}
	}
	return m
}

// resolved crosses rec off the pending set under its canonical id and
// every provider id it carries, and remembers those ids as aliases.
func (m *Merger) resolved(rec *models.AnimeRecord) {
	delete(m.pending, rec.ID)
	for _, alias := range []models.ServiceID{
		nativeID(models.ProviderAniList, rec.IDAniList),
		nativeID(models.ProviderAnnict, rec.IDAnnict),
	} {
		if alias == "" || alias == rec.ID {
			continue
		}
		delete(m.pending, alias)
		if _, ok := m.aliases[alias]; !ok {
			m.aliases[alias] = rec.ID
		}
	}
}

func nativeID(p models.Provider, id *int) models.ServiceID {
	if id == nil {
		return ""
	}
	return models.NewServiceID(p, *id)
}

func (m *Merger) warn(format string, args ...any) {
	m.warnings = append(m.warnings, fmt.Sprintf(format, args...))
}

// AddAniList folds AniList records. Two different AniList media sharing a
// canonical id keep the first and log a duplicate warning; the same media
// arriving from both AniList passes is silently skipped.
func (m *Merger) AddAniList(records []*models.AnimeRecord) {
	for _, rec := range records {
		m.resolved(rec)
		if old, exists := m.animes[rec.ID]; exists {
			if !sameInt(old.IDAniList, rec.IDAniList) {
				m.warn("Duplicate AniList ID %s", rec.ID)
			}
			continue
		}
		if rec.Title != nil {
			m.anilistTitles[rec.ID] = *rec.Title
		}
		m.animes[rec.ID] = rec.Clone()
	}
}

// AddAnnict folds Annict records into existing entries.
//
// Both records carrying different Annict ids means two Annict works point
// at the same MAL id. That collision is logged and the AniList title, when one was
// seen, replaces the incoming one.
func (m *Merger) AddAnnict(records []*models.AnimeRecord) {
	for _, rec := range records {
		m.resolved(rec)
		old, exists := m.animes[rec.ID]
		if !exists {
			m.animes[rec.ID] = rec.Clone()
			continue
		}

		if old.IDAnnict != nil && rec.IDAnnict != nil && *old.IDAnnict != *rec.IDAnnict {
			m.warn("Annict ID collision! %s old: %d, new: %d", rec.ID, *old.IDAnnict, *rec.IDAnnict)
			if title, ok := m.anilistTitles[rec.ID]; ok {
				old.Title = models.Ptr(title)
				m.warn("Use AniList title: %s", title)
			} else {
				if rec.Title != nil {
					old.Title = models.Ptr(*rec.Title)
				}
				m.warn("Want to use AniList title, but it isn't available...")
			}
		} else {
			if rec.Season != nil {
				old.Season = cloneSeason(rec.Season)
			}
			fillString(&old.Title, rec.Title)
		}

		if old.IDAnnict == nil && rec.IDAnnict != nil {
			old.IDAnnict = models.Ptr(*rec.IDAnnict)
		}
		fillString(&old.HorizontalCoverURL, rec.HorizontalCoverURL)
		if old.Type == nil && rec.Type != nil {
			t := *rec.Type
			old.Type = &t
		}
	}
}

// AddResidual folds records from the direct MAL pass. Every field is
// filled only where still empty.
func (m *Merger) AddResidual(records []*models.AnimeRecord) {
	for _, rec := range records {
		m.resolved(rec)
		old, exists := m.animes[rec.ID]
		if !exists {
			m.animes[rec.ID] = rec.Clone()
			continue
		}
		fillInt(&old.IDMal, rec.IDMal)
		fillInt(&old.IDAnnict, rec.IDAnnict)
		fillInt(&old.IDAniList, rec.IDAniList)
		fillString(&old.Title, rec.Title)
		fillString(&old.HorizontalCoverURL, rec.HorizontalCoverURL)
		fillString(&old.VerticalCoverURL, rec.VerticalCoverURL)
		if old.Type == nil && rec.Type != nil {
			t := *rec.Type
			old.Type = &t
		}
		if old.Season == nil && rec.Season != nil {
			old.Season = cloneSeason(rec.Season)
		}
	}
}

// Pending returns the referenced ids that no fold has produced, sorted.
func (m *Merger) Pending() []models.ServiceID {
	out := make([]models.ServiceID, 0, len(m.pending))
	for id := range m.pending {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Canonical maps a watch entry's id to the key it ended up under in the
// canonical map. Ids that were never aliased map to themselves.
func (m *Merger) Canonical(id models.ServiceID) models.ServiceID {
	if _, ok := m.animes[id]; ok {
		return id
	}
	if target, ok := m.aliases[id]; ok {
		return target
	}
	return id
}

// Aliases returns provider ids that were folded under another canonical id.
func (m *Merger) Aliases() map[models.ServiceID]models.ServiceID {
	return m.aliases
}

// Animes returns the canonical map. The Merger must not be used afterwards.
func (m *Merger) Animes() map[models.ServiceID]*models.AnimeRecord {
	return m.animes
}

// Warnings returns the warnings in the order they were raised.
func (m *Merger) Warnings() []string {
	return m.warnings
}

// Input is the three catalog passes of one request.
type Input struct {
	AniListByMAL  []*models.AnimeRecord
	AniListNative []*models.AnimeRecord
	Annict        []*models.AnimeRecord
}

// Merge runs the three folds in order over fresh state.
func Merge(in Input) (map[models.ServiceID]*models.AnimeRecord, []string) {
	m := New(nil)
	m.AddAniList(in.AniListByMAL)
	m.AddAniList(in.AniListNative)
	m.AddAnnict(in.Annict)
	return m.Animes(), m.Warnings()
}

func sameInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func fillString(dst **string, src *string) {
	if *dst == nil && src != nil {
		v := *src
		*dst = &v
	}
}

func fillInt(dst **int, src *int) {
	if *dst == nil && src != nil {
		v := *src
		*dst = &v
	}
}

func cloneSeason(s *models.Season) *models.Season {
	out := &models.Season{Year: s.Year}
	if s.Name != nil {
		n := *s.Name
		out.Name = &n
	}
	return out
}
