// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package models

// WatchStatus is the shared watch status vocabulary.
type WatchStatus string

const (
	StatusRepeating WatchStatus = "REPEATING"
	StatusWatched   WatchStatus = "WATCHED"
	StatusWatching  WatchStatus = "WATCHING"
	StatusPaused    WatchStatus = "PAUSED"
	StatusWant      WatchStatus = "WANT"
	StatusDropped   WatchStatus = "DROPPED"
)

// WatchStatuses is ordered strongest first.
var WatchStatuses = []WatchStatus{
	StatusRepeating,
	StatusWatched,
	StatusWatching,
	StatusPaused,
	StatusWant,
	StatusDropped,
}

// Rank returns the number of statuses ranked below s, or -1 for an
// unknown status.
func (s WatchStatus) Rank() int {
	for i, v := range WatchStatuses {
		if v == s {
			return len(WatchStatuses) - i - 1
		}
	}
	return -1
}

// Valid reports whether s is part of the shared vocabulary.
func (s WatchStatus) Valid() bool {
	return s.Rank() >= 0
}

// UserWatchEntry is one anime on one user's list.
type UserWatchEntry struct {
	SourceID ServiceID   `json:"source_id"`
	MALID    *int        `json:"mal_id,omitempty"`
	Status   WatchStatus `json:"status"`
}

// CanonicalID returns the MAL ID when known, otherwise the source ID.
func (e UserWatchEntry) CanonicalID() ServiceID {
	if e.MALID != nil {
		return NewServiceID(ProviderMAL, *e.MALID)
	}
	return e.SourceID
}

// UserAggregate is one provider user's normalized watch list.
type UserAggregate struct {
	ID        string           `json:"id"`
	AvatarURL string           `json:"avatar_url,omitempty"`
	Works     []UserWatchEntry `json:"works"`
}

// UserRef names a user on a provider, as requested by a client.
type UserRef struct {
	Provider Provider
	Username string
}

// String formats the reference as "provider:username".
func (u UserRef) String() string {
	return string(u.Provider) + ":" + u.Username
}
