// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package provider

import (
	"errors"
	"fmt"

	"github.com/tomtom215/sanime/internal/models"
)

// ErrCircuitOpen is returned while a provider's circuit breaker rejects requests.
var ErrCircuitOpen = errors.New("provider circuit breaker open")

// StatusError is an unexpected HTTP status from a provider.
type StatusError struct {
	Provider   models.Provider
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// DecodeError is a payload that does not fit the provider's contract,
// including enum values missing from a mapping table.
type DecodeError struct {
	Provider models.Provider
	Field    string
	Value    string
	Err      error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: decode %s: %v", e.Provider, e.Field, e.Err)
	default:
		return fmt.Sprintf("%s: unexpected %s value %q", e.Provider, e.Field, e.Value)
	}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UserNotFoundError is a watch list request for a user the provider does not know.
type UserNotFoundError struct {
	Provider models.Provider
	Username string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("%s: user %q not found", e.Provider, e.Username)
}

// GraphQLError is a non-404 entry in a GraphQL errors list.
type GraphQLError struct {
	Provider models.Provider
	Message  string
	Status   int
}

func (e *GraphQLError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: graphql error (status %d): %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: graphql error: %s", e.Provider, e.Message)
}
