// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/sanime/internal/aggregate"
	"github.com/tomtom215/sanime/internal/budget"
	"github.com/tomtom215/sanime/internal/catalog"
	"github.com/tomtom215/sanime/internal/models"
	"github.com/tomtom215/sanime/internal/provider"
	"github.com/tomtom215/sanime/internal/ranking"
	"github.com/tomtom215/sanime/internal/validation"
)

const usage = "/show?users=((annict|anilist|mal):[a-z0-9_-]+(,|$))+[&hide_only_want=true][&min_viewers=0]\n"

const teapot = "I'm a teapot, not WordPress :P"

// Shower is satisfied by *aggregate.Orchestrator.
type Shower interface {
	Show(ctx context.Context, users []models.UserRef, opts ranking.Options) (*models.ShowResult, error)
}

// Handler serves the API routes.
type Handler struct {
	shower   Shower
	maxUsers int
}

// NewHandler creates a Handler. maxUsers of zero disables the ceiling.
func NewHandler(shower Shower, maxUsers int) *Handler {
	return &Handler{shower: shower, maxUsers: maxUsers}
}

// Root returns the usage string.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respondText(w, http.StatusOK, usage)
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, time.Time{}, map[string]string{"status": "ok"})
}

// Teapot answers WordPress scanners.
func (h *Handler) Teapot(w http.ResponseWriter, r *http.Request) {
	respondText(w, http.StatusTeapot, teapot)
}

// Show serves the aggregated view for ?users=.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	raw, ok := q["users"]
	if !ok {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "users query parameter is required", nil, nil)
		return
	}

	opts, apiErr := parseRankingOptions(q.Get("hide_only_want"), q.Get("min_viewers"))
	if apiErr != nil {
		respondError(w, r, http.StatusUnprocessableEntity, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return
	}

	req := validation.ShowRequest{Users: validation.SplitUsers(raw), MinViewers: opts.MinViewers}
	users, verr := validation.ValidateShow(&req, h.maxUsers)
	if verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, r, http.StatusUnprocessableEntity, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return
	}

	result, err := h.shower.Show(r.Context(), users, opts)
	if err != nil {
		h.respondShowError(w, r, err)
		return
	}
	respondSuccess(w, r, start, result)
}

func parseRankingOptions(hideOnlyWant, minViewers string) (ranking.Options, *validation.APIError) {
	opts := ranking.DefaultOptions()
	if hideOnlyWant != "" {
		v, err := strconv.ParseBool(hideOnlyWant)
		if err != nil {
			return opts, &validation.APIError{
				Code:    ErrCodeValidation,
				Message: "hide_only_want must be a boolean",
				Details: map[string]any{"field": "hide_only_want", "value": hideOnlyWant},
			}
		}
		opts.HideOnlyWant = v
	}
	if minViewers != "" {
		v, err := strconv.Atoi(minViewers)
		if err != nil {
			return opts, &validation.APIError{
				Code:    ErrCodeValidation,
				Message: "min_viewers must be an integer",
				Details: map[string]any{"field": "min_viewers", "value": minViewers},
			}
		}
		opts.MinViewers = v
	}
	return opts, nil
}

// respondShowError maps aggregation failures to status codes.
func (h *Handler) respondShowError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound   *provider.UserNotFoundError
		unresolved *aggregate.UnresolvedError
		status     *provider.StatusError
		decode     *provider.DecodeError
		gql        *provider.GraphQLError
	)

	if ex, ok := budget.IsExhausted(err); ok {
		delay := strconv.Itoa(ex.RetryAfter)
		w.Header().Set("Refresh", delay)
		w.Header().Set("Retry-After", delay)
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeBudgetExhausted,
			"Upstream services are rate limiting, retry shortly",
			map[string]any{"retry_after": ex.RetryAfter}, err)
		return
	}

	switch {
	case errors.Is(err, provider.ErrCircuitOpen):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeProviderUnavailable,
			"An upstream service is unavailable", nil, err)
	case errors.As(err, &notFound):
		respondError(w, r, http.StatusNotFound, ErrCodeUserNotFound,
			"User not found: "+string(notFound.Provider)+":"+notFound.Username,
			map[string]any{"provider": notFound.Provider, "username": notFound.Username}, err)
	case errors.As(err, &unresolved):
		respondError(w, r, http.StatusInternalServerError, ErrCodeUnresolvedAnime,
			"Failed to fetch some animes info",
			map[string]any{"ids": unresolved.IDs}, err)
	case errors.As(err, &status), errors.As(err, &decode), errors.As(err, &gql),
		errors.Is(err, catalog.ErrAmbiguousSingle):
		respondError(w, r, http.StatusBadGateway, ErrCodeProviderError, err.Error(), nil, err)
	default:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError,
			"An internal error occurred", nil, err)
	}
}
