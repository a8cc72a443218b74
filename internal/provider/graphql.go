// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sanime/internal/budget"
)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Path    []any  `json:"path"`
}

// alias returns the first path element when it is a string, which for
// aliased queries identifies the failing alias.
func (e graphQLError) alias() string {
	if len(e.Path) == 0 {
		return ""
	}
	s, _ := e.Path[0].(string)
	return s
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// postGraphQL sends one GraphQL document. Statuses listed in accept are
// decoded like a 200; anything else is a *StatusError.
func (t *transport) postGraphQL(ctx context.Context, b *budget.Budget, endpoint string, header http.Header, q graphQLRequest, accept ...int) (*graphQLResponse, int, error) {
	payload, err := json.Marshal(q)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal graphql request: %w", err)
	}

	res, err := t.do(ctx, b, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		for k, v := range header {
			req.Header[k] = v
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, 0, err
	}

	if res.status != http.StatusOK && !containsInt(accept, res.status) {
		return nil, res.status, t.statusError(res)
	}

	var out graphQLResponse
	if err := json.Unmarshal(res.body, &out); err != nil {
		return nil, res.status, &DecodeError{Provider: t.provider, Field: "graphql response", Err: err}
	}
	return &out, res.status, nil
}

// aliasedQuery builds a query with one aliased field per variable:
//
//	query ($w0: Int, $w1: Int) {
//	w0: Media(idMal: $w0, type: ANIME) { ...fields }
//	w1: Media(idMal: $w1, type: ANIME) { ...fields }
//	}
//	fragment fields on Media { ... }
func aliasedQuery(prefix, varType string, n int, field func(v string) string, fragment string) string {
	var sb strings.Builder
	sb.WriteString("query (")
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("$" + prefix + strconv.Itoa(i) + ": " + varType)
	}
	sb.WriteString(") {\n")
	for i := 0; i < n; i++ {
		v := prefix + strconv.Itoa(i)
		sb.WriteString(v + ": " + field("$"+v) + "\n")
	}
	sb.WriteString("}\n")
	sb.WriteString(fragment)
	return sb.String()
}

// aliasedVariables maps prefix+index to each value.
func aliasedVariables[T any](prefix string, values []T) map[string]any {
	vars := make(map[string]any, len(values))
	for i, v := range values {
		vars[prefix+strconv.Itoa(i)] = v
	}
	return vars
}

// aliasIndex parses "w12" with prefix "w" into 12.
func aliasIndex(prefix, alias string) (int, bool) {
	if !strings.HasPrefix(alias, prefix) {
		return 0, false
	}
	i, err := strconv.Atoi(alias[len(prefix):])
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
