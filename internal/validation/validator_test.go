// Sanime - Cross-Service Anime Watchlist Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sanime

package validation

import (
	"reflect"
	"strings"
	"testing"

	"github.com/tomtom215/sanime/internal/models"
)

// ===================================================================================================
// Singleton Validator Tests
// ===================================================================================================

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

// ===================================================================================================
// /show Request Tests
// ===================================================================================================

func TestSplitUsers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"single", []string{"anilist:foo"}, []string{"anilist:foo"}},
		{"comma separated", []string{"anilist:foo,annict:bar"}, []string{"anilist:foo", "annict:bar"}},
		{"repeated params", []string{"anilist:foo", "mal:baz"}, []string{"anilist:foo", "mal:baz"}},
		{"trims and drops blanks", []string{" anilist:foo , ,mal:baz "}, []string{"anilist:foo", "mal:baz"}},
		{"dedupes keeping first", []string{"mal:a,anilist:b", "mal:a"}, []string{"mal:a", "anilist:b"}},
		{"empty", []string{""}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SplitUsers(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitUsers(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateShow_Valid(t *testing.T) {
	t.Parallel()

	req := &ShowRequest{Users: []string{"anilist:foo", "annict:bar_1", "mal:baz-2"}}
	refs, err := ValidateShow(req, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []models.UserRef{
		{Provider: models.ProviderAniList, Username: "foo"},
		{Provider: models.ProviderAnnict, Username: "bar_1"},
		{Provider: models.ProviderMAL, Username: "baz-2"},
	}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("refs = %+v, want %+v", refs, want)
	}
}

func TestValidateShow_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		req      ShowRequest
		maxUsers int
		wantTag  string
	}{
		{"no users", ShowRequest{}, 20, "required"},
		{"unknown provider", ShowRequest{Users: []string{"kitsu:foo"}}, 20, "userref"},
		{"uppercase name", ShowRequest{Users: []string{"anilist:Foo"}}, 20, "userref"},
		{"missing name", ShowRequest{Users: []string{"anilist:"}}, 20, "userref"},
		{"name too long", ShowRequest{Users: []string{"mal:" + strings.Repeat("a", 51)}}, 20, "userref"},
		{"negative viewers", ShowRequest{Users: []string{"mal:a"}, MinViewers: -1}, 20, "min"},
		{"too many users", ShowRequest{Users: []string{"mal:a", "mal:b", "mal:c"}}, 2, "max"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ValidateShow(&tt.req, tt.maxUsers)
			if err == nil {
				t.Fatal("expected validation error")
			}
			apiErr := err.ToAPIError()
			if apiErr.Code != "VALIDATION_ERROR" {
				t.Errorf("code = %q", apiErr.Code)
			}
			if got := apiErr.Details["tag"]; got != tt.wantTag {
				t.Errorf("tag = %v, want %q", got, tt.wantTag)
			}
		})
	}
}

func TestValidateShow_LimitReportsParam(t *testing.T) {
	t.Parallel()

	req := &ShowRequest{Users: []string{"mal:a", "mal:b", "mal:c"}}
	_, err := ValidateShow(req, 2)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := err.ToAPIError().Details["param"]; got != "2" {
		t.Errorf("param = %v, want \"2\"", got)
	}
}

func TestValidateShow_NameLengthBoundary(t *testing.T) {
	t.Parallel()

	req := &ShowRequest{Users: []string{"mal:" + strings.Repeat("a", 50)}}
	if _, err := ValidateShow(req, 0); err != nil {
		t.Errorf("50 character name should be accepted: %v", err)
	}
}

func TestToAPIError_MultipleErrors(t *testing.T) {
	t.Parallel()

	req := &ShowRequest{Users: []string{"bad", "also bad"}}
	err := ValidateStruct(req)
	if err == nil {
		t.Fatal("expected validation error")
	}
	apiErr := err.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]map[string]any)
	if !ok || len(fields) != 2 {
		t.Fatalf("expected two field errors, got %+v", apiErr.Details)
	}
	if !strings.Contains(apiErr.Message, "Users[0]") || !strings.Contains(apiErr.Message, "Users[1]") {
		t.Errorf("message should name both entries: %q", apiErr.Message)
	}
}
