// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/parlor/internal/extract"
	"github.com/jeranaias/parlor/internal/gateway"
)

func distinctNames[T fmt.Stringer](t *testing.T, values []T) {
	t.Helper()
	seen := make(map[string]bool)
	for _, v := range values {
		name := v.String()
		assert.NotEmpty(t, name)
		assert.False(t, seen[name], "duplicate name %q", name)
		seen[name] = true
	}
}

func TestEnums_Exhaustive(t *testing.T) {
	distinctNames(t, Phases())
	distinctNames(t, Stages())
	distinctNames(t, RecipeTabs())
	distinctNames(t, PlannerTabs())

	assert.Equal(t, "phase(7)", Phase(7).String())
	assert.Equal(t, "stage(7)", Stage(7).String())
	assert.Equal(t, "tab(7)", RecipeTab(7).String())
	assert.Equal(t, "tab(7)", PlannerTab(7).String())
}

func TestParseTabs(t *testing.T) {
	for _, tab := range RecipeTabs() {
		got, err := ParseRecipeTab(" " + tab.String())
		require.NoError(t, err)
		assert.Equal(t, tab, got)
	}
	for _, tab := range PlannerTabs() {
		got, err := ParsePlannerTab(tab.String())
		require.NoError(t, err)
		assert.Equal(t, tab, got)
	}

	_, err := ParseRecipeTab("plan")
	assert.Error(t, err)
	_, err = ParsePlannerTab("formatted")
	assert.Error(t, err)

	got, err := ParsePlannerTab("PLAN")
	require.NoError(t, err)
	assert.Equal(t, TabPlan, got)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"gateway", &gateway.Error{Kind: gateway.KindTimeout}, "The server took too long to respond"},
		{"wrapped gateway", fmt.Errorf("turn: %w", &gateway.Error{Kind: gateway.KindClient, Code: 403}), "Access denied"},
		{"extract", &extract.Error{Err: extract.ErrNoJSON}, (&extract.Error{}).UserMessage()},
		{"empty reply", ErrEmptyReply, "Received an empty response from the server"},
		{"other", errors.New("boom"), "Error: boom"},
		{"context", context.Canceled, "Error: context canceled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
