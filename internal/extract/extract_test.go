// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/parlor/internal/model"
)

const recipeJSON = `{
  "name": "Borscht",
  "country": "Ukraine",
  "ingredients": [
    {"name": "Beetroot", "amount": "2", "unit": "pcs"},
    {"name": "Salt", "amount": "1", "unit": null}
  ],
  "instructions": ["Chop the beets {finely}", "Boil", "Serve"],
  "history": "A soup with a long history."
}`

func TestCandidate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"surrounding whitespace", "  \n{\"a\":1}\n ", `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose before", `Here you go: {"a":1}`, `{"a":1}`},
		{"nested", `{"a":{"b":{"c":1}}}`, `{"a":{"b":{"c":1}}}`},
		{"trailing prose with braces", `{"a":{"b":1}} hope this helps {not json}`, `{"a":{"b":1}}`},
		{"braces in strings", `{"a":"}{","b":"{"}`, `{"a":"}{","b":"{"}`},
		{"escaped quote in string", `{"a":"say \"}\" now"} tail}`, `{"a":"say \"}\" now"}`},
		{"escaped backslash before quote", `{"a":"c:\\"} x`, `{"a":"c:\\"}`},
		{"unbalanced first brace", `use { like this: {"a":1}`, `{"a":1}`},
		{"fence inside text", "Plan:\n```json\n{\"a\":1}\n```\nEnjoy!", `{"a":1}`},
		{"no object", "```json\nnot json at all\n```", "not json at all"},
		{"empty", "   ", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Candidate(tc.raw); got != tc.want {
				t.Errorf("Candidate(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestExtract_FencedAndUnfencedAgree(t *testing.T) {
	plain, err := Extract[model.Recipe](recipeJSON)
	require.NoError(t, err)

	for _, raw := range []string{
		"```json\n" + recipeJSON + "\n```",
		"```\n" + recipeJSON + "\n```",
		"Sure! Here is the recipe:\n" + recipeJSON + "\nEnjoy {your meal}!",
	} {
		got, err := Extract[model.Recipe](raw)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	}

	assert.Equal(t, "Borscht", plain.Name)
	require.Len(t, plain.Ingredients, 2)
	assert.Equal(t, "pcs", plain.Ingredients[0].UnitOrEmpty())
	assert.Nil(t, plain.Ingredients[1].Unit)
	assert.Equal(t, "Chop the beets {finely}", plain.Instructions[0])
}

func TestExtract_IgnoresUnknownKeys(t *testing.T) {
	raw := `{"name":"Pho","country":"Vietnam","ingredients":[],"instructions":[],"history":"","rating":5}`
	got, err := Extract[model.Recipe](raw)
	require.NoError(t, err)
	assert.Equal(t, "Pho", got.Name)
}

func TestExtract_LenientControlCharacters(t *testing.T) {
	raw := "{\"name\":\"Pho\",\"country\":\"Vietnam\",\"ingredients\":[],\"instructions\":[\"Step 1:\tboil\"],\"history\":\"Line one\nLine two\"}"
	got, err := Extract[model.Recipe](raw)
	require.NoError(t, err)
	assert.Equal(t, "Line one\nLine two", got.History)
	assert.Equal(t, "Step 1:\tboil", got.Instructions[0])
}

func TestExtract_MissingRequiredKey(t *testing.T) {
	raw := `{"name":"Pho","country":"Vietnam","ingredients":[],"instructions":[]}`
	_, err := Extract[model.Recipe](raw)

	var xerr *Error
	require.ErrorAs(t, err, &xerr)
	assert.ErrorIs(t, err, ErrMissingKey)
	assert.Contains(t, err.Error(), "history")
	assert.Equal(t, raw, xerr.Raw)
	assert.Equal(t, raw, xerr.Candidate)
}

func TestExtract_EventPlan(t *testing.T) {
	raw := `{"eventName":"New Year Party","guestCount":40,"budget":"50 EUR per person",
"menuPreferences":["fish"],"drinkPreferences":["wine"],"eventDate":"27.12.2025",
"eventDuration":"4 hours","specialRequests":["DJ"],"recommendations":["book early"],
"totalEstimate":"2000 EUR"}`
	plan, err := Extract[model.EventPlan](raw)
	require.NoError(t, err)
	assert.Equal(t, 40, plan.GuestCount)
	assert.Equal(t, []string{"DJ"}, plan.SpecialRequests)

	// A conversational turn is not a plan.
	_, err = Extract[model.EventPlan]("How many guests will attend?")
	assert.Error(t, err)

	// An object missing most keys is not a plan either.
	_, err = Extract[model.EventPlan](`Let me note that: {"guestCount": 40}`)
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestExtract_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrNoJSON},
		{"only fences", "```json\n```", ErrNoJSON},
		{"null", "null", ErrNotObject},
		{"array", `[1,2]`, nil},
		{"prose", "I could not find that dish.", nil},
		{"truncated", `{"name":"Pho","country":`, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Extract[model.Recipe](tc.raw)
			require.Error(t, err)
			assert.Equal(t, model.Recipe{}, got)

			var xerr *Error
			require.True(t, errors.As(err, &xerr))
			assert.Equal(t, tc.raw, xerr.Raw)
			assert.Equal(t, "Could not read a structured answer from the model reply", xerr.UserMessage())
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestExtract_UnkeyedTypes(t *testing.T) {
	m, err := Extract[map[string]any]("```json\n{\"x\": [1, 2]}\n```")
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2)}, m["x"])

	type loose struct {
		X int `json:"x"`
	}
	v, err := Extract[loose](`{}`)
	require.NoError(t, err)
	assert.Zero(t, v.X)
}

func TestExtract_Deterministic(t *testing.T) {
	raw := "noise {\"a\": 1} more {\"b\": 2}"
	first := Candidate(raw)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Candidate(raw))
	}
	assert.Equal(t, `{"a": 1}`, first)
}

func TestEscapeControlChars(t *testing.T) {
	assert.Equal(t, `{"a":"x\ny"}`, escapeControlChars("{\"a\":\"x\ny\"}"))
	assert.Equal(t, "{\n\"a\":1}", escapeControlChars("{\n\"a\":1}"), "whitespace outside strings is kept")
	assert.Equal(t, `{"a":"\u0001"}`, escapeControlChars("{\"a\":\"\x01\"}"))
	assert.Equal(t, `{"a":"q\"\n"}`, escapeControlChars("{\"a\":\"q\\\"\n\"}"))
}
