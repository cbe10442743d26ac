// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// StructuredResult is a record decoded from a model reply together with the
// text it was decoded from. It only exists when decoding succeeded; holders
// use a nil pointer for "no result".
type StructuredResult[T any] struct {
	Parsed         T
	RawModelText   string // assistant content as received
	RawAPIEnvelope string // pretty-printed response body
}

// =============================================================================
// RECIPE
// =============================================================================

// Recipe is the answer of the recipe lookup mode.
type Recipe struct {
	Name         string       `json:"name"`
	Country      string       `json:"country"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
	History      string       `json:"history"`
}

// Ingredient is one line of a recipe's ingredient list.
type Ingredient struct {
	Name   string  `json:"name"`
	Amount string  `json:"amount"`
	Unit   *string `json:"unit"`
}

// RequiredKeys lists the top-level keys a recipe reply must contain.
func (Recipe) RequiredKeys() []string {
	return []string{"name", "country", "ingredients", "instructions", "history"}
}

// UnitOrEmpty returns the unit, or "" when the model left it null.
func (i Ingredient) UnitOrEmpty() string {
	if i.Unit == nil {
		return ""
	}
	return *i.Unit
}

// =============================================================================
// EVENT PLAN
// =============================================================================

// EventPlan is the final answer of the event-planning interview.
type EventPlan struct {
	EventName        string   `json:"eventName"`
	GuestCount       int      `json:"guestCount"`
	Budget           string   `json:"budget"`
	MenuPreferences  []string `json:"menuPreferences"`
	DrinkPreferences []string `json:"drinkPreferences"`
	EventDate        string   `json:"eventDate"`
	EventDuration    string   `json:"eventDuration"`
	SpecialRequests  []string `json:"specialRequests"`
	Recommendations  []string `json:"recommendations"`
	TotalEstimate    string   `json:"totalEstimate"`
}

// RequiredKeys lists the top-level keys a plan reply must contain.
func (EventPlan) RequiredKeys() []string {
	return []string{
		"eventName", "guestCount", "budget", "menuPreferences", "drinkPreferences",
		"eventDate", "eventDuration", "specialRequests", "recommendations", "totalEstimate",
	}
}
