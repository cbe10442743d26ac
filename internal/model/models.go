// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultModel is the model used when neither config nor settings name one.
const DefaultModel = "glm-4.5-flash"

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo describes a model the endpoint is known to serve.
// Unknown model names are still accepted; the catalog only feeds listings
// and completion.
type ModelInfo struct {
	// ID is the model identifier used in API calls
	ID string `json:"id"`

	// Name is the human-readable display name
	Name string `json:"name"`

	// Tier categorizes the model's speed/capability trade-off
	Tier string `json:"tier"`

	// ContextWindow is the maximum context size in tokens
	ContextWindow int `json:"context_window"`

	Description string `json:"description"`
}

// Catalog is the list of known models keyed by ID.
var Catalog = map[string]ModelInfo{
	"glm-4.5": {
		ID:            "glm-4.5",
		Name:          "GLM-4.5",
		Tier:          "Powerful",
		ContextWindow: 128000,
		Description:   "Flagship reasoning model",
	},
	"glm-4.5-air": {
		ID:            "glm-4.5-air",
		Name:          "GLM-4.5 Air",
		Tier:          "Balanced",
		ContextWindow: 128000,
		Description:   "Lighter flagship with lower cost",
	},
	"glm-4.5-flash": {
		ID:            "glm-4.5-flash",
		Name:          "GLM-4.5 Flash",
		Tier:          "Fast",
		ContextWindow: 128000,
		Description:   "Free fast model for everyday chat",
	},
	"glm-4-flash": {
		ID:            "glm-4-flash",
		Name:          "GLM-4 Flash",
		Tier:          "Fast",
		ContextWindow: 128000,
		Description:   "Previous-generation fast model",
	},
}

// TierIcon returns an icon character for the model tier.
func (m ModelInfo) TierIcon() string {
	switch m.Tier {
	case "Fast":
		return "z"
	case "Balanced":
		return "~"
	case "Powerful":
		return "&"
	default:
		return "?"
	}
}

// ContextString returns a formatted context window string.
func (m ModelInfo) ContextString() string {
	if m.ContextWindow >= 1000000 {
		return fmt.Sprintf("%.1fM tokens", float64(m.ContextWindow)/1000000)
	}
	if m.ContextWindow >= 1000 {
		return fmt.Sprintf("%dK tokens", m.ContextWindow/1000)
	}
	return fmt.Sprintf("%d tokens", m.ContextWindow)
}

// =============================================================================
// MODEL LOOKUP FUNCTIONS
// =============================================================================

// LookupModel finds a model by exact ID, then by case-insensitive ID or name.
func LookupModel(nameOrID string) (ModelInfo, bool) {
	if info, ok := Catalog[nameOrID]; ok {
		return info, true
	}
	lower := strings.ToLower(strings.TrimSpace(nameOrID))
	if lower == "" {
		return ModelInfo{}, false
	}
	for _, id := range ModelIDs() {
		info := Catalog[id]
		if strings.ToLower(info.ID) == lower || strings.ToLower(info.Name) == lower {
			return info, true
		}
	}
	return ModelInfo{}, false
}

// ModelIDs returns the sorted IDs of all catalog models.
func ModelIDs() []string {
	ids := make([]string, 0, len(Catalog))
	for id := range Catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CompleteModelID returns the catalog IDs starting with prefix.
func CompleteModelID(prefix string) []string {
	var out []string
	for _, id := range ModelIDs() {
		if strings.HasPrefix(id, prefix) {
			out = append(out, id)
		}
	}
	return out
}
