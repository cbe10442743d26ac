// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"fmt"
	"strings"
)

// =============================================================================
// PHASE
// =============================================================================

// Phase is whether a session is waiting on the model.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingReply
)

// Phases lists every phase.
func Phases() []Phase {
	return []Phase{PhaseIdle, PhaseAwaitingReply}
}

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingReply:
		return "awaiting-reply"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// =============================================================================
// STAGE
// =============================================================================

// Stage is the progress of the event-planning interview.
type Stage int

const (
	StageInterviewing Stage = iota
	StagePlanReady
)

// Stages lists every stage.
func Stages() []Stage {
	return []Stage{StageInterviewing, StagePlanReady}
}

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageInterviewing:
		return "interviewing"
	case StagePlanReady:
		return "plan-ready"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// =============================================================================
// TABS
// =============================================================================

// RecipeTab selects the recipe view.
type RecipeTab int

const (
	TabFormatted RecipeTab = iota
	TabRawJSON
	TabFullResponse
)

// RecipeTabs lists every recipe tab in display order.
func RecipeTabs() []RecipeTab {
	return []RecipeTab{TabFormatted, TabRawJSON, TabFullResponse}
}

// String returns the tab name.
func (t RecipeTab) String() string {
	switch t {
	case TabFormatted:
		return "formatted"
	case TabRawJSON:
		return "raw"
	case TabFullResponse:
		return "full"
	default:
		return fmt.Sprintf("tab(%d)", int(t))
	}
}

// ParseRecipeTab resolves a tab by name.
func ParseRecipeTab(s string) (RecipeTab, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, t := range RecipeTabs() {
		if t.String() == name {
			return t, nil
		}
	}
	return TabFormatted, fmt.Errorf("unknown recipe tab %q", s)
}

// PlannerTab selects the planner view.
type PlannerTab int

const (
	TabChat PlannerTab = iota
	TabPlan
	TabPlanRawJSON
	TabPlanFullResponse
)

// PlannerTabs lists every planner tab in display order.
func PlannerTabs() []PlannerTab {
	return []PlannerTab{TabChat, TabPlan, TabPlanRawJSON, TabPlanFullResponse}
}

// String returns the tab name.
func (t PlannerTab) String() string {
	switch t {
	case TabChat:
		return "chat"
	case TabPlan:
		return "plan"
	case TabPlanRawJSON:
		return "raw"
	case TabPlanFullResponse:
		return "full"
	default:
		return fmt.Sprintf("tab(%d)", int(t))
	}
}

// ParsePlannerTab resolves a tab by name.
func ParsePlannerTab(s string) (PlannerTab, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, t := range PlannerTabs() {
		if t.String() == name {
			return t, nil
		}
	}
	return TabChat, fmt.Errorf("unknown planner tab %q", s)
}

func validRecipeTab(t RecipeTab) bool   { return t >= TabFormatted && t <= TabFullResponse }
func validPlannerTab(t PlannerTab) bool { return t >= TabChat && t <= TabPlanFullResponse }
