// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// PALETTE
// =============================================================================

var (
	colorPurple  = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}
	colorCyan    = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}
	colorEmerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}
	colorRose    = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}
	colorAmber   = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
	colorOverlay = lipgloss.AdaptiveColor{Light: "#D4D4D4", Dark: "#45475A"}
)

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for banners and section titles
	TitleStyle = lipgloss.NewStyle().Foreground(colorPurple).Bold(true)

	// PromptStyle renders the REPL prompt
	PromptStyle = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)

	// AssistantStyle labels assistant turns
	AssistantStyle = lipgloss.NewStyle().Foreground(colorPurple).Bold(true)

	SuccessStyle   = lipgloss.NewStyle().Foreground(colorEmerald).Bold(true)
	ErrorStyle     = lipgloss.NewStyle().Foreground(colorRose).Bold(true)
	WarningStyle   = lipgloss.NewStyle().Foreground(colorAmber)
	DimStyle       = lipgloss.NewStyle().Foreground(colorMuted)
	CommandStyle   = lipgloss.NewStyle().Foreground(colorEmerald)
	SeparatorStyle = lipgloss.NewStyle().Foreground(colorOverlay)
)

// separator returns a horizontal rule of width cells.
func separator(width int) string {
	return strings.Repeat("─", width)
}
