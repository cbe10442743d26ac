// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/jeranaias/parlor/internal/settings"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY reports whether stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY reports whether stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ColorsEnabled reports whether styled output should be used. NO_COLOR
// disables it, FORCE_COLOR enables it regardless of the TTY.
// See https://no-color.org/.
func ColorsEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	return IsStdoutTTY()
}

// ColorProfile returns the termenv profile matching ColorsEnabled. Forced
// color on a pipe gets 256 colors.
func ColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	if p := termenv.ColorProfile(); p != termenv.Ascii {
		return p
	}
	return termenv.ANSI256
}

// =============================================================================
// WIDTH
// =============================================================================

const (
	DefaultTerminalWidth = 80
	MinTerminalWidth     = 40
	maxRenderWidth       = 100
)

// TerminalWidth returns the stdout width, clamped to a readable range.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > maxRenderWidth {
		return maxRenderWidth
	}
	return width
}

// =============================================================================
// THEME
// =============================================================================

// darkBackground reports whether theme should render with dark styles.
// ThemeSystem asks the terminal.
func darkBackground(theme settings.Theme) bool {
	switch theme {
	case settings.ThemeDark:
		return true
	case settings.ThemeLight:
		return false
	default:
		return termenv.HasDarkBackground()
	}
}

// applyTheme points lipgloss at the palette half for theme.
func applyTheme(theme settings.Theme) {
	lipgloss.SetColorProfile(ColorProfile())
	lipgloss.SetHasDarkBackground(darkBackground(theme))
}
