// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/parlor/internal/settings"
)

func TestColorsEnabled(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	t.Setenv("FORCE_COLOR", "1")
	assert.False(t, ColorsEnabled(), "NO_COLOR wins")
	assert.Equal(t, termenv.Ascii, ColorProfile())

	t.Setenv("NO_COLOR", "")
	assert.True(t, ColorsEnabled())
}

func TestDarkBackground(t *testing.T) {
	assert.True(t, darkBackground(settings.ThemeDark))
	assert.False(t, darkBackground(settings.ThemeLight))
}

func TestTerminalWidth_Bounds(t *testing.T) {
	w := TerminalWidth()
	assert.GreaterOrEqual(t, w, MinTerminalWidth)
	assert.LessOrEqual(t, w, maxRenderWidth)
}
