// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Temperature bounds accepted by the endpoint.
const (
	MinTemperature     = 0.0
	MaxTemperature     = 2.0
	DefaultTemperature = 1.0
)

// ErrInvalidTemperature is returned for NaN temperatures.
var ErrInvalidTemperature = errors.New("temperature is not a number")

// =============================================================================
// THEME
// =============================================================================

// Theme is the display theme preference.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Themes lists every theme.
func Themes() []Theme {
	return []Theme{ThemeLight, ThemeDark, ThemeSystem}
}

// String returns the theme name.
func (t Theme) String() string {
	return string(t)
}

// ParseTheme converts a name into a Theme, case-insensitively.
func ParseTheme(s string) (Theme, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, t := range Themes() {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown theme %q, must be one of: light, dark, system", s)
}

// =============================================================================
// GENERATION SETTINGS
// =============================================================================

// GenerationSettings are the values applied to every outbound call.
type GenerationSettings struct {
	ModelName   string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   *int    `toml:"max_tokens,omitempty"` // nil = endpoint default
	Theme       Theme   `toml:"theme"`
}

// Defaults returns the initial settings for modelName.
func Defaults(modelName string) GenerationSettings {
	return GenerationSettings{
		ModelName:   modelName,
		Temperature: DefaultTemperature,
		Theme:       ThemeLight,
	}
}

// Clone returns a copy that shares no pointers with s.
func (s GenerationSettings) Clone() GenerationSettings {
	if s.MaxTokens != nil {
		n := *s.MaxTokens
		s.MaxTokens = &n
	}
	return s
}

// Equal reports whether two settings hold the same values.
func (s GenerationSettings) Equal(o GenerationSettings) bool {
	if s.ModelName != o.ModelName || s.Temperature != o.Temperature || s.Theme != o.Theme {
		return false
	}
	if (s.MaxTokens == nil) != (o.MaxTokens == nil) {
		return false
	}
	return s.MaxTokens == nil || *s.MaxTokens == *o.MaxTokens
}

// MaxTokensString formats the max tokens value for display.
func (s GenerationSettings) MaxTokensString() string {
	if s.MaxTokens == nil {
		return "default"
	}
	return strconv.Itoa(*s.MaxTokens)
}

// ClampTemperature bounds t to [MinTemperature, MaxTemperature].
func ClampTemperature(t float64) float64 {
	return math.Max(MinTemperature, math.Min(MaxTemperature, t))
}

// normalize clamps and fills a decoded value. Theme errors are reported.
func normalize(s GenerationSettings, defaults GenerationSettings) (GenerationSettings, error) {
	if strings.TrimSpace(s.ModelName) == "" {
		s.ModelName = defaults.ModelName
	}
	if math.IsNaN(s.Temperature) {
		return s, ErrInvalidTemperature
	}
	s.Temperature = ClampTemperature(s.Temperature)
	if s.MaxTokens != nil && *s.MaxTokens <= 0 {
		s.MaxTokens = nil
	}
	if s.Theme == "" {
		s.Theme = defaults.Theme
	}
	theme, err := ParseTheme(string(s.Theme))
	if err != nil {
		return s, err
	}
	s.Theme = theme
	return s, nil
}
