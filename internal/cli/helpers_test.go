// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"testing"

	"github.com/jeranaias/parlor/internal/settings"
)

// newTestRepl returns a repl over an in-memory settings store and a plain
// renderer, plus the buffer it writes to.
func newTestRepl(t *testing.T) (*repl, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &repl{
		out:      &out,
		settings: settings.NewStore(settings.Defaults("glm-4.5-flash")),
		render:   plainRenderer(),
	}, &out
}

func plainRenderer() *Renderer {
	return NewRenderer(settings.ThemeDark, true, 80)
}

// isolateEnv clears the environment overrides the config layer reads.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PARLOR_API_KEY", "GLM_API_KEY", "PARLOR_ENDPOINT", "PARLOR_MODEL", "PARLOR_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	t.Setenv("HOME", t.TempDir())
}
