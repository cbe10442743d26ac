// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at a temp dir and clears the overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, name := range []string{"PARLOR_API_KEY", "GLM_API_KEY", "PARLOR_ENDPOINT", "PARLOR_MODEL", "PARLOR_LOG_LEVEL"} {
		t.Setenv(name, "")
	}
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 120*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout())
	assert.Equal(t, 120*time.Second, cfg.IdleTimeout())
	assert.Equal(t, 20, cfg.Chat.HistoryWindow)
	assert.Equal(t, 10000, cfg.Chat.MaxInputLength)
	assert.ErrorIs(t, cfg.RequireAPIKey(), ErrMissingAPIKey)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().API, cfg.API)
}

func TestLoad_FromConfigDir(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".parlor", "config.toml"), `
[api]
key = "  secret  "
model = "glm-4.5-air"

[chat]
history_window = 8

[log]
level = "DEBUG"
`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.API.Key)
	assert.Equal(t, "glm-4.5-air", cfg.API.Model)
	assert.Equal(t, 8, cfg.Chat.HistoryWindow)
	assert.Equal(t, 10000, cfg.Chat.MaxInputLength, "unset keys keep defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NoError(t, cfg.RequireAPIKey())
}

func TestLoadTOML_FixesPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api]\nmodel = \"x\"\n"), 0644))

	cfg := Default()
	require.NoError(t, LoadTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadFromPath_Errors(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	_, err := LoadFromPath(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.toml")
	writeFile(t, bad, "[api\n")
	_, err = LoadFromPath(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.toml")
	writeFile(t, invalid, "[timeouts]\nrequest_secs = 0\n[chat]\nhistory_window = -1\n")
	_, err = LoadFromPath(invalid)
	require.Error(t, err)
	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 2)
	assert.Contains(t, err.Error(), "timeouts.request_secs")
	assert.Contains(t, err.Error(), "chat.history_window")
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)

	t.Run("glm fallback", func(t *testing.T) {
		t.Setenv("GLM_API_KEY", "glm-key")
		cfg := Default()
		cfg.ApplyEnvOverrides()
		assert.Equal(t, "glm-key", cfg.API.Key)
	})

	t.Run("glm does not replace a configured key", func(t *testing.T) {
		t.Setenv("GLM_API_KEY", "glm-key")
		cfg := Default()
		cfg.API.Key = "file-key"
		cfg.ApplyEnvOverrides()
		assert.Equal(t, "file-key", cfg.API.Key)
	})

	t.Run("parlor key wins", func(t *testing.T) {
		t.Setenv("GLM_API_KEY", "glm-key")
		t.Setenv("PARLOR_API_KEY", "parlor-key")
		cfg := Default()
		cfg.API.Key = "file-key"
		cfg.ApplyEnvOverrides()
		assert.Equal(t, "parlor-key", cfg.API.Key)
	})

	t.Run("endpoint model level", func(t *testing.T) {
		t.Setenv("PARLOR_ENDPOINT", "http://localhost:8080/v1/chat/completions")
		t.Setenv("PARLOR_MODEL", "glm-4.5")
		t.Setenv("PARLOR_LOG_LEVEL", "warn")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/v1/chat/completions", cfg.API.Endpoint)
		assert.Equal(t, "glm-4.5", cfg.API.Model)
		assert.Equal(t, "warn", cfg.Log.Level)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"relative endpoint", func(c *Config) { c.API.Endpoint = "/chat" }, "api.endpoint"},
		{"ftp endpoint", func(c *Config) { c.API.Endpoint = "ftp://host/x" }, "api.endpoint"},
		{"empty model", func(c *Config) { c.API.Model = " " }, "api.model"},
		{"connect timeout", func(c *Config) { c.Timeouts.ConnectSecs = 0 }, "timeouts.connect_secs"},
		{"idle timeout", func(c *Config) { c.Timeouts.IdleSecs = -5 }, "timeouts.idle_secs"},
		{"input bound", func(c *Config) { c.Chat.MaxInputLength = 0 }, "chat.max_input_length"},
		{"log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var verrs ValidateErrors
			require.ErrorAs(t, err, &verrs)
			require.Len(t, verrs, 1)
			assert.Equal(t, tc.field, verrs[0].Field)
		})
	}
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.API.Key = "k"
	cfg.Chat.HistoryWindow = 12
	cfg.Usage.Enabled = false
	require.NoError(t, SaveTOML(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# parlor configuration file"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("api.model", "glm-4.5"))
	require.NoError(t, cfg.Set("chat.history_window", "30"))
	require.NoError(t, cfg.Set("usage.enabled", "false"))
	require.NoError(t, cfg.Set("timeouts.idle-secs", 45))

	v, err := cfg.Get("api.model")
	require.NoError(t, err)
	assert.Equal(t, "glm-4.5", v)

	v, err = cfg.Get("chat.history_window")
	require.NoError(t, err)
	assert.Equal(t, 30, v)
	assert.False(t, cfg.Usage.Enabled)
	assert.Equal(t, 45, cfg.Timeouts.IdleSecs)

	assert.Error(t, cfg.Set("chat.history_window", "many"))
	assert.Error(t, cfg.Set("nope.key", "x"))
	assert.Error(t, cfg.Set("api.model.extra", "x"))
	assert.Error(t, cfg.Set("chat.history_window", []string{"x"}))
	_, err = cfg.Get("")
	assert.Error(t, err)
}

func TestGetAllKeys_Resolve(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
	assert.True(t, IsSecretKey("API.KEY"))
	assert.False(t, IsSecretKey("api.model"))
}

func TestString_RedactsKey(t *testing.T) {
	cfg := Default()
	cfg.API.Key = "super-secret"
	s := cfg.String()
	assert.NotContains(t, s, "super-secret")
	assert.Contains(t, s, "[REDACTED]")
	assert.Equal(t, "super-secret", cfg.API.Key, "original untouched")
}

func TestPaths(t *testing.T) {
	home := isolate(t)
	cfg := Default()

	p, err := cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".parlor", "parlor.log"), p)

	p, err = cfg.UsagePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".parlor", "usage.db"), p)

	cfg.Settings.Path = "/tmp/s.toml"
	p, err = cfg.SettingsPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/s.toml", p)

	require.NoError(t, EnsureConfigDir())
	info, err := os.Stat(filepath.Join(home, ".parlor"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
