// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/parlor/internal/gateway"
	"github.com/jeranaias/parlor/internal/model"
	"github.com/jeranaias/parlor/internal/util"
)

// ErrMissingAPIKey indicates no API key was configured anywhere.
var ErrMissingAPIKey = errors.New("API key not found: set api.key in config.toml or PARLOR_API_KEY (or GLM_API_KEY)")

// Default file names inside the config directory.
const (
	configFileName   = "config.toml"
	logFileName      = "parlor.log"
	usageFileName    = "usage.db"
	settingsFileName = "settings.toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete parlor configuration.
type Config struct {
	API      APIConfig      `toml:"api" json:"api"`
	Timeouts TimeoutConfig  `toml:"timeouts" json:"timeouts"`
	Chat     ChatConfig     `toml:"chat" json:"chat"`
	Log      LogConfig      `toml:"log" json:"log"`
	Usage    UsageConfig    `toml:"usage" json:"usage"`
	Settings SettingsConfig `toml:"settings" json:"settings"`
}

// APIConfig describes the completion endpoint.
type APIConfig struct {
	// Key is the bearer token sent with every request
	Key string `toml:"key" json:"key"`
	// Endpoint is the full chat completions URL
	Endpoint string `toml:"endpoint" json:"endpoint"`
	// Model is the default model name
	Model string `toml:"model" json:"model"`
}

// TimeoutConfig bounds outbound requests, in seconds.
type TimeoutConfig struct {
	RequestSecs int `toml:"request_secs" json:"request_secs"`
	ConnectSecs int `toml:"connect_secs" json:"connect_secs"`
	IdleSecs    int `toml:"idle_secs" json:"idle_secs"`
}

// ChatConfig bounds conversation history and input.
type ChatConfig struct {
	// HistoryWindow is how many recent messages are sent with each turn
	HistoryWindow int `toml:"history_window" json:"history_window"`
	// MaxInputLength is the longest accepted input, in characters
	MaxInputLength int `toml:"max_input_length" json:"max_input_length"`
}

// LogConfig controls the application log.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `toml:"level" json:"level"`
	// File is the log path (empty = ~/.parlor/parlor.log)
	File string `toml:"file" json:"file"`
}

// UsageConfig controls the token usage ledger.
type UsageConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`
	// Path is the sqlite file (empty = ~/.parlor/usage.db)
	Path string `toml:"path" json:"path"`
}

// SettingsConfig locates the persisted generation settings.
type SettingsConfig struct {
	// Path is the settings file (empty = ~/.parlor/settings.toml)
	Path string `toml:"path" json:"path"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Endpoint: gateway.DefaultEndpoint,
			Model:    model.DefaultModel,
		},
		Timeouts: TimeoutConfig{
			RequestSecs: int(gateway.DefaultRequestTimeout / time.Second),
			ConnectSecs: int(gateway.DefaultConnectTimeout / time.Second),
			IdleSecs:    int(gateway.DefaultIdleTimeout / time.Second),
		},
		Chat: ChatConfig{
			HistoryWindow:  model.DefaultHistoryWindow,
			MaxInputLength: 10000,
		},
		Log: LogConfig{
			Level: "info",
		},
		Usage: UsageConfig{
			Enabled: true,
		},
	}
}

// RequestTimeout returns the total request bound.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeouts.RequestSecs) * time.Second
}

// ConnectTimeout returns the connection setup bound.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Timeouts.ConnectSecs) * time.Second
}

// IdleTimeout returns the bound on silence between reads.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.IdleSecs) * time.Second
}

// RequireAPIKey returns ErrMissingAPIKey when no key is set.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.API.Key) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the parlor configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".parlor"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	return inConfigDir(configFileName)
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

func inConfigDir(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// LogPath returns the configured log file or the default one.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	return inConfigDir(logFileName)
}

// UsagePath returns the configured ledger file or the default one.
func (c *Config) UsagePath() (string, error) {
	if c.Usage.Path != "" {
		return c.Usage.Path, nil
	}
	return inConfigDir(usageFileName)
}

// SettingsPath returns the configured settings file or the default one.
func (c *Config) SettingsPath() (string, error) {
	if c.Settings.Path != "" {
		return c.Settings.Path, nil
	}
	return inConfigDir(settingsFileName)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// Config files hold the API key and should be 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads ~/.parlor/config.toml when present, falls back to defaults,
// applies environment overrides and validates. The API key is not required
// here; see RequireAPIKey.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config: %w", err)
		}
	}
	return finish(cfg)
}

// LoadFromPath loads configuration from a specific file path with full
// validation. The file must exist.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.API.Endpoint == "" {
		cfg.API.Endpoint = defaults.API.Endpoint
	}
	if cfg.API.Model == "" {
		cfg.API.Model = defaults.API.Model
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	cfg.API.Key = strings.TrimSpace(cfg.API.Key)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# parlor configuration file")
	fmt.Fprintln(&buf, "# Generated by parlor - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.API.Endpoint); err != nil || !u.IsAbs() || u.Host == "" ||
		(u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, ValidationError{
			Field:   "api.endpoint",
			Message: fmt.Sprintf("invalid URL '%s', must be an absolute http(s) URL", c.API.Endpoint),
		})
	}
	if strings.TrimSpace(c.API.Model) == "" {
		errs = append(errs, ValidationError{Field: "api.model", Message: "must not be empty"})
	}

	for field, secs := range map[string]int{
		"timeouts.request_secs": c.Timeouts.RequestSecs,
		"timeouts.connect_secs": c.Timeouts.ConnectSecs,
		"timeouts.idle_secs":    c.Timeouts.IdleSecs,
	} {
		if secs <= 0 {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("must be positive, got %d", secs)})
		}
	}

	if c.Chat.HistoryWindow <= 0 {
		errs = append(errs, ValidationError{
			Field:   "chat.history_window",
			Message: fmt.Sprintf("must be positive, got %d", c.Chat.HistoryWindow),
		})
	}
	if c.Chat.MaxInputLength <= 0 {
		errs = append(errs, ValidationError{
			Field:   "chat.max_input_length",
			Message: fmt.Sprintf("must be positive, got %d", c.Chat.MaxInputLength),
		})
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - PARLOR_API_KEY: overrides api.key (GLM_API_KEY is used when unset)
//   - PARLOR_ENDPOINT: overrides api.endpoint
//   - PARLOR_MODEL: overrides api.model
//   - PARLOR_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("PARLOR_API_KEY"); key != "" {
		c.API.Key = key
	} else if key := os.Getenv("GLM_API_KEY"); key != "" && c.API.Key == "" {
		c.API.Key = key
	}

	if endpoint := os.Getenv("PARLOR_ENDPOINT"); endpoint != "" {
		c.API.Endpoint = endpoint
	}

	if model := os.Getenv("PARLOR_MODEL"); model != "" {
		c.API.Model = model
	}

	if level := os.Getenv("PARLOR_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "chat.history_window").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "api.model").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// lookup walks dot-separated parts down the struct tree.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strings.ToLower(strVal))
			if err != nil {
				boolVal = strings.ToLower(strVal) == "yes"
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"api.key",
		"api.endpoint",
		"api.model",
		"timeouts.request_secs",
		"timeouts.connect_secs",
		"timeouts.idle_secs",
		"chat.history_window",
		"chat.max_input_length",
		"log.level",
		"log.file",
		"usage.enabled",
		"usage.path",
		"settings.path",
	}
}

// IsSecretKey reports whether the value of key must be redacted for display.
func IsSecretKey(key string) bool {
	return strings.EqualFold(key, "api.key")
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a string representation of the config for debugging.
// The API key is redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.API.Key != "" {
		safe.API.Key = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
