// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for parlor.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - APIConfig: Endpoint, key and default model
//   - TimeoutConfig: Total, connect and idle bounds for requests
//   - ValidateErrors: Aggregated validation failures
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (PARLOR_*, GLM_API_KEY)
//   - ~/.parlor/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.RequireAPIKey(); err != nil {
//	    log.Fatal(err)
//	}
//
// Only the command layer reads configuration; core packages receive the
// values they need through their constructors.
package config
