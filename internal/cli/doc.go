// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the parlor command tree and its interactive
// REPLs.
//
// Commands:
//
//	parlor [chat]          Free-form chat (default)
//	parlor recipe [dish]   Structured recipe lookup
//	parlor plan            Event-planning interview
//	parlor usage           Token usage per mode
//	parlor config ...      Read and edit ~/.parlor/config.toml
//	parlor version         Build information
//
// Each interactive mode reads lines with history and tab completion, sends
// them to a conversation session and prints new turns as they arrive.
// Lines starting with "/" are slash commands; see /help.
package cli
