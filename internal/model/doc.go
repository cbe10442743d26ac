// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by every conversation mode.
//
// # Key Types
//
//   - Role: message role enumeration (system, user, assistant)
//   - Message: immutable chat entry with ID, role, content and epoch-ms timestamp
//   - Log: append-only ordered message log
//   - Recipe, EventPlan: records decoded from structured model replies
//   - StructuredResult: a decoded record plus the raw text it came from
//
// # Usage
//
//	var log model.Log
//	log.Append(model.NewUserMessage("Hello!"))
//	recent := log.Window(model.DefaultHistoryWindow)
package model
