// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt builds the instruction texts sent to the model.
//
// Everything here is a pure function or constant. Wording is content and may
// change between template versions; callers rely only on the structure
// (required JSON keys, interview topics, the two-message finale).
package prompt
