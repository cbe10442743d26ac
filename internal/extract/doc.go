// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package extract recovers a JSON object from free-form model text and
// decodes it into a typed record.
//
// Models wrap JSON in code fences, prefix it with prose, or follow it with
// commentary that itself contains braces. Candidate finds the first balanced
// object; Extract decodes it leniently and checks required keys when the
// target type declares them.
//
//	recipe, err := extract.Extract[model.Recipe](reply.Content)
//
// Extraction is deterministic and never panics.
package extract
