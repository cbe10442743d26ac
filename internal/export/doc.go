// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a session transcript to a file.
//
// Two formats are supported: Markdown, with a YAML front matter header,
// and JSON. A transcript may carry the structured result of the session
// (a recipe or an event plan), which is written after the messages.
//
//	path, err := export.ToFile(t, export.NewMarkdownExporter(nil), ".")
package export
