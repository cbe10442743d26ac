// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/parlor/internal/model"
	"github.com/jeranaias/parlor/internal/util"
)

// ErrEmpty is returned when there is nothing to export.
var ErrEmpty = errors.New("nothing to export")

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is a snapshot of one session.
type Transcript struct {
	Title      string           `json:"title"`
	Mode       string           `json:"mode"`
	Model      string           `json:"model"`
	SessionID  string           `json:"session_id"`
	ExportedAt time.Time        `json:"exported_at"`
	Messages   []model.Message  `json:"messages,omitempty"`
	Recipe     *model.Recipe    `json:"recipe,omitempty"`
	Plan       *model.EventPlan `json:"plan,omitempty"`
}

func (t *Transcript) empty() bool {
	return len(t.Messages) == 0 && t.Recipe == nil && t.Plan == nil
}

// =============================================================================
// EXPORTERS
// =============================================================================

// Exporter renders a transcript in one format.
type Exporter interface {
	Export(t *Transcript) ([]byte, error)
	// FileExtension includes the leading dot.
	FileExtension() string
}

// Options configures the Markdown exporter.
type Options struct {
	// IncludeMetadata adds the front matter header.
	IncludeMetadata bool
	// IncludeTimestamps adds a time to each message heading.
	IncludeTimestamps bool
}

// DefaultOptions returns the options used when nil is passed.
func DefaultOptions() *Options {
	return &Options{IncludeMetadata: true, IncludeTimestamps: true}
}

// ForFormat returns the exporter for a format name.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "markdown", "md":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (use md or json)", format)
	}
}

// ToFile renders t and writes it into dir under a name built from the
// title and the export time. It returns the path written.
func ToFile(t *Transcript, exporter Exporter, dir string) (string, error) {
	if t == nil || t.empty() {
		return "", ErrEmpty
	}
	if t.ExportedAt.IsZero() {
		t.ExportedAt = time.Now()
	}

	content, err := exporter.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	if dir == "" {
		dir = "."
	}
	name := fmt.Sprintf("%s_%s_%s%s",
		sanitizeFilename(t.Mode),
		sanitizeFilename(t.Title),
		t.ExportedAt.Format("20060102_150405"),
		exporter.FileExtension(),
	)
	path := filepath.Join(dir, name)
	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// sanitizeFilename maps s to a portable file name fragment of at most 40
// runes.
func sanitizeFilename(s string) string {
	const maxLen = 40

	var b strings.Builder
	n := 0
	for _, r := range strings.TrimSpace(s) {
		if n == maxLen {
			break
		}
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			r = '_'
		case strings.ContainsRune(`/\:*?"<>|`, r), r < 32, r == 127:
			r = '-'
		}
		b.WriteRune(r)
		n++
	}
	if b.Len() == 0 {
		return "session"
	}
	return b.String()
}
