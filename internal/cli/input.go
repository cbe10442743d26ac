// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/parlor/internal/config"
	"github.com/jeranaias/parlor/internal/model"
	"github.com/jeranaias/parlor/internal/settings"
)

// =============================================================================
// LINE READER
// =============================================================================

// LineReader reads REPL input with line editing, history and tab
// completion. History is kept per mode under the config directory.
type LineReader struct {
	line        *liner.State
	historyFile string
}

// NewLineReader opens a reader whose history lives in name under the
// config directory. tabs feeds /tab completion.
func NewLineReader(name string, tabs []string) *LineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetTabCompletionStyle(liner.TabPrints)
	line.SetCompleter(func(input string) []string {
		return completeLine(input, tabs)
	})

	r := &LineReader{line: line}
	// Piped input keeps no history.
	if dir, err := config.ConfigDir(); err == nil && IsTTY() {
		r.historyFile = filepath.Join(dir, name)
	}
	r.loadHistory()
	return r
}

func (r *LineReader) loadHistory() {
	if r.historyFile == "" {
		return
	}
	if f, err := os.Open(r.historyFile); err == nil {
		_, _ = r.line.ReadHistory(f)
		f.Close()
	}
}

// ReadLine prompts for one line. Ctrl+C and Ctrl+D both end input with
// io.EOF.
func (r *LineReader) ReadLine(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", io.EOF
		}
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the
// terminal.
func (r *LineReader) Close() {
	if r.historyFile == "" {
		r.line.Close()
		return
	}
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = r.line.WriteHistory(f)
			f.Close()
		}
	}
	r.line.Close()
}

// =============================================================================
// COMPLETION
// =============================================================================

// completeLine completes slash commands and their arguments.
func completeLine(input string, tabs []string) []string {
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	cmd, arg, hasArg := strings.Cut(input, " ")
	if !hasArg {
		var out []string
		for _, c := range slashCommands {
			if strings.HasPrefix(c.name, cmd) {
				out = append(out, c.name)
			}
		}
		return out
	}

	var candidates []string
	switch cmd {
	case "/model":
		candidates = model.CompleteModelID(arg)
	case "/theme":
		for _, t := range settings.Themes() {
			candidates = append(candidates, t.String())
		}
	case "/tab":
		candidates = tabs
	default:
		return nil
	}

	var out []string
	for _, c := range candidates {
		if strings.HasPrefix(c, arg) {
			out = append(out, cmd+" "+c)
		}
	}
	sort.Strings(out)
	return out
}
