// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrNoJSON indicates the text had nothing to decode.
	ErrNoJSON = errors.New("no JSON content found")

	// ErrNotObject indicates a keyed record was decoded from a non-object.
	ErrNotObject = errors.New("JSON content is not an object")

	// ErrMissingKey indicates a required key was absent.
	ErrMissingKey = errors.New("required key missing")
)

// fenceRe matches a code fence marker and the whitespace after it.
var fenceRe = regexp.MustCompile("```(?:json)?\\s*")

// KeyedRecord is implemented by records that declare mandatory top-level keys.
type KeyedRecord interface {
	RequiredKeys() []string
}

// Error reports an extraction failure.
type Error struct {
	Raw       string // text as received
	Candidate string // text that was decoded
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return "extract: " + e.Err.Error()
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the text shown to the user.
func (e *Error) UserMessage() string {
	return "Could not read a structured answer from the model reply"
}

// =============================================================================
// CANDIDATE SELECTION
// =============================================================================

// Candidate returns the text Extract would decode: the first balanced
// {...} span after fence removal, or the fence-stripped text when there is
// none.
func Candidate(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(fenceRe.ReplaceAllString(s, ""))
	if span, ok := firstObject(s); ok {
		return span
	}
	return s
}

// firstObject finds the first balanced object. Braces inside string
// literals do not count. An opening brace that never closes is skipped and
// the scan restarts at the next one.
func firstObject(s string) (string, bool) {
	from := 0
	for {
		idx := strings.IndexByte(s[from:], '{')
		if idx < 0 {
			return "", false
		}
		start := from + idx
		if end, ok := matchBrace(s, start); ok {
			return s[start : end+1], true
		}
		from = start + 1
	}
}

// matchBrace returns the index of the brace closing the one at start.
func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// =============================================================================
// DECODING
// =============================================================================

// Extract decodes the candidate JSON in raw into T. Unknown keys are
// ignored. If T implements KeyedRecord every required key must be present.
func Extract[T any](raw string) (T, error) {
	var out T

	candidate := Candidate(raw)
	if candidate == "" {
		return out, &Error{Raw: raw, Candidate: candidate, Err: ErrNoJSON}
	}

	text := escapeControlChars(candidate)
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		var zero T
		return zero, &Error{Raw: raw, Candidate: candidate, Err: fmt.Errorf("decode: %w", err)}
	}

	if keyed, ok := any(out).(KeyedRecord); ok {
		if err := checkKeys(text, keyed.RequiredKeys()); err != nil {
			var zero T
			return zero, &Error{Raw: raw, Candidate: candidate, Err: err}
		}
	}
	return out, nil
}

// checkKeys verifies that doc is an object holding every key.
func checkKeys(doc string, keys []string) error {
	parsed := gjson.Parse(doc)
	if !parsed.IsObject() {
		return ErrNotObject
	}
	var missing []string
	for _, key := range keys {
		if !parsed.Get(key).Exists() {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingKey, strings.Join(missing, ", "))
	}
	return nil
}

// escapeControlChars escapes raw control characters inside string literals,
// which models emit for multi-line values and strict decoders reject.
func escapeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inString {
			if c == '"' {
				inString = true
			}
			b.WriteByte(c)
			continue
		}
		switch {
		case escaped:
			escaped = false
			b.WriteByte(c)
		case c == '\\':
			escaped = true
			b.WriteByte(c)
		case c == '"':
			inString = false
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20:
			fmt.Fprintf(&b, `\u%04x`, c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
