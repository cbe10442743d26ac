// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package usage records token usage per model call in a local sqlite
// ledger. It never stores conversation content.
package usage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrClosed is returned when the ledger is used after Close.
var ErrClosed = errors.New("usage ledger closed")

// Entry is one recorded call.
type Entry struct {
	Tag              string
	Model            string
	Status           string
	Code             int
	Duration         time.Duration
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	CreatedAt        time.Time
}

// TagSummary aggregates the calls made under one tag.
type TagSummary struct {
	Tag              string
	Calls            int
	Failures         int
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	AvgDuration      time.Duration
}

// Summary is the ledger report.
type Summary struct {
	Tags        []TagSummary
	Calls       int
	Failures    int
	TotalTokens int
	First, Last time.Time
}

// Ledger is a sqlite-backed usage log. It is safe for concurrent use.
type Ledger struct {
	db     *sql.DB
	path   string
	closed atomic.Bool
}

// Open opens (creating if needed) the ledger at path.
func Open(ctx context.Context, path string) (*Ledger, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &Ledger{db: db, path: path}, nil
}

// Path returns the database location.
func (l *Ledger) Path() string {
	return l.path
}

// Record inserts one entry. A zero CreatedAt means now.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	if l.closed.Load() {
		return ErrClosed
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	tag := strings.TrimSpace(e.Tag)
	if tag == "" {
		tag = "untagged"
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO calls (tag, model, status, code, duration_ms,
			prompt_tokens, completion_tokens, total_tokens, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tag, e.Model, e.Status, e.Code, e.Duration.Milliseconds(),
		e.PromptTokens, e.CompletionTokens, e.TotalTokens, e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record call: %w", err)
	}
	return nil
}

// Summary returns totals per tag, ordered by tag.
func (l *Ledger) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	if l.closed.Load() {
		return s, ErrClosed
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT tag,
			COUNT(*),
			SUM(CASE WHEN status = 'ok' THEN 0 ELSE 1 END),
			SUM(prompt_tokens), SUM(completion_tokens), SUM(total_tokens),
			AVG(duration_ms),
			MIN(created_at), MAX(created_at)
		FROM calls
		GROUP BY tag
		ORDER BY tag`)
	if err != nil {
		return s, fmt.Errorf("failed to query usage: %w", err)
	}
	defer rows.Close()

	var first, last int64
	for rows.Next() {
		var ts TagSummary
		var avgMs float64
		var minAt, maxAt int64
		if err := rows.Scan(&ts.Tag, &ts.Calls, &ts.Failures,
			&ts.PromptTokens, &ts.CompletionTokens, &ts.TotalTokens,
			&avgMs, &minAt, &maxAt); err != nil {
			return s, fmt.Errorf("failed to scan usage row: %w", err)
		}
		ts.AvgDuration = time.Duration(avgMs * float64(time.Millisecond))
		s.Tags = append(s.Tags, ts)
		s.Calls += ts.Calls
		s.Failures += ts.Failures
		s.TotalTokens += ts.TotalTokens
		if first == 0 || minAt < first {
			first = minAt
		}
		if maxAt > last {
			last = maxAt
		}
	}
	if err := rows.Err(); err != nil {
		return s, fmt.Errorf("failed to read usage rows: %w", err)
	}
	if s.Calls > 0 {
		s.First = time.UnixMilli(first)
		s.Last = time.UnixMilli(last)
	}
	return s, nil
}

// Close closes the database. Further calls return ErrClosed.
func (l *Ledger) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	return l.db.Close()
}
