// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jeranaias/parlor/internal/conversation"
	"github.com/jeranaias/parlor/internal/model"
)

// errInputTooLong is reported when a line exceeds the input bound.
var errInputTooLong = errors.New("input is too long")

// loop reads lines until EOF, /quit or ctx ends. Slash lines are commands;
// anything else goes to submit.
func (r *repl) loop(ctx context.Context, in *LineReader, prompt string, submit func(ctx context.Context, line string) error) error {
	styled := r.render.Style(PromptStyle.Render, prompt)
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := in.ReadLine(styled)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.out)
			return nil
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, "/"):
			err = r.handle(ctx, trimmed)
			if errors.Is(err, errQuit) {
				return nil
			}
		case strings.EqualFold(trimmed, "exit") || strings.EqualFold(trimmed, "quit"):
			return nil
		default:
			err = submit(ctx, line)
		}

		switch {
		case errors.Is(err, errInputTooLong):
			r.warn(err.Error())
		case errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			r.fail(err)
		}
	}
}

// await blocks until done closes or ctx ends.
func await(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// tooLong builds the warning for a rejected line.
func tooLong(limit int) error {
	return fmt.Errorf("%w: the limit is %d characters", errInputTooLong, limit)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// transcript prints the messages of a session log that have not been
// printed yet. A new session tag starts over.
type transcript struct {
	out     io.Writer
	render  *Renderer
	session string
	shown   int
}

// flush prints assistant messages appended since the last call. User turns
// are already on screen as typed input.
func (t *transcript) flush(sessionID string, msgs []model.Message) {
	if sessionID != t.session {
		t.session = sessionID
		t.shown = 0
	}
	if t.shown > len(msgs) {
		t.shown = 0
	}
	for _, m := range msgs[t.shown:] {
		if m.IsUser() {
			continue
		}
		fmt.Fprintln(t.out, t.render.Style(AssistantStyle.Render, m.Role.DisplayName()))
		fmt.Fprint(t.out, t.render.Markdown(m.Content))
	}
	t.shown = len(msgs)
}

// =============================================================================
// ACTIVITY INDICATOR
// =============================================================================

// thinking prints a note each time a session starts waiting on the model.
// It is fed from session subscriptions.
type thinking struct {
	mu     sync.Mutex
	out    io.Writer
	render *Renderer
	last   conversation.Phase
}

func (t *thinking) observe(phase conversation.Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if phase == conversation.PhaseAwaitingReply && t.last != conversation.PhaseAwaitingReply {
		fmt.Fprintln(t.out, t.render.Style(DimStyle.Render, "… thinking"))
	}
	t.last = phase
}
