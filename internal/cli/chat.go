// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jeranaias/parlor/internal/conversation"
	"github.com/jeranaias/parlor/internal/export"
	"github.com/jeranaias/parlor/internal/settings"
)

func newChatCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat (default)",
		Long: `Start an interactive chat with the model.

The model greets you first. Type a message and press Enter; type /help
for commands. Ctrl+D or /quit exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, opts)
		},
	}
}

func runChat(cmd *cobra.Command, opts *rootOptions) error {
	rt, err := openApp(cmd, opts, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	render := NewRenderer(rt.settings.Snapshot().Theme, !ColorsEnabled(), TerminalWidth())
	defer rt.settings.Subscribe(func(g settings.GenerationSettings) {
		render.SetTheme(g.Theme)
	})()

	sess := conversation.NewChatSession(rt.deps())
	defer sess.Close()

	busy := &thinking{out: cmd.ErrOrStderr(), render: render}
	defer sess.Subscribe(func(st conversation.ChatState) {
		busy.observe(st.Phase)
	})()

	view := &transcript{out: out, render: render}
	show := func() {
		st := sess.Snapshot()
		view.flush(st.SessionID, st.Messages)
	}

	r := &repl{
		out:      out,
		settings: rt.settings,
		ledger:   rt.ledger,
		render:   render,
		clear: func(ctx context.Context) error {
			if err := await(ctx, sess.Clear()); err != nil {
				return err
			}
			fmt.Fprintln(out, render.Style(CommandStyle.Render, "[Conversation cleared]"))
			show()
			return nil
		},
		transcript: func() *export.Transcript {
			st := sess.Snapshot()
			return &export.Transcript{
				Title:     "Chat",
				Mode:      conversation.ModeChat,
				SessionID: st.SessionID,
				Messages:  st.Messages,
			}
		},
	}

	printBanner(out, render, "parlor chat", rt.settings.Snapshot())
	if err := await(ctx, sess.Start()); err != nil {
		return nil
	}
	show()

	in := NewLineReader("chat_history", nil)
	defer in.Close()

	return r.loop(ctx, in, "you> ", func(ctx context.Context, line string) error {
		if !sess.UpdateInput(line) {
			return tooLong(rt.cfg.Chat.MaxInputLength)
		}
		if err := await(ctx, sess.Submit()); err != nil {
			return err
		}
		show()
		return nil
	})
}

// printBanner prints the mode title and the active settings.
func printBanner(w io.Writer, render *Renderer, title string, g settings.GenerationSettings) {
	fmt.Fprintln(w, render.Style(TitleStyle.Render, title))
	fmt.Fprintln(w, render.Style(DimStyle.Render,
		fmt.Sprintf("model %s · temperature %.2f · max tokens %s · /help for commands",
			g.ModelName, g.Temperature, g.MaxTokensString())))
	fmt.Fprintln(w, render.Style(SeparatorStyle.Render, separator(60)))
}
