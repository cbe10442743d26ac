// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jeranaias/parlor/internal/conversation"
	"github.com/jeranaias/parlor/internal/export"
	"github.com/jeranaias/parlor/internal/settings"
)

func newPlanCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Plan an event through a guided interview",
		Long: `Plan a corporate event. The planner asks a handful of questions,
one at a time, then prints a structured plan.

Once the plan is ready, /tab plan|raw|full switches its view and /tab chat
returns to the conversation. /clear starts a new interview.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd, opts)
		},
	}
}

func runPlan(cmd *cobra.Command, opts *rootOptions) error {
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

	sess := conversation.NewPlannerSession(rt.deps())
	defer sess.Close()

	busy := &thinking{out: cmd.ErrOrStderr(), render: render}
	defer sess.Subscribe(func(st conversation.PlannerState) {
		busy.observe(st.Phase)
	})()

	view := &transcript{out: out, render: render}
	planShown := false

	// show prints new turns, any error, and the plan the first time it is
	// ready.
	show := func() error {
		st := sess.Snapshot()
		view.flush(st.SessionID, st.Messages)
		if st.Stage == conversation.StagePlanReady && !planShown {
			planShown = true
			fmt.Fprintln(out, render.Style(SeparatorStyle.Render, separator(60)))
			printPlan(out, render, st)
		}
		if st.ErrorMessage != "" {
			return errors.New(st.ErrorMessage)
		}
		return nil
	}

	var tabs []string
	for _, t := range conversation.PlannerTabs() {
		tabs = append(tabs, t.String())
	}

	r := &repl{
		out:      out,
		settings: rt.settings,
		ledger:   rt.ledger,
		render:   render,
		tabs:     tabs,
		clear: func(ctx context.Context) error {
			if err := await(ctx, sess.Clear()); err != nil {
				return err
			}
			planShown = false
			fmt.Fprintln(out, render.Style(CommandStyle.Render, "[New interview]"))
			return show()
		},
		selectTab: func(name string) error {
			tab, err := conversation.ParsePlannerTab(name)
			if err != nil {
				return err
			}
			sess.SelectTab(tab)
			st := sess.Snapshot()
			if tab == conversation.TabChat {
				for _, m := range st.Messages {
					label := render.Style(AssistantStyle.Render, m.Role.DisplayName())
					if m.IsUser() {
						label = render.Style(PromptStyle.Render, m.Role.DisplayName())
					}
					fmt.Fprintln(out, label)
					fmt.Fprint(out, render.Markdown(m.Content))
				}
				return nil
			}
			if st.Plan == nil {
				return errors.New("the plan is not ready yet")
			}
			printPlan(out, render, st)
			return nil
		},
		transcript: func() *export.Transcript {
			st := sess.Snapshot()
			t := &export.Transcript{
				Title:     "Event plan",
				Mode:      conversation.ModePlanner,
				SessionID: st.SessionID,
				Messages:  st.Messages,
			}
			if st.Plan != nil {
				plan := st.Plan.Parsed
				t.Plan = &plan
				if plan.EventName != "" {
					t.Title = plan.EventName
				}
			}
			return t
		},
	}

	printBanner(out, render, "parlor event planner", rt.settings.Snapshot())
	if err := await(ctx, sess.Start()); err != nil {
		return nil
	}
	if err := show(); err != nil {
		r.fail(err)
	}

	in := NewLineReader("plan_history", tabs)
	defer in.Close()

	return r.loop(ctx, in, "you> ", func(ctx context.Context, line string) error {
		if !sess.UpdateInput(line) {
			return tooLong(rt.cfg.Chat.MaxInputLength)
		}
		if err := await(ctx, sess.Submit()); err != nil {
			return err
		}
		return show()
	})
}

// printPlan writes the plan of st in the view its tab selects. The chat
// tab shows the formatted plan.
func printPlan(w io.Writer, render *Renderer, st conversation.PlannerState) {
	if st.Plan == nil {
		return
	}
	switch st.Tab {
	case conversation.TabPlanRawJSON:
		fmt.Fprint(w, render.Code("json", st.Plan.RawModelText))
	case conversation.TabPlanFullResponse:
		fmt.Fprint(w, render.Code("json", st.Plan.RawAPIEnvelope))
	default:
		fmt.Fprint(w, render.Markdown(PlanMarkdown(st.Plan.Parsed)))
	}
}
