// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/parlor/internal/conversation"
	"github.com/jeranaias/parlor/internal/export"
	"github.com/jeranaias/parlor/internal/settings"
)

type recipeOptions struct {
	raw  bool
	full bool
}

func newRecipeCommand(opts *rootOptions) *cobra.Command {
	ro := &recipeOptions{}
	cmd := &cobra.Command{
		Use:   "recipe [dish]",
		Short: "Look up a structured recipe",
		Long: `Look up the recipe for a dish.

With a dish name, print the recipe and exit. Without one, read dish names
interactively; /tab switches between the formatted, raw and full views.`,
		Example: `  parlor recipe Borscht
  parlor recipe "Chicken Kiev" --raw
  parlor recipe`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecipe(cmd, opts, ro, strings.Join(args, " "))
		},
	}
	cmd.Flags().BoolVar(&ro.raw, "raw", false, "print the model's raw reply")
	cmd.Flags().BoolVar(&ro.full, "full", false, "print the full API response")
	cmd.MarkFlagsMutuallyExclusive("raw", "full")
	return cmd
}

func (ro *recipeOptions) tab() conversation.RecipeTab {
	switch {
	case ro.raw:
		return conversation.TabRawJSON
	case ro.full:
		return conversation.TabFullResponse
	default:
		return conversation.TabFormatted
	}
}

func runRecipe(cmd *cobra.Command, opts *rootOptions, ro *recipeOptions, dish string) error {
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

	sess := conversation.NewRecipeSession(rt.deps())
	defer sess.Close()

	// One-shot lookup.
	if strings.TrimSpace(dish) != "" {
		if err := await(ctx, sess.GetRecipe(dish)); err != nil {
			return err
		}
		st := sess.Snapshot()
		if st.ErrorMessage != "" {
			return errors.New(st.ErrorMessage)
		}
		printRecipe(out, render, st, ro.tab())
		return nil
	}

	busy := &thinking{out: cmd.ErrOrStderr(), render: render}
	defer sess.Subscribe(func(st conversation.RecipeState) {
		phase := conversation.PhaseIdle
		if st.Loading {
			phase = conversation.PhaseAwaitingReply
		}
		busy.observe(phase)
	})()

	var tabs []string
	for _, t := range conversation.RecipeTabs() {
		tabs = append(tabs, t.String())
	}
	sess.SelectTab(ro.tab())

	r := &repl{
		out:      out,
		settings: rt.settings,
		ledger:   rt.ledger,
		render:   render,
		tabs:     tabs,
		selectTab: func(name string) error {
			tab, err := conversation.ParseRecipeTab(name)
			if err != nil {
				return err
			}
			sess.SelectTab(tab)
			st := sess.Snapshot()
			if st.Result == nil {
				return errors.New("no recipe yet")
			}
			printRecipe(out, render, st, st.Tab)
			return nil
		},
		transcript: func() *export.Transcript {
			st := sess.Snapshot()
			t := &export.Transcript{Title: st.DishName, Mode: conversation.ModeRecipe}
			if st.Result != nil {
				recipe := st.Result.Parsed
				t.Recipe = &recipe
				t.Title = recipe.Name
			}
			return t
		},
	}

	printBanner(out, render, "parlor recipes", rt.settings.Snapshot())
	fmt.Fprintln(out, render.Style(DimStyle.Render, "Type a dish name to get its recipe."))

	in := NewLineReader("recipe_history", tabs)
	defer in.Close()

	return r.loop(ctx, in, "dish> ", func(ctx context.Context, line string) error {
		if !sess.UpdateDishName(line) {
			return tooLong(rt.cfg.Chat.MaxInputLength)
		}
		// Keep the chosen view across lookups.
		tab := sess.Snapshot().Tab
		if err := await(ctx, sess.GetRecipe(line)); err != nil {
			return err
		}
		sess.SelectTab(tab)
		st := sess.Snapshot()
		if st.ErrorMessage != "" {
			return errors.New(st.ErrorMessage)
		}
		printRecipe(out, render, st, st.Tab)
		return nil
	})
}

// printRecipe writes the result of st in the view selected by tab.
func printRecipe(w io.Writer, render *Renderer, st conversation.RecipeState, tab conversation.RecipeTab) {
	if st.Result == nil {
		return
	}
	switch tab {
	case conversation.TabRawJSON:
		fmt.Fprint(w, render.Code("json", st.Result.RawModelText))
	case conversation.TabFullResponse:
		fmt.Fprint(w, render.Code("json", st.Result.RawAPIEnvelope))
	default:
		fmt.Fprint(w, render.Markdown(RecipeMarkdown(st.Result.Parsed)))
	}
}
