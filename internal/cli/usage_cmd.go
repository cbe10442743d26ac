// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/jeranaias/parlor/internal/usage"
	"github.com/jeranaias/parlor/internal/util"
)

func newUsageCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show token usage per mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if rt.ledger == nil {
				return fmt.Errorf("usage tracking is disabled (set usage.enabled = true)")
			}
			sum, err := rt.ledger.Summary(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return NewJSONResponse("usage", sum).Write(cmd.OutOrStdout())
			}
			render := NewRenderer(rt.settings.Snapshot().Theme, !ColorsEnabled(), TerminalWidth())
			printSummary(cmd.OutOrStdout(), render, sum)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

// printSummary writes the ledger report as an aligned table.
func printSummary(w io.Writer, render *Renderer, sum usage.Summary) {
	if sum.Calls == 0 {
		fmt.Fprintln(w, render.Style(DimStyle.Render, "No calls recorded yet."))
		return
	}

	header := row("Mode", "Calls", "Failed", "Prompt", "Completion", "Total", "Avg time")
	fmt.Fprintln(w, render.Style(TitleStyle.Render, header))
	for _, t := range sum.Tags {
		fmt.Fprintln(w, row(
			util.TruncateWidth(t.Tag, 12),
			strconv.Itoa(t.Calls),
			strconv.Itoa(t.Failures),
			strconv.Itoa(t.PromptTokens),
			strconv.Itoa(t.CompletionTokens),
			strconv.Itoa(t.TotalTokens),
			t.AvgDuration.Round(time.Millisecond).String(),
		))
	}

	failures := render.Style(SuccessStyle.Render, "0 failed")
	if sum.Failures > 0 {
		failures = render.Style(ErrorStyle.Render, fmt.Sprintf("%d failed", sum.Failures))
	}
	fmt.Fprintf(w, "\n%d calls, %s, %d tokens", sum.Calls, failures, sum.TotalTokens)
	if !sum.First.IsZero() {
		fmt.Fprintf(w, " (%s to %s)",
			sum.First.Local().Format(time.DateTime),
			sum.Last.Local().Format(time.DateTime))
	}
	fmt.Fprintln(w)
}

func row(cells ...string) string {
	widths := []int{12, 7, 7, 9, 11, 9, 10}
	var out string
	for i, c := range cells {
		if i > 0 {
			out += " "
		}
		if i == 0 {
			out += runewidth.FillRight(c, widths[i])
			continue
		}
		out += runewidth.FillLeft(c, widths[i])
	}
	return out
}
