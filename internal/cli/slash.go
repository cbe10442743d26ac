// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/parlor/internal/export"
	"github.com/jeranaias/parlor/internal/model"
	"github.com/jeranaias/parlor/internal/settings"
	"github.com/jeranaias/parlor/internal/usage"
)

// errQuit ends a REPL.
var errQuit = errors.New("quit")

type slashCommand struct {
	name    string
	args    string
	summary string
}

var slashCommands = []slashCommand{
	{"/help", "", "Show this help"},
	{"/clear", "", "Start over"},
	{"/tab", "<name>", "Switch view"},
	{"/temp", "<0-2>", "Set the sampling temperature"},
	{"/max", "<n|default>", "Cap completion tokens"},
	{"/theme", "<light|dark|system>", "Set the color theme"},
	{"/model", "[id]", "Show or switch the model"},
	{"/settings", "", "Show generation settings"},
	{"/usage", "", "Show token usage"},
	{"/export", "[md|json] [dir]", "Save the session to a file"},
	{"/quit", "", "Exit"},
}

// repl carries what slash commands need from the running mode.
type repl struct {
	out      io.Writer
	settings *settings.Store
	ledger   *usage.Ledger
	render   *Renderer

	// clear restarts the mode; nil hides /clear.
	clear func(ctx context.Context) error
	// tabs lists the mode's views; selectTab switches to one.
	tabs      []string
	selectTab func(name string) error
	// transcript snapshots the session for /export; nil hides it.
	transcript func() *export.Transcript
}

// handle runs one slash command line. It returns errQuit to leave the REPL.
func (r *repl) handle(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "/help", "/h", "/?", "/":
		r.printHelp()
	case "/quit", "/q", "/exit":
		return errQuit
	case "/clear", "/c":
		if r.clear == nil {
			return fmt.Errorf("nothing to clear here")
		}
		return r.clear(ctx)
	case "/tab":
		return r.tab(args)
	case "/temp":
		return r.temperature(args)
	case "/max":
		return r.maxTokens(args)
	case "/theme":
		return r.theme(args)
	case "/model", "/m":
		return r.model(args)
	case "/settings":
		r.printSettings()
	case "/usage":
		return r.usage(ctx)
	case "/export":
		return r.export(args)
	default:
		return fmt.Errorf("unknown command: %s (type /help for commands)", cmd)
	}
	return nil
}

func (r *repl) printHelp() {
	fmt.Fprintln(r.out, r.render.Style(TitleStyle.Render, "Commands"))
	for _, c := range slashCommands {
		if c.name == "/clear" && r.clear == nil {
			continue
		}
		if c.name == "/tab" && len(r.tabs) == 0 {
			continue
		}
		if c.name == "/export" && r.transcript == nil {
			continue
		}
		label := strings.TrimSpace(c.name + " " + c.args)
		if c.name == "/tab" {
			label = "/tab <" + strings.Join(r.tabs, "|") + ">"
		}
		fmt.Fprintf(r.out, "  %s %s\n",
			r.render.Style(CommandStyle.Render, runewidth.FillRight(label, 30)),
			c.summary)
	}
}

func (r *repl) tab(args []string) error {
	if r.selectTab == nil || len(r.tabs) == 0 {
		return fmt.Errorf("this mode has no views")
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: /tab <%s>", strings.Join(r.tabs, "|"))
	}
	return r.selectTab(args[0])
}

func (r *repl) temperature(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: /temp <0-2>")
	}
	t, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid temperature %q", args[0])
	}
	if err := r.settings.SetTemperature(t); err != nil {
		return err
	}
	r.ok(fmt.Sprintf("temperature = %.2f", r.settings.Snapshot().Temperature))
	return nil
}

func (r *repl) maxTokens(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: /max <n|default>")
	}
	n := 0
	if !strings.EqualFold(args[0], "default") {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid token count %q", args[0])
		}
		n = v
	}
	if err := r.settings.SetMaxTokens(n); err != nil {
		return err
	}
	r.ok("max tokens = " + r.settings.Snapshot().MaxTokensString())
	return nil
}

func (r *repl) theme(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: /theme <light|dark|system>")
	}
	t, err := settings.ParseTheme(args[0])
	if err != nil {
		return err
	}
	if err := r.settings.SetTheme(t); err != nil {
		return err
	}
	r.ok("theme = " + t.String())
	return nil
}

func (r *repl) model(args []string) error {
	current := r.settings.Snapshot().ModelName
	if len(args) == 0 {
		for _, id := range model.ModelIDs() {
			info := model.Catalog[id]
			marker := "  "
			if id == current {
				marker = r.render.Style(SuccessStyle.Render, "* ")
			}
			fmt.Fprintf(r.out, "%s%s %s %s\n", marker,
				runewidth.FillRight(id, 16),
				runewidth.FillRight(info.TierIcon()+" "+info.ContextString(), 14),
				r.render.Style(DimStyle.Render, info.Description))
		}
		if _, ok := model.LookupModel(current); !ok {
			fmt.Fprintf(r.out, "%s%s\n", r.render.Style(SuccessStyle.Render, "* "), current)
		}
		return nil
	}

	info, ok := model.LookupModel(args[0])
	if !ok {
		return fmt.Errorf("unknown model %q (known: %s)", args[0], strings.Join(model.ModelIDs(), ", "))
	}
	if err := r.settings.SetModel(info.ID); err != nil {
		return err
	}
	r.ok("model = " + info.ID)
	return nil
}

func (r *repl) printSettings() {
	g := r.settings.Snapshot()
	rows := [][2]string{
		{"Model", g.ModelName},
		{"Temperature", strconv.FormatFloat(g.Temperature, 'f', 2, 64)},
		{"Max tokens", g.MaxTokensString()},
		{"Theme", g.Theme.String()},
	}
	if path := r.settings.Path(); path != "" {
		rows = append(rows, [2]string{"File", path})
	}
	for _, row := range rows {
		fmt.Fprintf(r.out, "  %s %s\n", r.render.Style(DimStyle.Render, runewidth.FillRight(row[0], 14)), row[1])
	}
}

func (r *repl) usage(ctx context.Context) error {
	if r.ledger == nil {
		return fmt.Errorf("usage tracking is disabled")
	}
	sum, err := r.ledger.Summary(ctx)
	if err != nil {
		return err
	}
	printSummary(r.out, r.render, sum)
	return nil
}

func (r *repl) export(args []string) error {
	if r.transcript == nil {
		return fmt.Errorf("nothing to export here")
	}
	if len(args) > 2 {
		return fmt.Errorf("usage: /export [md|json] [dir]")
	}
	format, dir := "md", "."
	if len(args) > 0 {
		format = args[0]
	}
	if len(args) > 1 {
		dir = args[1]
	}
	exporter, err := export.ForFormat(format, nil)
	if err != nil {
		return err
	}
	t := r.transcript()
	t.Model = r.settings.Snapshot().ModelName
	path, err := export.ToFile(t, exporter, dir)
	if err != nil {
		return err
	}
	r.ok("saved " + path)
	return nil
}

func (r *repl) ok(msg string) {
	fmt.Fprintf(r.out, "%s %s\n", r.render.Style(SuccessStyle.Render, "[OK]"), msg)
}

func (r *repl) warn(msg string) {
	fmt.Fprintf(r.out, "%s %s\n", r.render.Style(WarningStyle.Render, "[!]"), msg)
}

func (r *repl) fail(err error) {
	fmt.Fprintf(r.out, "%s %v\n", r.render.Style(ErrorStyle.Render, "[Error]"), err)
}
