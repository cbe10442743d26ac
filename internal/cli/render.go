// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/parlor/internal/model"
	"github.com/jeranaias/parlor/internal/settings"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// Renderer renders model output for the terminal. A plain renderer passes
// text through untouched, for piped output.
type Renderer struct {
	mu    sync.Mutex
	md    *glamour.TermRenderer
	plain bool
	width int
}

// NewRenderer creates a renderer for theme. plain disables styling.
func NewRenderer(theme settings.Theme, plain bool, width int) *Renderer {
	r := &Renderer{plain: plain, width: width}
	r.SetTheme(theme)
	return r
}

// SetTheme rebuilds the markdown style for theme.
func (r *Renderer) SetTheme(theme settings.Theme) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.plain {
		r.md = nil
		return
	}
	applyTheme(theme)

	style := "light"
	if darkBackground(theme) {
		style = "dark"
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(r.width),
	)
	if err != nil {
		// Fall back to plain text
		md = nil
	}
	r.md = md
}

// Markdown renders content. It returns content unchanged when rendering
// is off or fails.
func (r *Renderer) Markdown(content string) string {
	r.mu.Lock()
	md := r.md
	r.mu.Unlock()

	if md == nil {
		return ensureNewline(content)
	}
	out, err := md.Render(content)
	if err != nil {
		return ensureNewline(content)
	}
	return out
}

// Code renders text as a highlighted code block.
func (r *Renderer) Code(lang, text string) string {
	if r.plain {
		return ensureNewline(text)
	}
	return r.Markdown(fenced(lang, text))
}

// Style applies a lipgloss style unless the renderer is plain.
func (r *Renderer) Style(render func(...string) string, text string) string {
	if r.plain {
		return text
	}
	return render(text)
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// =============================================================================
// STRUCTURED RECORDS
// =============================================================================

// RecipeMarkdown formats a recipe as markdown.
func RecipeMarkdown(r model.Recipe) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.Name)
	if r.Country != "" {
		fmt.Fprintf(&b, "*Cuisine: %s*\n\n", r.Country)
	}

	b.WriteString("## Ingredients\n\n")
	if len(r.Ingredients) == 0 {
		b.WriteString("_none listed_\n")
	}
	for _, ing := range r.Ingredients {
		amount := strings.TrimSpace(ing.Amount + " " + ing.UnitOrEmpty())
		if amount == "" {
			fmt.Fprintf(&b, "- %s\n", ing.Name)
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", ing.Name, amount)
	}

	b.WriteString("\n## Instructions\n\n")
	for i, step := range r.Instructions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	if r.History != "" {
		fmt.Fprintf(&b, "\n## History\n\n%s\n", r.History)
	}
	return b.String()
}

// PlanMarkdown formats an event plan as markdown.
func PlanMarkdown(p model.EventPlan) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", p.EventName)
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Guests | %d |\n", p.GuestCount)
	fmt.Fprintf(&b, "| Budget | %s |\n", p.Budget)
	fmt.Fprintf(&b, "| Date | %s |\n", p.EventDate)
	fmt.Fprintf(&b, "| Duration | %s |\n", p.EventDuration)
	fmt.Fprintf(&b, "| Estimate | %s |\n", p.TotalEstimate)

	writeList(&b, "Menu", p.MenuPreferences)
	writeList(&b, "Drinks", p.DrinkPreferences)
	writeList(&b, "Special requests", p.SpecialRequests)
	writeList(&b, "Recommendations", p.Recommendations)
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

// fenced wraps text in a code block so markdown leaves it verbatim.
func fenced(lang, text string) string {
	return "```" + lang + "\n" + strings.TrimRight(text, "\n") + "\n```\n"
}
