// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/parlor/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter writes a transcript as Markdown.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a Markdown exporter. nil means DefaultOptions.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export implements Exporter.
func (e *MarkdownExporter) Export(t *Transcript) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("transcript is nil")
	}

	var sb strings.Builder
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "title: %s\n", escapeYAML(t.Title))
		fmt.Fprintf(&sb, "mode: %s\n", t.Mode)
		fmt.Fprintf(&sb, "model: %s\n", t.Model)
		if t.SessionID != "" {
			fmt.Fprintf(&sb, "session: %s\n", t.SessionID)
		}
		fmt.Fprintf(&sb, "messages: %d\n", len(t.Messages))
		fmt.Fprintf(&sb, "exported: %s\n", t.ExportedAt.Format(time.RFC3339))
		sb.WriteString("generator: parlor\n")
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", t.Title)

	if len(t.Messages) > 0 {
		sb.WriteString("## Conversation\n\n")
		for i, msg := range t.Messages {
			if e.options.IncludeTimestamps && msg.Timestamp > 0 {
				fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n", msg.Role.DisplayName(),
					time.UnixMilli(msg.Timestamp).Format("15:04:05"))
			} else {
				fmt.Fprintf(&sb, "### %s\n\n", msg.Role.DisplayName())
			}
			sb.WriteString(strings.TrimRight(msg.Content, "\n"))
			sb.WriteString("\n\n")
			if i < len(t.Messages)-1 {
				sb.WriteString("---\n\n")
			}
		}
	}

	if t.Recipe != nil {
		writeRecipe(&sb, t.Recipe)
	}
	if t.Plan != nil {
		writePlan(&sb, t.Plan)
	}
	return []byte(sb.String()), nil
}

// FileExtension implements Exporter.
func (*MarkdownExporter) FileExtension() string { return ".md" }

func writeRecipe(sb *strings.Builder, r *model.Recipe) {
	fmt.Fprintf(sb, "## Recipe: %s\n\n", r.Name)
	if r.Country != "" {
		fmt.Fprintf(sb, "**Cuisine:** %s\n\n", r.Country)
	}
	sb.WriteString("### Ingredients\n\n")
	for _, ing := range r.Ingredients {
		amount := strings.TrimSpace(ing.Amount + " " + ing.UnitOrEmpty())
		if amount == "" {
			fmt.Fprintf(sb, "- %s\n", ing.Name)
		} else {
			fmt.Fprintf(sb, "- %s: %s\n", ing.Name, amount)
		}
	}
	sb.WriteString("\n### Instructions\n\n")
	for i, step := range r.Instructions {
		fmt.Fprintf(sb, "%d. %s\n", i+1, step)
	}
	if r.History != "" {
		fmt.Fprintf(sb, "\n### History\n\n%s\n", r.History)
	}
	sb.WriteString("\n")
}

func writePlan(sb *strings.Builder, p *model.EventPlan) {
	fmt.Fprintf(sb, "## Event plan: %s\n\n", p.EventName)
	fmt.Fprintf(sb, "- **Guests:** %d\n", p.GuestCount)
	fmt.Fprintf(sb, "- **Budget:** %s\n", p.Budget)
	fmt.Fprintf(sb, "- **Date:** %s\n", p.EventDate)
	fmt.Fprintf(sb, "- **Duration:** %s\n", p.EventDuration)
	fmt.Fprintf(sb, "- **Estimate:** %s\n", p.TotalEstimate)
	for _, sec := range []struct {
		title string
		items []string
	}{
		{"Menu", p.MenuPreferences},
		{"Drinks", p.DrinkPreferences},
		{"Special requests", p.SpecialRequests},
		{"Recommendations", p.Recommendations},
	} {
		if len(sec.items) == 0 {
			continue
		}
		fmt.Fprintf(sb, "\n### %s\n\n", sec.title)
		for _, item := range sec.items {
			fmt.Fprintf(sb, "- %s\n", item)
		}
	}
	sb.WriteString("\n")
}

// escapeYAML quotes s when it would not parse as a plain scalar.
func escapeYAML(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, ":#{}[]&*!|>'\"%@`,\n") || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "?") {
		return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(s) + `"`
	}
	return s
}
