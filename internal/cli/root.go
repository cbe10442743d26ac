// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/spf13/cobra"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath  string
	model       string
	temperature float64
	maxTokens   int
	logLevel    string

	build BuildInfo
}

// NewRootCommand builds the parlor command tree.
func NewRootCommand(build BuildInfo) *cobra.Command {
	opts := &rootOptions{build: build}

	root := &cobra.Command{
		Use:   "parlor",
		Short: "Chat, recipes and event planning on top of a hosted chat model",
		Long: `parlor talks to an OpenAI-compatible chat-completions endpoint.

Run without a command to start a chat. Set the API key with
PARLOR_API_KEY (or GLM_API_KEY) or "parlor config set api.key <key>".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.parlor/config.toml)")
	flags.StringVarP(&opts.model, "model", "m", "", "model for this run")
	flags.Float64VarP(&opts.temperature, "temperature", "t", 0, "sampling temperature for this run (0-2)")
	flags.IntVar(&opts.maxTokens, "max-tokens", 0, "completion token cap for this run")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newChatCommand(opts),
		newRecipeCommand(opts),
		newPlanCommand(opts),
		newUsageCommand(opts),
		newConfigCommand(opts),
		newVersionCommand(opts),
	)
	return root
}
