// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/jeranaias/parlor/internal/config"
)

func newConfigCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and edit the configuration file",
		Long: `Read and edit the configuration file (default ~/.parlor/config.toml).

Keys use dot notation, for example api.model or chat.history_window.
Environment overrides (PARLOR_API_KEY, GLM_API_KEY, PARLOR_ENDPOINT,
PARLOR_MODEL, PARLOR_LOG_LEVEL) are shown by "list" but never saved.`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show every key with its effective value",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := opts.loadConfig()
				if err != nil {
					return err
				}
				return listConfig(cmd.OutOrStdout(), cfg)
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := opts.loadConfig()
				if err != nil {
					return err
				}
				v, err := cfg.Get(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), maskIfSecret(args[0], fmt.Sprint(v)))
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Validate and save one value",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return setConfig(cmd.OutOrStdout(), opts.configPath, args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path, err := configFile(opts.configPath)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
	)
	return cmd
}

func configFile(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	return config.ConfigPath()
}

func listConfig(w io.Writer, cfg *config.Config) error {
	for _, key := range config.GetAllKeys() {
		v, err := cfg.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s = %s\n", runewidth.FillRight(key, 24), maskIfSecret(key, fmt.Sprint(v)))
	}
	return nil
}

// setConfig edits the file itself, without environment overrides, so an
// exported key is never written to disk by accident.
func setConfig(w io.Writer, override, key, value string) error {
	path, err := configFile(override)
	if err != nil {
		return err
	}

	cfg := config.Default()
	if exists(path) {
		if err := config.LoadTOML(cfg, path); err != nil {
			return err
		}
	}

	key = strings.ToLower(strings.TrimSpace(key))
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration value: %w", err)
	}
	if override == "" {
		if err := config.EnsureConfigDir(); err != nil {
			return err
		}
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(w, "[OK] %s = %s\n", key, maskIfSecret(key, value))
	return nil
}

// maskAPIKey keeps the first and last four characters of a key.
func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 12 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func maskIfSecret(key, value string) string {
	if config.IsSecretKey(key) {
		return maskAPIKey(value)
	}
	return value
}

// exists reports whether path names an existing file.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
