// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/jeranaias/parlor/internal/prompt"
)

// VersionInfo is the --json payload of the version command.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	Templates string `json:"prompt_templates"`
	GoVersion string `json:"go_version"`
}

func newVersionCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versionInfo(opts.build)
			if asJSON {
				return NewJSONResponse("version", info).Write(cmd.OutOrStdout())
			}
			printVersion(cmd.OutOrStdout(), info)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func versionInfo(b BuildInfo) VersionInfo {
	info := VersionInfo{
		Version:   b.Version,
		GitCommit: b.Commit,
		BuildDate: b.Date,
		Templates: prompt.Version,
		GoVersion: runtime.Version(),
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.GitCommit == "" {
		info.GitCommit = "unknown"
	}
	if info.BuildDate == "" {
		info.BuildDate = "unknown"
	}
	return info
}

func printVersion(w io.Writer, info VersionInfo) {
	fmt.Fprintf(w, "parlor version %s\n", info.Version)
	fmt.Fprintf(w, "  Git commit:  %s\n", info.GitCommit)
	fmt.Fprintf(w, "  Build date:  %s\n", info.BuildDate)
	fmt.Fprintf(w, "  Templates:   %s\n", info.Templates)
	fmt.Fprintf(w, "  Go version:  %s\n", info.GoVersion)
}
