// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/parlor/internal/config"
	"github.com/jeranaias/parlor/internal/gateway"
)

// Exit codes.
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitAuthError    = 4
	ExitNetworkError = 5
)

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if errors.Is(err, config.ErrMissingAPIKey) {
		return ExitConfigError
	}

	var gerr *gateway.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == 401 || gerr.Code == 403:
			return ExitAuthError
		case gerr.Kind == gateway.KindNetwork || gerr.Kind == gateway.KindTimeout:
			return ExitNetworkError
		}
		return ExitGeneralError
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unknown command"),
		strings.Contains(msg, "unknown flag"),
		strings.Contains(msg, "unknown shorthand flag"),
		strings.Contains(msg, "accepts "),
		strings.Contains(msg, "requires at least"),
		strings.Contains(msg, "invalid argument"):
		return ExitUsageError
	case strings.Contains(msg, "config"):
		return ExitConfigError
	}
	return ExitGeneralError
}

// DisplayError prints err for the user, with a hint when one applies.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
	if errors.Is(err, config.ErrMissingAPIKey) {
		fmt.Fprintln(w, DimStyle.Render(`Try: export PARLOR_API_KEY=... or parlor config set api.key <key>`))
	}
}
