// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"errors"

	"github.com/jeranaias/parlor/internal/extract"
	"github.com/jeranaias/parlor/internal/gateway"
)

// ErrEmptyReply indicates the model answered with no content.
var ErrEmptyReply = errors.New("empty reply from the model")

// interviewStartPrefix prefixes planner start failures.
const interviewStartPrefix = "Could not start the interview: "

// UserMessage maps err to the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		return gwErr.UserMessage()
	}
	var exErr *extract.Error
	if errors.As(err, &exErr) {
		return exErr.UserMessage()
	}
	if errors.Is(err, ErrEmptyReply) {
		return "Received an empty response from the server"
	}
	return "Error: " + err.Error()
}
