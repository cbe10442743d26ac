// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
)

// Sentinel causes carried in Error.Err.
var (
	// ErrEmptyHistory is returned when Send is called without messages.
	ErrEmptyHistory = errors.New("empty message history")

	// ErrClosed is returned when Send is called after Close.
	ErrClosed = errors.New("gateway client closed")

	// ErrNoChoices indicates a 2xx response without a usable first choice.
	ErrNoChoices = errors.New("response has no message choices")

	// ErrResponseTooLarge indicates the body exceeded MaxResponseSize.
	ErrResponseTooLarge = errors.New("response exceeded maximum size")
)

// =============================================================================
// ERROR KIND
// =============================================================================

// Kind classifies a gateway failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindTimeout
	KindClient
	KindServer
	KindParse
)

// Kinds lists every Kind.
func Kinds() []Kind {
	return []Kind{KindNetwork, KindTimeout, KindClient, KindServer, KindParse, KindUnknown}
}

// String returns the short name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	case KindParse:
		return "parse"
	case KindUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// =============================================================================
// ERROR TYPE
// =============================================================================

// Error is the single error type returned by Client.Send.
type Error struct {
	Kind    Kind
	Code    int    // HTTP status, 0 when no response was received
	Body    string // raw response body for client/server errors
	Message string // diagnostic summary
	Err     error  // underlying cause, may be nil
}

// Error implements the error interface. The text is diagnostic; use
// UserMessage for display.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code != 0 {
		return fmt.Sprintf("gateway %s error (HTTP %d): %s", e.Kind, e.Code, msg)
	}
	return fmt.Sprintf("gateway %s error: %s", e.Kind, msg)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the text shown to the user for this failure.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindNetwork:
		return "Network error: check your internet connection"
	case KindTimeout:
		return "The server took too long to respond"
	case KindServer:
		return fmt.Sprintf("Server error (%d): please try again later", e.Code)
	case KindClient:
		switch e.Code {
		case 400:
			return "Bad request"
		case 401:
			return "Authorization error: check your API key"
		case 403:
			return "Access denied"
		case 404:
			return "Resource not found"
		case 429:
			return "Rate limit exceeded: please try again later"
		default:
			return fmt.Sprintf("Request error (%d)", e.Code)
		}
	case KindParse:
		return "Could not process the server response"
	default:
		msg := e.Message
		if msg == "" && e.Err != nil {
			msg = e.Err.Error()
		}
		return "An unknown error occurred: " + msg
	}
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// classifyTransport maps an error from the HTTP round trip or body read.
func classifyTransport(err error) *Error {
	if err == nil {
		return nil
	}
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr
	}

	switch {
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindUnknown, Message: "request canceled", Err: err}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return &Error{Kind: KindTimeout, Message: "deadline exceeded", Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Message: "timed out", Err: err}
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	switch {
	case errors.As(err, &dnsErr):
		return &Error{Kind: KindNetwork, Message: "name resolution failed", Err: err}
	case errors.As(err, &opErr):
		return &Error{Kind: KindNetwork, Message: "connection failed", Err: err}
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return &Error{Kind: KindNetwork, Message: "connection closed", Err: err}
	}

	return &Error{Kind: KindUnknown, Err: err}
}
