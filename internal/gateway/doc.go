// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway is the only component that talks to the remote
// chat-completion endpoint.
//
// A Client sends one non-streaming completion request per call and turns
// every failure into a *Error with a Kind and a user-facing message. The
// client never retries; callers decide what a failure means for the
// conversation.
//
// # Key Types
//
//   - Client: HTTP client with separate total, connect and idle timeouts
//   - ChatMessage: one entry of the request history
//   - Reply: decoded envelope plus the raw and pretty-printed body
//   - Error: classified failure (network, timeout, client, server, parse, unknown)
//   - CallRecord: per-call summary handed to the observer hook
//
// # Usage
//
//	client := gateway.NewClient(gateway.Config{
//	    APIKey:   key,
//	    Endpoint: gateway.DefaultEndpoint,
//	    Model:    "glm-4.5-flash",
//	}, gateway.WithLogger(logger))
//	defer client.Close()
//
//	reply, err := client.Send(ctx, history, gateway.WithTemperature(0.3))
//	if err != nil {
//	    var gerr *gateway.Error
//	    if errors.As(err, &gerr) {
//	        fmt.Println(gerr.UserMessage())
//	    }
//	}
//
// # Security
//
// The API key and request/response bodies are never logged.
package gateway
