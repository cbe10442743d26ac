// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import "go.uber.org/zap"

// =============================================================================
// CLIENT OPTIONS
// =============================================================================

// Option configures a Client at construction.
type Option func(*Client)

// WithLogger sets the logger. Nil keeps the no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger.Named("gateway")
		}
	}
}

// WithObserver registers a hook called once per completed request.
func WithObserver(fn func(CallRecord)) Option {
	return func(c *Client) {
		c.observer = fn
	}
}

// =============================================================================
// SEND OPTIONS
// =============================================================================

// SendOption adjusts a single request.
type SendOption func(*sendOptions)

type sendOptions struct {
	temperature *float64
	topP        *float64
	maxTokens   *int
	stop        []string
	model       string
	tag         string
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) SendOption {
	return func(o *sendOptions) { o.temperature = &t }
}

// WithTopP sets nucleus sampling.
func WithTopP(p float64) SendOption {
	return func(o *sendOptions) { o.topP = &p }
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) SendOption {
	return func(o *sendOptions) { o.maxTokens = &n }
}

// WithStop sets stop sequences.
func WithStop(stop ...string) SendOption {
	return func(o *sendOptions) { o.stop = stop }
}

// WithModel overrides the configured model when non-empty.
func WithModel(name string) SendOption {
	return func(o *sendOptions) { o.model = name }
}

// WithTag labels the call in CallRecord.
func WithTag(tag string) SendOption {
	return func(o *sendOptions) { o.tag = tag }
}

// Options is the resolved view of a set of SendOptions.
type Options struct {
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
	Stop        []string
	Model       string
	Tag         string
}

// ResolveOptions applies opts in order and returns the result. Later
// options override earlier ones.
func ResolveOptions(opts ...SendOption) Options {
	var o sendOptions
	for _, opt := range opts {
		opt(&o)
	}
	return Options{
		Temperature: o.temperature,
		TopP:        o.topP,
		MaxTokens:   o.maxTokens,
		Stop:        o.stop,
		Model:       o.model,
		Tag:         o.tag,
	}
}
