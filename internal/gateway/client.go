// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"

	"github.com/jeranaias/parlor/internal/util"
)

// Configuration constants for the completion endpoint.
const (
	// DefaultEndpoint is the chat completions URL.
	DefaultEndpoint = "https://open.bigmodel.cn/api/paas/v4/chat/completions"

	// DefaultRequestTimeout bounds a whole request including the body read.
	DefaultRequestTimeout = 120 * time.Second

	// DefaultConnectTimeout bounds TCP connection setup.
	DefaultConnectTimeout = 30 * time.Second

	// DefaultIdleTimeout bounds silence between socket reads or writes.
	DefaultIdleTimeout = 120 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	// maxErrorSummary bounds the diagnostic message taken from error bodies.
	maxErrorSummary = 200
)

// Config holds the connection settings for a Client.
type Config struct {
	APIKey   string
	Endpoint string
	Model    string

	RequestTimeout time.Duration
	ConnectTimeout time.Duration
	IdleTimeout    time.Duration

	UserAgent string
}

// Client sends chat completion requests. It is safe for concurrent use.
type Client struct {
	apiKey    string
	endpoint  string
	host      string
	model     string
	userAgent string

	transport  *http.Transport
	httpClient *http.Client

	logger   *zap.Logger
	observer func(CallRecord)
	closed   atomic.Bool
}

// NewClient creates a client. Zero timeouts take their defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "parlor/dev"
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialContext(cfg.ConnectTimeout, cfg.IdleTimeout),
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	host := cfg.Endpoint
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		host = u.Host
	}

	c := &Client{
		apiKey:    strings.TrimSpace(cfg.APIKey),
		endpoint:  cfg.Endpoint,
		host:      host,
		model:     cfg.Model,
		userAgent: cfg.UserAgent,
		transport: transport,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured default model.
func (c *Client) Model() string {
	return c.model
}

// Close releases idle connections. Send fails with KindUnknown afterwards.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.transport.CloseIdleConnections()
	return nil
}

// setHeaders sets the required headers for completion requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
}

// =============================================================================
// SEND
// =============================================================================

// Send performs one completion request over history. Every returned error
// is a *Error.
func (c *Client) Send(ctx context.Context, history []ChatMessage, opts ...SendOption) (*Reply, error) {
	if len(history) == 0 {
		return nil, &Error{Kind: KindUnknown, Message: ErrEmptyHistory.Error(), Err: ErrEmptyHistory}
	}
	if c.closed.Load() {
		return nil, &Error{Kind: KindUnknown, Message: ErrClosed.Error(), Err: ErrClosed}
	}

	so := ResolveOptions(opts...)
	modelName := c.model
	if so.Model != "" {
		modelName = so.Model
	}

	reqBody := ChatRequest{
		Model:       modelName,
		Messages:    history,
		Temperature: so.Temperature,
		TopP:        so.TopP,
		MaxTokens:   so.MaxTokens,
		Stream:      false,
		Stop:        so.Stop,
	}

	start := time.Now()
	reply, code, err := c.do(ctx, reqBody)
	duration := time.Since(start)

	rec := CallRecord{
		Tag:      so.Tag,
		Model:    modelName,
		Status:   "ok",
		Code:     code,
		Duration: duration,
		At:       start,
	}
	if err != nil {
		rec.Status = err.Kind.String()
		c.logger.Debug("completion failed",
			zap.String("host", c.host),
			zap.String("kind", err.Kind.String()),
			zap.Int("status", code),
			zap.Duration("duration", duration),
			zap.String("tag", so.Tag),
		)
	} else {
		if reply.Response.Usage != nil {
			rec.Usage = *reply.Response.Usage
		}
		c.logger.Debug("completion received",
			zap.String("host", c.host),
			zap.Int("status", code),
			zap.Duration("duration", duration),
			zap.Int("total_tokens", rec.Usage.TotalTokens),
			zap.String("tag", so.Tag),
		)
	}
	if c.observer != nil {
		c.observer(rec)
	}

	if err != nil {
		return nil, err
	}
	return reply, nil
}

// do performs a single HTTP request. It returns the HTTP status (0 if none).
func (c *Client) do(ctx context.Context, reqBody ChatRequest) (*Reply, int, *Error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, 0, &Error{Kind: KindUnknown, Message: "failed to marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, 0, &Error{Kind: KindUnknown, Message: "failed to create request", Err: err}
	}
	c.setHeaders(req)

	c.logger.Debug("completion request",
		zap.String("method", req.Method),
		zap.String("host", c.host),
		zap.String("model", reqBody.Model),
		zap.Int("messages", len(reqBody.Messages)),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, classifyTransport(err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		if gerr := classifyTransport(err); gerr.Kind != KindUnknown || ctx.Err() != nil {
			gerr.Code = resp.StatusCode
			return nil, resp.StatusCode, gerr
		}
		return nil, resp.StatusCode, &Error{Kind: KindParse, Code: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, statusError(resp.StatusCode, body)
	}

	reply, perr := decodeReply(body)
	if perr != nil {
		perr.Code = resp.StatusCode
		return nil, resp.StatusCode, perr
	}
	return reply, resp.StatusCode, nil
}

// readResponse reads the response body with size limits to prevent memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, &Error{Kind: KindParse, Message: ErrResponseTooLarge.Error(), Err: ErrResponseTooLarge}
	}
	return body, nil
}

// statusError converts a non-2xx response into an Error.
func statusError(code int, body []byte) *Error {
	e := &Error{Code: code, Body: string(body), Message: summarizeErrorBody(code, body)}
	switch {
	case code >= 400 && code <= 499:
		e.Kind = KindClient
	case code >= 500 && code <= 599:
		e.Kind = KindServer
	default:
		e.Kind = KindUnknown
		e.Message = fmt.Sprintf("unexpected status %d: %s", code, e.Message)
	}
	return e
}

// summarizeErrorBody pulls a one-line message out of an error body.
func summarizeErrorBody(code int, body []byte) string {
	for _, path := range []string{"error.message", "message", "error"} {
		if r := gjson.GetBytes(body, path); r.Exists() && r.Type == gjson.String && r.String() != "" {
			return util.TruncateRunes(util.SingleLine(r.String()), maxErrorSummary)
		}
	}
	if text := strings.TrimSpace(util.SingleLine(string(body))); text != "" && !gjson.ValidBytes(body) {
		return util.TruncateRunes(text, maxErrorSummary)
	}
	if text := http.StatusText(code); text != "" {
		return text
	}
	return "no details"
}

// decodeReply parses a 2xx body into a Reply.
func decodeReply(body []byte) (*Reply, *Error) {
	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, &Error{Kind: KindParse, Message: "failed to parse response", Err: err}
	}
	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message == nil {
		return nil, &Error{Kind: KindParse, Message: ErrNoChoices.Error(), Err: ErrNoChoices}
	}
	return &Reply{
		Response: chatResp,
		Content:  chatResp.Choices[0].Message.Content,
		Raw:      body,
		Pretty:   strings.TrimRight(string(pretty.Pretty(body)), "\n"),
	}, nil
}
