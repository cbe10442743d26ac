// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"time"

	"github.com/jeranaias/parlor/internal/model"
)

// ChatMessage represents a single message in a chat completion request.
type ChatMessage struct {
	Role    model.Role `json:"role"`
	Content string     `json:"content"`
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: model.RoleUser, Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: model.RoleAssistant, Content: content}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) ChatMessage {
	return ChatMessage{Role: model.RoleSystem, Content: content}
}

// FromMessages converts log entries to request messages.
func FromMessages(msgs []model.Message) []ChatMessage {
	out := make([]ChatMessage, len(msgs))
	for i, m := range msgs {
		out[i] = ChatMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

// ChatRequest represents a request to the chat completions endpoint.
// Nil pointers and empty slices are omitted from the body.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
	Stop        []string      `json:"stop,omitempty"`
}

// ChatResponse is the completion envelope. Every field is optional.
type ChatResponse struct {
	ID      *string  `json:"id,omitempty"`
	Created *int64   `json:"created,omitempty"`
	Model   *string  `json:"model,omitempty"`
	Choices []Choice `json:"choices,omitempty"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice is one candidate completion.
type Choice struct {
	Index        *int         `json:"index,omitempty"`
	Message      *ChatMessage `json:"message,omitempty"`
	FinishReason *string      `json:"finish_reason,omitempty"`
}

// Usage reports token counts for a call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Reply is a successful completion.
type Reply struct {
	Response ChatResponse
	Content  string // first choice content
	Raw      []byte // body as received
	Pretty   string // indented body for display
}

// FinishReason returns the first choice's finish reason, or "".
func (r *Reply) FinishReason() string {
	if len(r.Response.Choices) == 0 || r.Response.Choices[0].FinishReason == nil {
		return ""
	}
	return *r.Response.Choices[0].FinishReason
}

// CallRecord summarises one completed Send for observers.
type CallRecord struct {
	Tag      string
	Model    string
	Status   string // "ok" or the Kind name
	Code     int
	Duration time.Duration
	Usage    Usage
	At       time.Time
}
